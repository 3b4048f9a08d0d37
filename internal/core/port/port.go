package port

import (
	"context"
	"sync"

	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound.

type ProductsSender interface {
	SendProducts(context.Context, []domain.Product) error
}

type ProductsSaver interface {
	SaveProducts(context.Context, []domain.Product) error
}

type ConfigurationsProvider interface {
	PresetConfigurations(context.Context) (domain.Configurations, error)
	CustomConfiguration(
		context.Context, decimal.Decimal, domain.PCType,
	) (domain.CustomConfiguration, error)
}

type ComponentsFinder interface {
	Components(context.Context, domain.Slot, string) ([]domain.Product, error)
}

type BuildSubmitter interface {
	SubmitBuild(context.Context, map[domain.Slot]string) (domain.Build, error)
}

// Outbound.

type ProductsProducer interface {
	ProduceProducts(context.Context, []domain.Product) error
}

type ProductsStorage interface {
	StoreProducts(context.Context, []domain.Product) error
}

type CatalogReader interface {
	ListProducts(context.Context) ([]domain.Product, error)
}

// A ConfigurationCache keeps encoded configurations by key. Get reports
// false on a miss.
type ConfigurationCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Purge(context.Context) error
}

type BuildPublisher interface {
	PublishBuild(context.Context, domain.Build) error
}

type CategoryNormalizerProcessor interface {
	runnerContextWg
	closer
}
