package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/niksmo/pcbuild/internal/core/builder"
	"github.com/niksmo/pcbuild/internal/core/configurator"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/internal/core/port"
	"github.com/shopspring/decimal"
)

var (
	ErrUnavailable     = errors.New("configuration is unavailable")
	ErrProductNotFound = errors.New("product not found")
)

var _ port.ProductsSender = (*Service)(nil)
var _ port.ProductsSaver = (*Service)(nil)
var _ port.ConfigurationsProvider = (*Service)(nil)
var _ port.ComponentsFinder = (*Service)(nil)
var _ port.BuildSubmitter = (*Service)(nil)

type Service struct {
	productsProducer port.ProductsProducer
	productsStorage  port.ProductsStorage
	catalog          port.CatalogReader
	cache            port.ConfigurationCache
	buildPublisher   port.BuildPublisher
	normalizerProc   port.CategoryNormalizerProcessor
	engine           configurator.Engine
	builder          builder.Builder
}

func New(
	productsProducer port.ProductsProducer,
	productsStorage port.ProductsStorage,
	catalog port.CatalogReader,
	cache port.ConfigurationCache,
	buildPublisher port.BuildPublisher,
	normalizerProc port.CategoryNormalizerProcessor,
	engine configurator.Engine,
) Service {
	return Service{
		productsProducer,
		productsStorage,
		catalog,
		cache,
		buildPublisher,
		normalizerProc,
		engine,
		builder.New(engine.Policy()),
	}
}

// Run runs the services components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.normalizerProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.normalizerProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s Service) Close() {
	if s.normalizerProc != nil {
		s.normalizerProc.Close()
	}
}

func (s Service) SendProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SendProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.productsProducer.ProduceProducts(ctx, ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveProducts stores ps and drops the cached presets built from
// the previous catalog.
func (s Service) SaveProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SaveProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.productsStorage.StoreProducts(ctx, ps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Purge(ctx); err != nil {
		log.Warn("failed to purge cache", "err", err)
	}
	log.Info("products saved", "nProducts", len(ps))
	return nil
}

func (s Service) PresetConfigurations(
	ctx context.Context,
) (domain.Configurations, error) {
	const op = "Service.PresetConfigurations"
	log := slog.With("op", op)

	products, err := s.listProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key := presetsKey(products)
	if cs, ok := s.cachedPresets(ctx, key); ok {
		log.Debug("served from cache", "key", key)
		return cs, nil
	}

	cs := s.engine.Generate(products)
	s.storePresets(ctx, key, cs)
	log.Info("presets generated", "key", key, "nProducts", len(products))
	return cs, nil
}

func (s Service) CustomConfiguration(
	ctx context.Context, budget decimal.Decimal, t domain.PCType,
) (domain.CustomConfiguration, error) {
	const op = "Service.CustomConfiguration"
	log := slog.With("op", op)

	products, err := s.listProducts(ctx)
	if err != nil {
		return domain.CustomConfiguration{}, fmt.Errorf("%s: %w", op, err)
	}

	cfg, ok := s.engine.GenerateCustom(products, budget, t)
	if !ok {
		return domain.CustomConfiguration{}, fmt.Errorf(
			"%s: %w: pc type %q, budget %s", op, ErrUnavailable, t, budget,
		)
	}
	cfg.ID = uuid.NewString()

	if cfg.OverBudget() {
		log.Warn(
			"configuration exceeds budget",
			"id", cfg.ID,
			"budget", budget.String(),
			"total", cfg.TotalPrice.String(),
		)
	}
	return cfg, nil
}

func (s Service) Components(
	ctx context.Context, slot domain.Slot, search string,
) ([]domain.Product, error) {
	const op = "Service.Components"

	if _, ok := s.engine.SlotCategory(slot); !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, domain.ErrUnknownSlot, slot)
	}

	products, err := s.listProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.builder.FilterComponents(products, slot, search), nil
}

// SubmitBuild assembles the build from product ids and hands it over
// to the order system.
func (s Service) SubmitBuild(
	ctx context.Context, selection map[domain.Slot]string,
) (domain.Build, error) {
	const op = "Service.SubmitBuild"
	log := slog.With("op", op)

	for slot := range selection {
		if _, err := domain.ParseSlot(string(slot)); err != nil {
			return domain.Build{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	products, err := s.listProducts(ctx)
	if err != nil {
		return domain.Build{}, fmt.Errorf("%s: %w", op, err)
	}

	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ProductID] = p
	}

	b := domain.NewBuild()
	for _, slot := range domain.Slots() {
		id, ok := selection[slot]
		if !ok {
			continue
		}
		p, ok := byID[id]
		if !ok {
			return domain.Build{}, fmt.Errorf("%s: %w: %q", op, ErrProductNotFound, id)
		}
		b, err = s.builder.Select(b, slot, p)
		if err != nil {
			return domain.Build{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.builder.Validate(b); err != nil {
		return domain.Build{}, fmt.Errorf("%s: %w", op, err)
	}

	b.ID = uuid.NewString()
	if err := s.buildPublisher.PublishBuild(ctx, b); err != nil {
		return domain.Build{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("build submitted", "id", b.ID, "total", b.Total().String())
	return b, nil
}

func (s Service) listProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.catalog.ListProducts(ctx)
}

func (s Service) cachedPresets(
	ctx context.Context, key string,
) (domain.Configurations, bool) {
	const op = "Service.cachedPresets"
	log := slog.With("op", op)

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn("failed to read cache", "key", key, "err", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var cs domain.Configurations
	if err := json.Unmarshal(data, &cs); err != nil {
		log.Warn("failed to decode cached presets", "key", key, "err", err)
		return nil, false
	}
	return cs, true
}

func (s Service) storePresets(
	ctx context.Context, key string, cs domain.Configurations,
) {
	const op = "Service.storePresets"
	log := slog.With("op", op)

	data, err := json.Marshal(cs)
	if err != nil {
		log.Warn("failed to encode presets", "err", err)
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		log.Warn("failed to write cache", "key", key, "err", err)
	}
}
