package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to the brokers. A nil tlsConfig means
// plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kgoOpts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		if tlsConfig != nil {
			kgoOpts = append(kgoOpts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kgoOpts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// gokaTLSOpts returns processor options that dial the brokers over TLS.
func gokaTLSOpts(tlsConfig *tls.Config) []goka.ProcessorOption {
	if tlsConfig == nil {
		return nil
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig

	return []goka.ProcessorOption{
		goka.WithConsumerGroupBuilder(goka.ConsumerGroupBuilderWithConfig(cfg)),
		goka.WithProducerBuilder(goka.ProducerBuilderWithConfig(cfg)),
		goka.WithTopicManagerBuilder(
			goka.TopicManagerBuilderWithConfig(cfg, goka.NewTopicManagerConfig()),
		),
	}
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func productToSchemaV1(v domain.Product) (s schema.ProductV1) {
	s.ProductID = v.ProductID
	s.Name = v.Name
	s.ModelNo = v.ModelNo
	s.Brand = v.Brand
	s.Category = string(v.Category)
	s.Description = v.Description
	s.Price = v.Price.String()
	s.DiscountPrice = v.DiscountPrice.String()
	s.OnDiscount = v.OnDiscount
	s.Stock = v.Stock
	return
}

func schemaV1ToProduct(s schema.ProductV1) (domain.Product, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %q: price: %w", s.ProductID, err)
	}

	discountPrice := decimal.Zero
	if s.DiscountPrice != "" {
		discountPrice, err = decimal.NewFromString(s.DiscountPrice)
		if err != nil {
			return domain.Product{}, fmt.Errorf(
				"product %q: discount price: %w", s.ProductID, err,
			)
		}
	}

	return domain.Product{
		ProductID:     s.ProductID,
		Name:          s.Name,
		ModelNo:       s.ModelNo,
		Brand:         s.Brand,
		Category:      domain.Category(s.Category),
		Description:   s.Description,
		Price:         price,
		DiscountPrice: discountPrice,
		OnDiscount:    s.OnDiscount,
		Stock:         s.Stock,
	}, nil
}

func buildToSchemaV1(b domain.Build, createdAt time.Time) (s schema.BuildV1) {
	s.BuildID = b.ID
	s.TotalPrice = b.Total().String()
	s.CreatedAt = createdAt
	for _, slot := range domain.Slots() {
		p, ok := b.Components[slot]
		if !ok {
			continue
		}
		s.Components = append(s.Components, schema.BuildComponentV1{
			Slot:      string(slot),
			ProductID: p.ProductID,
			Name:      p.Name,
			Price:     p.EffectivePrice().String(),
		})
	}
	return
}
