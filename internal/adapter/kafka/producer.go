package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductsProducer = (*ProductsProducer)(nil)
var _ port.BuildPublisher = (*BuildsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

func newProducerOpts(op string, opts []ProducerOpt) (producerOpts, error) {
	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return producerOpts{}, opErr(err, op)
		}
	}
	return options, nil
}

// A ProductsProducer sends shop products to the raw products topic.
type ProductsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewProductsProducer(
	opts ...ProducerOpt,
) (ProductsProducer, error) {
	const op = "NewProductsProducer"

	options, err := newProducerOpts(op, opts)
	if err != nil {
		return ProductsProducer{}, err
	}

	opPrefix := "ProductsProducer"
	return ProductsProducer{
		producer: producer{opPrefix: opPrefix, cl: options.cl},
		encoder:  options.encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p ProductsProducer) Close() {
	p.producer.close()
}

func (p ProductsProducer) ProduceProducts(
	ctx context.Context, vs []domain.Product,
) error {
	const op = "ProduceProducts"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	rs, err := p.createRecords(vs)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, rs...); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p ProductsProducer) createRecords(
	vs []domain.Product,
) (rs []*kgo.Record, err error) {
	const op = "createRecords"

	for _, v := range vs {
		s := productToSchemaV1(v)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		r := &kgo.Record{Key: []byte(s.ProductID), Value: b}
		rs = append(rs, r)
	}

	return rs, nil
}

// A BuildsProducer hands submitted builds over to the order system.
type BuildsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
	now      func() time.Time
}

func NewBuildsProducer(
	opts ...ProducerOpt,
) (BuildsProducer, error) {
	const op = "NewBuildsProducer"

	options, err := newProducerOpts(op, opts)
	if err != nil {
		return BuildsProducer{}, err
	}

	opPrefix := "BuildsProducer"
	return BuildsProducer{
		producer: producer{opPrefix: opPrefix, cl: options.cl},
		encoder:  options.encoder,
		opPrefix: opPrefix,
		now:      time.Now,
	}, nil
}

func (p BuildsProducer) Close() {
	p.producer.close()
}

func (p BuildsProducer) PublishBuild(ctx context.Context, b domain.Build) error {
	const op = "PublishBuild"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	data, err := p.encoder.Encode(buildToSchemaV1(b, p.now()))
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{Key: []byte(b.ID), Value: data}
	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
