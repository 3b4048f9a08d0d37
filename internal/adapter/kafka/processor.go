package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/internal/core/port"
	"github.com/niksmo/pcbuild/pkg/schema"
)

var _ port.CategoryNormalizerProcessor = (*CategoryNormalizerProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A productEventCodec used for serde [schema.ProductV1]
type productEventCodec struct {
	serde Serde
}

func newProductEventCodec(s Serde) productEventCodec {
	return productEventCodec{s}
}

func (c productEventCodec) Encode(v any) ([]byte, error) {
	const op = "productEventCodec.Encode"
	if _, ok := v.(schema.ProductV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productEventCodec) Decode(data []byte) (any, error) {
	const op = "productEventCodec.Decode"
	var s schema.ProductV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A CategoryNormalizerProcessor reads raw shop products, maps free-form
// categories onto the known ones and forwards changed products to the
// output topic. Products of unknown categories are dropped.
//
// The last forwarded product is kept in the group table by product id.
type CategoryNormalizerProcessor struct {
	opPrefix     string
	proc         processor
	outputStream goka.Stream
}

func NewCategoryNormalizerProc(
	seedBrokers []string,
	inputStream string,
	group string,
	outputTopic string,
	productSerde Serde,
	tlsConfig *tls.Config,
) (*CategoryNormalizerProcessor, error) {
	const op = "NewCategoryNormalizerProc"

	p := CategoryNormalizerProcessor{
		opPrefix:     "CategoryNormalizerProcessor",
		outputStream: goka.Stream(outputTopic),
	}

	codec := newProductEventCodec(productSerde)

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(goka.Stream(inputStream), codec, p.processFn),
		goka.Output(p.outputStream, codec),
		goka.Persist(codec),
	)

	opts := append([]goka.ProcessorOption{withNonlogProcOpt()}, gokaTLSOpts(tlsConfig)...)
	gp, err := goka.NewProcessor(seedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{opPrefix: p.opPrefix, gp: gp}
	return &p, nil
}

func (p *CategoryNormalizerProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *CategoryNormalizerProcessor) Close() {
	p.proc.close()
}

func (p *CategoryNormalizerProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"

	v, ok := msg.(schema.ProductV1)
	if !ok {
		return
	}
	log := slog.With("op", makeOp(p.opPrefix, op), "productID", v.ProductID)

	prev, _ := ctx.Value().(schema.ProductV1)
	out, err := normalizeProduct(v, prev)
	if err != nil {
		log.Warn("product dropped", "err", err)
		return
	}
	if out == nil {
		log.Debug("product is unchanged")
		return
	}

	ctx.SetValue(*out)
	ctx.Emit(p.outputStream, out.ProductID, *out)
	log.Info("product normalized", "category", out.Category)
}

// normalizeProduct returns v with the canonical category, or nil when it
// equals prev after normalization.
func normalizeProduct(v, prev schema.ProductV1) (*schema.ProductV1, error) {
	category, err := domain.ParseCategory(v.Category)
	if err != nil {
		return nil, err
	}
	v.Category = string(category)
	if v == prev {
		return nil, nil
	}
	return &v, nil
}
