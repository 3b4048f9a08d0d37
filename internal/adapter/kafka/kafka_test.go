package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type avroSerde struct {
	s avro.Schema
}

func (a avroSerde) Encode(v any) ([]byte, error) {
	return avro.Marshal(a.s, v)
}

func (a avroSerde) Decode(data []byte, v any) error {
	return avro.Unmarshal(a.s, data, v)
}

type MockProducerClient struct {
	mock.Mock
}

func (m *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	var res kgo.ProduceResults
	for _, r := range rs {
		res = append(res, kgo.ProduceResult{Record: r, Err: args.Error(0)})
	}
	return res
}

func (m *MockProducerClient) Close() {
	m.Called()
}

type MockConsumerClient struct {
	mock.Mock
}

func (m *MockConsumerClient) PollFetches(ctx context.Context) kgo.Fetches {
	args := m.Called(ctx)
	fs, _ := args.Get(0).(kgo.Fetches)
	return fs
}

func (m *MockConsumerClient) CommitUncommittedOffsets(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockConsumerClient) Close() {
	m.Called()
}

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SaveProducts(ctx context.Context, ps []domain.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

func clientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		opts.cl = cl
		return nil
	}
}

func testProduct(id string) domain.Product {
	return domain.Product{
		ProductID:     id,
		Name:          "Ryzen 5 7600",
		ModelNo:       "100-100001015BOX",
		Brand:         "AMD",
		Category:      domain.CategoryProcessor,
		Description:   "6 cores",
		Price:         decimal.RequireFromString("23990.50"),
		DiscountPrice: decimal.RequireFromString("21990"),
		OnDiscount:    true,
		Stock:         4,
	}
}

func fetchesOf(rs ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{
		Topics: []kgo.FetchTopic{{
			Topic:      "products_normalized",
			Partitions: []kgo.FetchPartition{{Records: rs}},
		}},
	}}
}

func TestProductSchemaMapping(t *testing.T) {
	v := testProduct("p-1")

	got, err := schemaV1ToProduct(productToSchemaV1(v))
	require.NoError(t, err)
	assert.Equal(t, v.ProductID, got.ProductID)
	assert.True(t, v.Price.Equal(got.Price))
	assert.True(t, v.DiscountPrice.Equal(got.DiscountPrice))
	assert.Equal(t, v.Stock, got.Stock)

	t.Run("EmptyDiscount", func(t *testing.T) {
		s := productToSchemaV1(v)
		s.DiscountPrice = ""
		got, err := schemaV1ToProduct(s)
		require.NoError(t, err)
		assert.True(t, got.DiscountPrice.IsZero())
	})

	t.Run("InvalidPrice", func(t *testing.T) {
		s := productToSchemaV1(v)
		s.Price = "cheap"
		_, err := schemaV1ToProduct(s)
		assert.ErrorContains(t, err, "price")
	})
}

func TestBuildToSchemaV1(t *testing.T) {
	b := domain.NewBuild()
	b.ID = "build-1"
	mb := testProduct("mb-1")
	mb.Category = domain.CategoryMotherboard
	mb.OnDiscount = false
	b.Components[domain.SlotMotherboard] = mb
	b.Components[domain.SlotProcessor] = testProduct("cpu-1")

	createdAt := time.UnixMilli(1760400000000).UTC()
	s := buildToSchemaV1(b, createdAt)

	assert.Equal(t, "build-1", s.BuildID)
	assert.Equal(t, createdAt, s.CreatedAt)
	assert.Equal(t, "45980.5", s.TotalPrice)
	require.Len(t, s.Components, 2)
	assert.Equal(t, "processor", s.Components[0].Slot)
	assert.Equal(t, "21990", s.Components[0].Price)
	assert.Equal(t, "motherboard", s.Components[1].Slot)
}

func TestProductsProducer(t *testing.T) {
	serde := avroSerde{schema.ProductV1Avro()}

	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewProductsProducer(ProducerEncoderOpt(serde))
		})
	})

	t.Run("NilEncoder", func(t *testing.T) {
		_, err := NewProductsProducer(clientOpt(new(MockProducerClient)), ProducerEncoderOpt(nil))
		assert.ErrorContains(t, err, "encoder is nil")
	})

	t.Run("Produce", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, mock.Anything).Return(nil)

		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(serde))
		require.NoError(t, err)

		err = p.ProduceProducts(t.Context(), []domain.Product{testProduct("p-1"), testProduct("p-2")})
		require.NoError(t, err)

		rs := cl.Calls[0].Arguments.Get(1).([]*kgo.Record)
		require.Len(t, rs, 2)
		assert.Equal(t, "p-1", string(rs[0].Key))

		var s schema.ProductV1
		require.NoError(t, serde.Decode(rs[1].Value, &s))
		assert.Equal(t, "p-2", s.ProductID)
		assert.Equal(t, "23990.5", s.Price)
	})

	t.Run("BrokerError", func(t *testing.T) {
		cl := new(MockProducerClient)
		errBroker := errors.New("not enough replicas")
		cl.On("ProduceSync", mock.Anything, mock.Anything).Return(errBroker)

		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(serde))
		require.NoError(t, err)

		err = p.ProduceProducts(t.Context(), []domain.Product{testProduct("p-1")})
		assert.ErrorIs(t, err, errBroker)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cl := new(MockProducerClient)
		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(serde))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		err = p.ProduceProducts(ctx, []domain.Product{testProduct("p-1")})
		assert.ErrorIs(t, err, context.Canceled)
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})

	t.Run("Close", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("Close").Return()
		p, err := NewProductsProducer(clientOpt(cl), ProducerEncoderOpt(serde))
		require.NoError(t, err)
		p.Close()
		cl.AssertExpectations(t)
	})
}

func TestBuildsProducer(t *testing.T) {
	serde := avroSerde{schema.BuildV1Avro()}

	cl := new(MockProducerClient)
	cl.On("ProduceSync", mock.Anything, mock.Anything).Return(nil)

	p, err := NewBuildsProducer(clientOpt(cl), ProducerEncoderOpt(serde))
	require.NoError(t, err)
	createdAt := time.UnixMilli(1760400000000).UTC()
	p.now = func() time.Time { return createdAt }

	b := domain.NewBuild()
	b.ID = "build-1"
	b.Components[domain.SlotProcessor] = testProduct("cpu-1")

	require.NoError(t, p.PublishBuild(t.Context(), b))

	rs := cl.Calls[0].Arguments.Get(1).([]*kgo.Record)
	require.Len(t, rs, 1)
	assert.Equal(t, "build-1", string(rs[0].Key))

	var s schema.BuildV1
	require.NoError(t, serde.Decode(rs[0].Value, &s))
	assert.Equal(t, "21990", s.TotalPrice)
	assert.True(t, createdAt.Equal(s.CreatedAt))
}

func TestProductsConsumer(t *testing.T) {
	serde := avroSerde{schema.ProductV1Avro()}

	record := func(v domain.Product) *kgo.Record {
		data, err := serde.Encode(productToSchemaV1(v))
		require.NoError(t, err)
		return &kgo.Record{Key: []byte(v.ProductID), Value: data}
	}

	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewProductsConsumer(ConsumerDecoderOpt(serde))
		})
	})

	t.Run("SavesAndCommits", func(t *testing.T) {
		cl := new(MockConsumerClient)
		saver := new(MockSaver)

		broken := &kgo.Record{Key: []byte("p-broken"), Value: []byte{0xff}}
		cl.On("PollFetches", mock.Anything).Return(
			fetchesOf(record(testProduct("p-1")), broken, record(testProduct("p-2"))),
		)
		cl.On("CommitUncommittedOffsets", mock.Anything).Return(nil)
		saver.On("SaveProducts", mock.Anything, mock.Anything).Return(nil)

		c, err := NewProductsConsumer(
			ConsumerClientInstanceOpt(cl),
			ConsumerDecoderOpt(serde),
			ProductsConsumerSaverOpt(saver),
		)
		require.NoError(t, err)

		require.NoError(t, c.consumer.consume(t.Context()))

		saved := saver.Calls[0].Arguments.Get(1).([]domain.Product)
		require.Len(t, saved, 2)
		assert.Equal(t, "p-1", saved[0].ProductID)
		assert.Equal(t, "p-2", saved[1].ProductID)
		cl.AssertExpectations(t)
	})

	t.Run("SaveErrorSkipsCommit", func(t *testing.T) {
		cl := new(MockConsumerClient)
		saver := new(MockSaver)
		errStorage := errors.New("database is down")

		cl.On("PollFetches", mock.Anything).Return(fetchesOf(record(testProduct("p-1"))))
		saver.On("SaveProducts", mock.Anything, mock.Anything).Return(errStorage)

		c, err := NewProductsConsumer(
			ConsumerClientInstanceOpt(cl),
			ConsumerDecoderOpt(serde),
			ProductsConsumerSaverOpt(saver),
		)
		require.NoError(t, err)

		err = c.consumer.consume(t.Context())
		assert.ErrorIs(t, err, errStorage)
		cl.AssertNotCalled(t, "CommitUncommittedOffsets", mock.Anything)
	})

	t.Run("EmptyPoll", func(t *testing.T) {
		cl := new(MockConsumerClient)
		saver := new(MockSaver)
		cl.On("PollFetches", mock.Anything).Return(kgo.Fetches{})

		c, err := NewProductsConsumer(
			ConsumerClientInstanceOpt(cl),
			ConsumerDecoderOpt(serde),
			ProductsConsumerSaverOpt(saver),
		)
		require.NoError(t, err)

		require.NoError(t, c.consumer.consume(t.Context()))
		saver.AssertNotCalled(t, "SaveProducts", mock.Anything, mock.Anything)
	})
}

func TestNormalizeProduct(t *testing.T) {
	raw := productToSchemaV1(testProduct("p-1"))
	raw.Category = "  cpu "

	t.Run("Canonical", func(t *testing.T) {
		out, err := normalizeProduct(raw, schema.ProductV1{})
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, "Processor", out.Category)
	})

	t.Run("Unchanged", func(t *testing.T) {
		prev := raw
		prev.Category = "Processor"
		out, err := normalizeProduct(raw, prev)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("PriceChanged", func(t *testing.T) {
		prev := raw
		prev.Category = "Processor"
		prev.Price = "1"
		out, err := normalizeProduct(raw, prev)
		require.NoError(t, err)
		assert.NotNil(t, out)
	})

	t.Run("Unknown", func(t *testing.T) {
		v := raw
		v.Category = "Toaster"
		_, err := normalizeProduct(v, schema.ProductV1{})
		assert.ErrorIs(t, err, domain.ErrUnknownCategory)
	})
}

func TestProductEventCodec(t *testing.T) {
	c := newProductEventCodec(avroSerde{schema.ProductV1Avro()})

	_, err := c.Encode("not a product")
	assert.ErrorIs(t, err, ErrInvalidValueType)

	v := productToSchemaV1(testProduct("p-1"))
	data, err := c.Encode(v)
	require.NoError(t, err)

	got, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}
