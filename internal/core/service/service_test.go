package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/niksmo/pcbuild/internal/core/builder"
	"github.com/niksmo/pcbuild/internal/core/configurator"
	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductsProducer struct {
	mock.Mock
}

func (m *MockProductsProducer) ProduceProducts(ctx context.Context, ps []domain.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

type MockProductsStorage struct {
	mock.Mock
}

func (m *MockProductsStorage) StoreProducts(ctx context.Context, ps []domain.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]domain.Product)
	return ps, args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCache) Purge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockBuildPublisher struct {
	mock.Mock
}

func (m *MockBuildPublisher) PublishBuild(ctx context.Context, b domain.Build) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Run(ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup) {
	defer wg.Done()
	m.Called(ctx, stopFn, wg)
}

func (m *MockProcessor) Close() {
	m.Called()
}

// mapCache is a working cache for tests that follow hits and misses.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Purge(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	return nil
}

func product(id string, c domain.Category, price int64) domain.Product {
	return domain.Product{
		ProductID: id,
		Name:      id,
		Category:  c,
		Price:     decimal.NewFromInt(price),
		Stock:     2,
	}
}

func catalog() []domain.Product {
	return []domain.Product{
		product("cpu-1", domain.CategoryProcessor, 7000),
		product("cpu-2", domain.CategoryProcessor, 20000),
		product("mb-1", domain.CategoryMotherboard, 6000),
		product("gpu-1", domain.CategoryGraphicsCard, 14000),
		product("ram-1", domain.CategoryRAM, 3000),
	}
}

type deps struct {
	producer  *MockProductsProducer
	storage   *MockProductsStorage
	catalog   *MockCatalog
	publisher *MockBuildPublisher
}

func newService(cache *mapCache) (Service, deps) {
	d := deps{
		producer:  new(MockProductsProducer),
		storage:   new(MockProductsStorage),
		catalog:   new(MockCatalog),
		publisher: new(MockBuildPublisher),
	}
	s := New(
		d.producer, d.storage, d.catalog, cache, d.publisher, nil,
		configurator.Default(),
	)
	return s, d
}

func TestSendProducts(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		s, d := newService(newMapCache())
		ps := catalog()
		d.producer.On("ProduceProducts", t.Context(), ps).Return(nil)

		require.NoError(t, s.SendProducts(t.Context(), ps))
		d.producer.AssertExpectations(t)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s, d := newService(newMapCache())
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := s.SendProducts(ctx, catalog())
		assert.ErrorIs(t, err, context.Canceled)
		d.producer.AssertNotCalled(t, "ProduceProducts", mock.Anything, mock.Anything)
	})

	t.Run("ProducerError", func(t *testing.T) {
		s, d := newService(newMapCache())
		errBroker := errors.New("broker is down")
		d.producer.On("ProduceProducts", mock.Anything, mock.Anything).Return(errBroker)

		err := s.SendProducts(t.Context(), catalog())
		assert.ErrorIs(t, err, errBroker)
	})
}

func TestSaveProducts(t *testing.T) {
	t.Run("StoresAndPurges", func(t *testing.T) {
		d := deps{
			storage: new(MockProductsStorage),
			catalog: new(MockCatalog),
		}
		cache := new(MockCache)
		s := New(nil, d.storage, d.catalog, cache, nil, nil, configurator.Default())

		ps := catalog()
		d.storage.On("StoreProducts", t.Context(), ps).Return(nil).Once()
		cache.On("Purge", t.Context()).Return(nil).Once()

		require.NoError(t, s.SaveProducts(t.Context(), ps))
		d.storage.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("StorageError", func(t *testing.T) {
		storage := new(MockProductsStorage)
		cache := new(MockCache)
		s := New(nil, storage, nil, cache, nil, nil, configurator.Default())

		errDB := errors.New("connection refused")
		storage.On("StoreProducts", mock.Anything, mock.Anything).Return(errDB)

		err := s.SaveProducts(t.Context(), catalog())
		assert.ErrorIs(t, err, errDB)
		cache.AssertNotCalled(t, "Purge", mock.Anything)
	})

	t.Run("PurgeErrorIsNotFatal", func(t *testing.T) {
		storage := new(MockProductsStorage)
		cache := new(MockCache)
		s := New(nil, storage, nil, cache, nil, nil, configurator.Default())

		storage.On("StoreProducts", mock.Anything, mock.Anything).Return(nil)
		cache.On("Purge", mock.Anything).Return(errors.New("redis timeout"))

		assert.NoError(t, s.SaveProducts(t.Context(), catalog()))
	})
}

func TestPresetConfigurations(t *testing.T) {
	t.Run("CachedByCatalog", func(t *testing.T) {
		cache := newMapCache()
		s, d := newService(cache)
		d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)

		first, err := s.PresetConfigurations(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets)

		second, err := s.PresetConfigurations(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets)

		for _, pcType := range domain.PCTypes() {
			for _, tier := range domain.Tiers() {
				a, _ := first.Get(pcType, tier)
				b, ok := second.Get(pcType, tier)
				require.True(t, ok)
				assert.Equal(t, a.ProductIDs(), b.ProductIDs())
				assert.True(t, a.TotalPrice.Equal(b.TotalPrice))
			}
		}
	})

	t.Run("RecomputedAfterSave", func(t *testing.T) {
		cache := newMapCache()
		s, d := newService(cache)
		d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil).Once()
		d.storage.On("StoreProducts", mock.Anything, mock.Anything).Return(nil)

		_, err := s.PresetConfigurations(t.Context())
		require.NoError(t, err)

		updated := append(catalog(), product("cpu-3", domain.CategoryProcessor, 7400))
		require.NoError(t, s.SaveProducts(t.Context(), updated[len(updated)-1:]))
		assert.Empty(t, cache.data)

		d.catalog.On("ListProducts", mock.Anything).Return(updated, nil).Once()
		cs, err := s.PresetConfigurations(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 2, cache.sets)

		cfg, _ := cs.Get(domain.PCTypeRegular, domain.TierBudget)
		assert.Equal(t, "cpu-3", cfg.Components[domain.SlotProcessor].ProductID)
	})

	t.Run("CacheErrorFallsBack", func(t *testing.T) {
		catalogMock := new(MockCatalog)
		cache := new(MockCache)
		s := New(nil, nil, catalogMock, cache, nil, nil, configurator.Default())

		catalogMock.On("ListProducts", mock.Anything).Return(catalog(), nil)
		cache.On("Get", mock.Anything, mock.Anything).Return(nil, false, errors.New("redis timeout"))
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		cs, err := s.PresetConfigurations(t.Context())
		require.NoError(t, err)
		assert.Len(t, cs, 3)
		cache.AssertCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CatalogError", func(t *testing.T) {
		s, d := newService(newMapCache())
		errDB := errors.New("connection refused")
		d.catalog.On("ListProducts", mock.Anything).Return(nil, errDB)

		_, err := s.PresetConfigurations(t.Context())
		assert.ErrorIs(t, err, errDB)
	})
}

func TestPresetsKey(t *testing.T) {
	ps := catalog()
	reversed := make([]domain.Product, 0, len(ps))
	for i := len(ps) - 1; i >= 0; i-- {
		reversed = append(reversed, ps[i])
	}
	assert.Equal(t, presetsKey(ps), presetsKey(reversed))

	changed := catalog()
	changed[0].Stock = 0
	assert.NotEqual(t, presetsKey(ps), presetsKey(changed))

	rebranded := catalog()
	rebranded[0].Brand = "AMD"
	assert.NotEqual(t, presetsKey(ps), presetsKey(rebranded))
	assert.Contains(t, presetsKey(ps), presetsKeyPrefix)
}

func TestCustomConfiguration(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		s, d := newService(newMapCache())
		d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)

		cfg, err := s.CustomConfiguration(t.Context(), decimal.NewFromInt(50000), domain.PCTypeGaming)
		require.NoError(t, err)

		_, err = uuid.Parse(cfg.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Custom Gaming Build", cfg.Name)
		assert.NotEmpty(t, cfg.Components)
	})

	t.Run("Unavailable", func(t *testing.T) {
		s, d := newService(newMapCache())
		d.catalog.On("ListProducts", mock.Anything).Return([]domain.Product{}, nil)

		_, err := s.CustomConfiguration(t.Context(), decimal.NewFromInt(50000), domain.PCTypeGaming)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("NonPositiveBudget", func(t *testing.T) {
		s, d := newService(newMapCache())
		d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)

		_, err := s.CustomConfiguration(t.Context(), decimal.Zero, domain.PCTypeRegular)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestComponents(t *testing.T) {
	s, d := newService(newMapCache())
	d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)

	ps, err := s.Components(t.Context(), domain.SlotProcessor, "")
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "cpu-1", ps[0].ProductID)

	_, err = s.Components(t.Context(), domain.Slot("tray"), "")
	assert.ErrorIs(t, err, domain.ErrUnknownSlot)
}

func TestSubmitBuild(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		s, d := newService(newMapCache())
		d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)
		d.publisher.On("PublishBuild", mock.Anything, mock.MatchedBy(func(b domain.Build) bool {
			return b.ID != "" && len(b.Components) == 3
		})).Return(nil).Once()

		b, err := s.SubmitBuild(t.Context(), map[domain.Slot]string{
			domain.SlotProcessor:    "cpu-1",
			domain.SlotMotherboard:  "mb-1",
			domain.SlotGraphicsCard: "gpu-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "27000", b.Total().String())
		assert.Equal(t, []string{"cpu-1", "mb-1", "gpu-1"}, b.ProductIDs())
		d.publisher.AssertExpectations(t)
	})

	tests := []struct {
		name      string
		selection map[domain.Slot]string
		want      error
	}{
		{
			name:      "ProductNotFound",
			selection: map[domain.Slot]string{domain.SlotProcessor: "cpu-404"},
			want:      ErrProductNotFound,
		},
		{
			name: "CategoryMismatch",
			selection: map[domain.Slot]string{
				domain.SlotProcessor:   "mb-1",
				domain.SlotMotherboard: "mb-1",
			},
			want: builder.ErrCategoryMismatch,
		},
		{
			name:      "Incomplete",
			selection: map[domain.Slot]string{domain.SlotProcessor: "cpu-1"},
			want:      builder.ErrIncompleteBuild,
		},
		{
			name:      "UnknownSlot",
			selection: map[domain.Slot]string{"tray": "cpu-1"},
			want:      domain.ErrUnknownSlot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newService(newMapCache())
			d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)

			_, err := s.SubmitBuild(t.Context(), tt.selection)
			assert.ErrorIs(t, err, tt.want)
			d.publisher.AssertNotCalled(t, "PublishBuild", mock.Anything, mock.Anything)
		})
	}

	t.Run("PublisherError", func(t *testing.T) {
		s, d := newService(newMapCache())
		d.catalog.On("ListProducts", mock.Anything).Return(catalog(), nil)
		errBroker := errors.New("broker is down")
		d.publisher.On("PublishBuild", mock.Anything, mock.Anything).Return(errBroker)

		_, err := s.SubmitBuild(t.Context(), map[domain.Slot]string{
			domain.SlotProcessor:   "cpu-1",
			domain.SlotMotherboard: "mb-1",
		})
		assert.ErrorIs(t, err, errBroker)
	})
}

func TestRunClose(t *testing.T) {
	proc := new(MockProcessor)
	s := New(nil, nil, nil, newMapCache(), nil, proc, configurator.Default())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	proc.On("Run", ctx, mock.Anything, mock.Anything).Return()
	proc.On("Close").Return()

	s.Run(ctx, cancel)
	s.Close()
	proc.AssertExpectations(t)
}
