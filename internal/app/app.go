package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/niksmo/pcbuild/config"
	"github.com/niksmo/pcbuild/internal/adapter"
	"github.com/niksmo/pcbuild/internal/adapter/cache"
	"github.com/niksmo/pcbuild/internal/adapter/httphandler"
	"github.com/niksmo/pcbuild/internal/adapter/kafka"
	"github.com/niksmo/pcbuild/internal/adapter/policyfile"
	"github.com/niksmo/pcbuild/internal/adapter/storage"
	"github.com/niksmo/pcbuild/internal/core/configurator"
	"github.com/niksmo/pcbuild/internal/core/port"
	"github.com/niksmo/pcbuild/internal/core/service"
	"github.com/niksmo/pcbuild/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	product schema.Serde
	build   schema.Serde
}

type producers struct {
	products kafka.ProductsProducer
	builds   kafka.BuildsProducer
}

type configurationCache interface {
	port.ConfigurationCache
	Close()
}

type App struct {
	ctx              context.Context
	cfg              config.Config
	tlsConfig        *tls.Config
	serdes           serdes
	producers        producers
	sqldb            storage.SQLDB
	cache            configurationCache
	engine           configurator.Engine
	service          service.Service
	productsConsumer kafka.ProductsConsumer
	httpServer       httphandler.Server
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initEngine()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	tlsCfg := app.cfg.Broker.TLS
	if !tlsCfg.Enabled {
		return
	}

	tlsConfig, err := adapter.MakeTLSConfig(tlsCfg.CA, tlsCfg.Cert, tlsCfg.Key)
	if err != nil {
		app.fallDown(op, err)
	}
	app.tlsConfig = tlsConfig
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	topics := app.cfg.Broker.Topics
	ctx := app.ctx

	srOpts := []sr.ClientOpt{sr.URLs(urls...)}
	if app.tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.tlsConfig))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	registrar := schema.NewRegistrar(srClient)

	productSerde, err := schema.NewProductSerde(ctx, schema.Config{
		Subject:  topics.ProductsFromShop + "-value",
		Resolver: registrar,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	buildSerde, err := schema.NewBuildSerde(ctx, schema.Config{
		Subject:  topics.Builds + "-value",
		Resolver: registrar,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.product = productSerde
	app.serdes.build = buildSerde
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics

	productsProducer, err := kafka.NewProductsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.ProductsFromShop, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.product),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	buildsProducer, err := kafka.NewBuildsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.Builds, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.build),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	sqldb, err := storage.NewSQLDB(ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	app.producers.products = productsProducer
	app.producers.builds = buildsProducer
	app.sqldb = sqldb
	app.initCache()
}

func (app *App) initCache() {
	const op = "App.initCache"

	cacheCfg := app.cfg.Cache
	if cacheCfg.RedisAddr == "" {
		slog.Info("using in-memory configuration cache", "op", op)
		app.cache = cache.NewMemoryCache(cacheCfg.TTL)
		return
	}

	redisCache, err := cache.NewRedisCache(app.ctx, cacheCfg.RedisAddr, cacheCfg.TTL)
	if err != nil {
		app.fallDown(op, err)
	}
	app.cache = redisCache
}

func (app *App) initEngine() {
	const op = "App.initEngine"

	policy := configurator.DefaultPolicy()
	if path := app.cfg.PolicyFile; path != "" {
		var err error
		policy, err = policyfile.Load(path, policy)
		if err != nil {
			app.fallDown(op, err)
		}
		slog.Info("policy loaded", "op", op, "path", path)
	}

	engine, err := configurator.New(policy)
	if err != nil {
		app.fallDown(op, err)
	}
	app.engine = engine
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	broker := app.cfg.Broker
	normalizer, err := kafka.NewCategoryNormalizerProc(
		broker.SeedBrokers,
		broker.Topics.ProductsFromShop,
		broker.Consumers.NormalizerGroup,
		broker.Topics.ProductsNormalized,
		app.serdes.product,
		app.tlsConfig,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	repository := storage.NewProductsRepository(app.sqldb)

	app.service = service.New(
		app.producers.products,
		repository,
		repository,
		app.cache,
		app.producers.builds,
		normalizer,
		app.engine,
	)
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	broker := app.cfg.Broker
	productsConsumer, err := kafka.NewProductsConsumer(
		kafka.ConsumerClientOpt(
			broker.SeedBrokers,
			broker.Topics.ProductsNormalized,
			broker.Consumers.ProductsSaverGroup,
			app.tlsConfig,
		),
		kafka.ConsumerDecoderOpt(app.serdes.product),
		kafka.ProductsConsumerSaverOpt(app.service),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.productsConsumer = productsConsumer

	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service)
	httphandler.RegisterConfigurations(mux, app.service)
	httphandler.RegisterComponents(mux, app.service)
	httphandler.RegisterBuilds(mux, app.service)

	handler := httphandler.LogRequests(httphandler.AllowJSON(mux))
	app.httpServer = httphandler.NewServer(
		app.cfg.HTTPServerAddr, handler, app.cfg.RequestTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	app.service.Run(app.ctx, stopFn)

	go app.productsConsumer.Run(app.ctx)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		app.productsConsumer.Close()
	}()
	go func() {
		defer wg.Done()
		app.service.Close()
	}()
	wg.Wait()

	app.producers.products.Close()
	app.producers.builds.Close()
	app.cache.Close()
	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
