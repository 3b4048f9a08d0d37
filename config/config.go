package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "PCBUILD_CONFIG_FILE"

type consumers struct {
	NormalizerGroup    string `mapstructure:"normalizer_group"`
	ProductsSaverGroup string `mapstructure:"products_saver_group"`
}

type topics struct {
	ProductsFromShop   string `mapstructure:"products_from_shop"`
	ProductsNormalized string `mapstructure:"products_normalized"`
	Builds             string `mapstructure:"builds"`
}

type brokerTLS struct {
	Enabled bool   `mapstructure:"enabled"`
	CA      string `mapstructure:"ca"`
	Cert    string `mapstructure:"cert"`
	Key     string `mapstructure:"key"`
}

type Broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type cache struct {
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	SQLDB          string        `mapstructure:"sql_db"`
	PolicyFile     string        `mapstructure:"policy_file"`
	Cache          cache         `mapstructure:"cache"`
	Broker         Broker        `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := load(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

func load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(decodeHook()))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeHook lets log_level be written as "debug", "info" and so on.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8000")
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("broker.topics.products_from_shop", "products_from_shop")
	v.SetDefault("broker.topics.products_normalized", "products_normalized")
	v.SetDefault("broker.topics.builds", "builds")
	v.SetDefault("broker.consumers.normalizer_group", "category-normalizer-group")
	v.SetDefault("broker.consumers.products_saver_group", "products-saver-group")
}

func (c Config) validate() error {
	var errs []error
	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	}
	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers: required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls: required"))
	}
	if c.Broker.TLS.Enabled && c.Broker.TLS.CA == "" {
		errs = append(errs, errors.New("broker.tls.ca: required when tls is enabled"))
	}
	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	RequestTimeout=%q
	SQLDB=%q
	PolicyFile=%q

	Cache:
	RedisAddr=%q
	TTL=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ProductsFromShop=%q
		ProductsNormalized=%q
		Builds=%q
	Consumers:
		NormalizerGroup=%q
		ProductsSaverGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.RequestTimeout,
		c.SQLDB,
		c.PolicyFile,
		c.Cache.RedisAddr,
		c.Cache.TTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled,
		c.Broker.Topics.ProductsFromShop,
		c.Broker.Topics.ProductsNormalized,
		c.Broker.Topics.Builds,
		c.Broker.Consumers.NormalizerGroup,
		c.Broker.Consumers.ProductsSaverGroup,
	)
}
