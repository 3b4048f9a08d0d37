package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/pcbuild/config"
	"github.com/niksmo/pcbuild/internal/adapter"
	"github.com/niksmo/pcbuild/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	deletePolicy      = "delete"
	compactPolicy     = "compact"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()

	cl := createClient(cfg.Broker)
	defer cl.Close()

	topics := cfg.Broker.Topics
	normalizerTable := toGroupTable(cfg.Broker.Consumers.NormalizerGroup)

	printStart(topics.ProductsFromShop, topics.ProductsNormalized, topics.Builds, normalizerTable)
	defer printComplete(time.Now())

	// regular topics
	err := makeTopics(
		sigCtx, cl, deletePolicy,
		topics.ProductsFromShop,
		topics.ProductsNormalized,
		topics.Builds,
	)
	if err != nil {
		printFail(err)
		return
	}

	// group table topics
	err = makeTopics(sigCtx, cl, compactPolicy, normalizerTable)
	if err != nil {
		printFail(err)
		return
	}
}

func createClient(broker config.Broker) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(broker.SeedBrokers...)}
	if broker.TLS.Enabled {
		tlsConfig, err := adapter.MakeTLSConfig(broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key)
		if err != nil {
			panic(err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopics(
	ctx context.Context, cl *kadm.Client, cleanupPolicy string, topics ...string,
) error {
	var (
		minISR = "1"
	)

	config := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	responses, err := cl.CreateTopics(
		ctx,
		partitions,
		replicationFactor,
		config,
		topics...,
	)

	if err != nil {
		return err
	}

	var errs []error
	for _, res := range responses.Sorted() {
		err := res.Err
		if err != nil {
			if errors.Is(res.Err, kerr.TopicAlreadyExists) {
				fmt.Printf("topic: %q already exists\n", res.Topic)
			} else {
				errs = append(errs, err)
			}
			continue
		}
		fmt.Printf("topic: %q successfully created\n", res.Topic)
	}

	return errors.Join(errs...)
}

func printStart(topics ...string) {
	fmt.Println("initializing topics...")
	for _, t := range topics {
		fmt.Printf("\t- %q\n", t)
	}
	fmt.Println()
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

// toGroupTable names the goka group table topic of group.
func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
