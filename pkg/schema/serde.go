package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrEmptySubject = errors.New("subject is empty")
	ErrNoResolver   = errors.New("schema id resolver is not set")
)

// A Serde writes values in the registry wire format: a magic byte and
// the schema id, then the Avro body.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// Config binds a record to its registry subject.
type Config struct {
	Subject  string
	Resolver IDResolver
}

func (c Config) validate() error {
	var errs []error
	if c.Subject == "" {
		errs = append(errs, ErrEmptySubject)
	}
	if c.Resolver == nil {
		errs = append(errs, ErrNoResolver)
	}
	return errors.Join(errs...)
}

// record is an Avro value type together with its schema text.
type record struct {
	name   string
	text   string
	sample any
}

var (
	productRecord = record{"ProductV1", ProductSchemaTextV1, ProductV1{}}
	buildRecord   = record{"BuildV1", BuildSchemaTextV1, BuildV1{}}
)

func NewProductSerde(ctx context.Context, cfg Config) (Serde, error) {
	return newSerde(ctx, productRecord, cfg)
}

func NewBuildSerde(ctx context.Context, cfg Config) (Serde, error) {
	return newSerde(ctx, buildRecord, cfg)
}

func newSerde(ctx context.Context, r record, cfg Config) (Serde, error) {
	op := "newSerde(" + r.name + ")"

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	avroSchema, err := avro.Parse(r.text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := cfg.Resolver.ResolveID(ctx, cfg.Subject, r.text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := new(sr.Serde)
	s.Register(
		id,
		r.sample,
		sr.EncodeFn(func(v any) ([]byte, error) {
			return avro.Marshal(avroSchema, v)
		}),
		sr.DecodeFn(func(data []byte, v any) error {
			return avro.Unmarshal(avroSchema, data, v)
		}),
	)
	return s, nil
}
