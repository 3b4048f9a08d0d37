package schema

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

// An IDResolver returns the registry id of an Avro schema text under subject.
type IDResolver interface {
	ResolveID(ctx context.Context, subject string, schemaText string) (int, error)
}

type RegistryClient interface {
	CreateSchema(ctx context.Context, subject string, s sr.Schema) (sr.SubjectSchema, error)
}

// A Registrar resolves ids by registering the schema. The registry hands back
// the existing id for a schema it already knows.
type Registrar struct {
	cl RegistryClient
}

func NewRegistrar(cl RegistryClient) Registrar {
	return Registrar{cl}
}

func (r Registrar) ResolveID(
	ctx context.Context, subject string, schemaText string,
) (int, error) {
	const op = "Registrar.ResolveID"

	ss, err := r.cl.CreateSchema(ctx, subject, sr.Schema{
		Type:   sr.TypeAvro,
		Schema: schemaText,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: subject %q: %w", op, subject, err)
	}
	return ss.ID, nil
}
