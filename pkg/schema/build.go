package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const BuildSchemaTextV1 = `{
	"type": "record",
	"namespace": "pcbuild.builds",
	"name": "build",
	"fields" : [
		{"name": "build_id", "type": "string"},
		{"name": "components", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "component",
				"fields": [
					{"name": "slot", "type": "string"},
					{"name": "product_id", "type": "string"},
					{"name": "name", "type": "string"},
					{"name": "price", "type": "string"}
				]
			}
		}},
		{"name": "total_price", "type": "string"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	BuildV1 struct {
		BuildID    string             `avro:"build_id"`
		Components []BuildComponentV1 `avro:"components"`
		TotalPrice string             `avro:"total_price"`
		CreatedAt  time.Time          `avro:"created_at"`
	}

	BuildComponentV1 struct {
		Slot      string `avro:"slot"`
		ProductID string `avro:"product_id"`
		Name      string `avro:"name"`
		Price     string `avro:"price"`
	}
)

func BuildV1Avro() avro.Schema {
	return avro.MustParse(BuildSchemaTextV1)
}
