package schema

import "github.com/hamba/avro/v2"

// Prices travel as decimal strings so no precision is lost on the wire.
const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "pcbuild.products",
	"name": "product",
	"fields" : [
		{"name": "product_id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "model_no", "type": "string", "default": ""},
		{"name": "brand", "type": "string", "default": ""},
		{"name": "category", "type": "string"},
		{"name": "description", "type": "string", "default": ""},
		{"name": "price", "type": "string"},
		{"name": "discount_price", "type": "string", "default": "0"},
		{"name": "on_discount", "type": "boolean", "default": false},
		{"name": "stock", "type": "long"}
	]
}`

type ProductV1 struct {
	ProductID     string `avro:"product_id"`
	Name          string `avro:"name"`
	ModelNo       string `avro:"model_no"`
	Brand         string `avro:"brand"`
	Category      string `avro:"category"`
	Description   string `avro:"description"`
	Price         string `avro:"price"`
	DiscountPrice string `avro:"discount_price"`
	OnDiscount    bool   `avro:"on_discount"`
	Stock         int    `avro:"stock"`
}

func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}
