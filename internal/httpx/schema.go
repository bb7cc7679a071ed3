package httpx

import (
	"fmt"
	"strings"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

const schemaItems = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["variant_id", "quantity"],
    "properties": {
      "variant_id": { "type": "string", "format": "uuid" },
      "quantity": { "type": "integer", "minimum": 1, "maximum": 2147483647 }
    },
    "additionalProperties": false
  }
}`

const schemaAddress = `{
  "type": "object",
  "required": ["line1", "province"],
  "properties": {
    "full_name": { "type": "string" },
    "phone": { "type": "string" },
    "line1": { "type": "string", "minLength": 1 },
    "ward": { "type": "string" },
    "district": { "type": "string" },
    "province": { "type": "string", "minLength": 1 }
  },
  "additionalProperties": false
}`

var schemaCreateOrder = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items", "shipping_address", "payment_method"],
  "properties": {
    "items": ` + schemaItems + `,
    "shipping_address": ` + schemaAddress + `,
    "payment_method": { "type": "string", "enum": ["cod", "bank_transfer", "card"] },
    "voucher_code": { "type": "string" }
  },
  "additionalProperties": false
}`

var schemaQuote = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items", "shipping_address"],
  "properties": {
    "items": ` + schemaItems + `,
    "shipping_address": ` + schemaAddress + `,
    "voucher_code": { "type": "string" }
  },
  "additionalProperties": false
}`

const schemaChangeStatus = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": { "type": "string", "minLength": 1 },
    "reason": { "type": "string", "maxLength": 500 }
  },
  "additionalProperties": false
}`

var (
	createOrderSchema  = mustSchema(schemaCreateOrder)
	quoteSchema        = mustSchema(schemaQuote)
	changeStatusSchema = mustSchema(schemaChangeStatus)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("gojsonschema.NewSchema: %v", err))
	}
	return schema
}

// validateJSONSchema reports schema violations as a domain validation error.
func validateJSONSchema(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("malformed json: %v", err))
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.ValidationError("request does not conform to schema: " + strings.Join(msgs, "; "))
	}

	return nil
}
