package migration

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["material", "uses", "max_uses"],
	"properties": {
		"material": {"type": "string", "minLength": 1},
		"uses": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
		"max_uses": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
		"hidden": {"type": "boolean"}
	}
}`

var recordSchema = jsonschema.MustCompileString("legacy-record.schema.json", recordSchemaJSON)

// normalize turns a decoded YAML value into the plain JSON shape the
// validator expects
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type legacyRecord struct {
	Material string `json:"material"`
	Uses     int32  `json:"uses"`
	MaxUses  int32  `json:"max_uses"`
	Hidden   bool   `json:"hidden"`
}

// decodeRecord validates one legacy leaf and decodes it
func decodeRecord(v any) (legacyRecord, error) {
	doc, err := normalize(v)
	if err != nil {
		return legacyRecord{}, err
	}
	if err := recordSchema.Validate(doc); err != nil {
		return legacyRecord{}, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return legacyRecord{}, err
	}
	var rec legacyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return legacyRecord{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
