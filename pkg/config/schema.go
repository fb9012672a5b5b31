package config

import (
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/marmos91/xptkit/internal/bytesize"
)

// Schema returns the JSON schema of the configuration file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
		Mapper:                    schemaMapper,
	}

	schema := reflector.Reflect(&Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "xpt Configuration"
	schema.Description = "Configuration schema for the xpt command line tool"
	return schema
}

// schemaMapper describes sizes as either a byte count or a string with a unit.
func schemaMapper(t reflect.Type) *jsonschema.Schema {
	if t != reflect.TypeOf(bytesize.ByteSize(0)) {
		return nil
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: "0"},
			{Type: "string", Pattern: `^\s*\d+(\.\d+)?\s*([KkMmGg]i?[Bb]?|[Bb])?\s*$`},
		},
		Description: "Size in bytes, e.g. 65536, 64Ki or 4Mi",
	}
}
