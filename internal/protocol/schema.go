package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed generate.schema.json
var generateSchemaJSON string

var (
	generateOnce   sync.Once
	generateSchema *jsonschema.Schema
	generateErr    error
)

// DecodeGenerate validates b against the GENERATE schema and decodes it.
func DecodeGenerate(b []byte) (GenerateMsg, error) {
	var msg GenerateMsg
	generateOnce.Do(func() {
		generateSchema, generateErr = jsonschema.CompileString("generate.schema.json", generateSchemaJSON)
	})
	if generateErr != nil {
		return msg, generateErr
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return msg, err
	}
	if err := generateSchema.Validate(doc); err != nil {
		return msg, fmt.Errorf("GENERATE: %w", err)
	}
	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
