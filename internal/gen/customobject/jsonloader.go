package customobject

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"terraincontrol.ai/internal/gen/material"
)

const objectSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["blocks"],
  "additionalProperties": false,
  "properties": {
    "rarity": {"type": "integer"},
    "frequency": {"type": "integer"},
    "spawn_on": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "min_y": {"type": "integer"},
    "max_y": {"type": "integer"},
    "dig": {"type": "boolean"},
    "needs_foundation": {"type": "boolean"},
    "random_rotation": {"type": "boolean"},
    "spawn_water": {"type": "boolean"},
    "spawn_lava": {"type": "boolean"},
    "tree": {"type": "boolean"},
    "blocks": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["pos", "block"],
        "additionalProperties": false,
        "properties": {
          "pos": {"type": "array", "items": {"type": "integer"}, "minItems": 3, "maxItems": 3},
          "block": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func structureSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("object.schema.json", objectSchema)
	})
	return compiledSchema, schemaErr
}

type jsonObject struct {
	Rarity          *int        `json:"rarity"`
	Frequency       *int        `json:"frequency"`
	SpawnOn         []string    `json:"spawn_on"`
	MinY            *int        `json:"min_y"`
	MaxY            *int        `json:"max_y"`
	Dig             *bool       `json:"dig"`
	NeedsFoundation *bool       `json:"needs_foundation"`
	RandomRotation  *bool       `json:"random_rotation"`
	SpawnWater      *bool       `json:"spawn_water"`
	SpawnLava       *bool       `json:"spawn_lava"`
	Tree            *bool       `json:"tree"`
	Blocks          []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	Pos   [3]int `json:"pos"`
	Block string `json:"block"`
}

// JSONLoader reads blueprint-style definitions. Documents are validated
// against the object schema before decoding.
type JSONLoader struct {
	Materials *material.Table
}

func (l JSONLoader) Load(file string, r io.Reader) (CustomObject, error) {
	mats := l.Materials
	if mats == nil {
		mats = material.Default()
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	schema, err := structureSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	var def jsonObject
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	s := newStructure(ObjectName(file))
	s.lava = lavaIDs(mats)
	if def.Rarity != nil {
		s.Rarity = clampInt(*def.Rarity, 0, 100)
	}
	if def.Frequency != nil {
		s.Frequency = clampInt(*def.Frequency, 0, 100)
	}
	if def.MinY != nil {
		s.MinY = *def.MinY
	}
	if def.MaxY != nil {
		s.MaxY = *def.MaxY
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	setBool(&s.Dig, def.Dig)
	setBool(&s.NeedsFoundation, def.NeedsFoundation)
	setBool(&s.RandomRotation, def.RandomRotation)
	setBool(&s.SpawnWater, def.SpawnWater)
	setBool(&s.SpawnLava, def.SpawnLava)
	setBool(&s.Tree, def.Tree)

	for _, tok := range def.SpawnOn {
		m, err := mats.Decode(tok)
		if err != nil {
			return nil, err
		}
		s.SpawnOn = append(s.SpawnOn, m.ID)
	}
	for _, b := range def.Blocks {
		m, err := mats.Decode(b.Block)
		if err != nil {
			return nil, err
		}
		s.Blocks = append(s.Blocks, Block{X: b.Pos[0], Y: b.Pos[1], Z: b.Pos[2], Material: m})
	}
	return s, nil
}
