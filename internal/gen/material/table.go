package material

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	// MaxID is the largest block type id a token may carry.
	MaxID = 255
	// MaxData is the largest auxiliary data value a token may carry.
	MaxData = 15
)

//go:embed materials.json
var defaultCatalog []byte

type Def struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Solid  bool   `json:"solid"`
	Liquid bool   `json:"liquid"`
}

// Table is the name<->id catalog. It is read-only once loaded and safe to
// share between worlds and generator goroutines.
type Table struct {
	Names  []string
	Index  map[string]int
	Defs   map[int]Def
	Digest string
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the embedded classic block catalog.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := parseTable("materials.json", defaultCatalog)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadTable reads a catalog in the same shape as the embedded one.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTable(path, raw)
}

func parseTable(name string, raw []byte) (*Table, error) {
	var defs []Def
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	t := &Table{
		Index: make(map[string]int, len(defs)),
		Defs:  make(map[int]Def, len(defs)),
	}
	maxID := -1
	for _, d := range defs {
		d.Name = strings.ToUpper(strings.TrimSpace(d.Name))
		if d.Name == "" {
			return nil, fmt.Errorf("%s: empty name for id %d", name, d.ID)
		}
		if strings.Contains(d.Name, ".") {
			return nil, fmt.Errorf("%s: name %q may not contain a data separator", name, d.Name)
		}
		if _, err := strconv.Atoi(d.Name); err == nil {
			return nil, fmt.Errorf("%s: name %q would read as a block id", name, d.Name)
		}
		if d.ID < 0 || d.ID > MaxID {
			return nil, fmt.Errorf("%s: id out of range: %d", name, d.ID)
		}
		if _, dup := t.Index[d.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate name %s", name, d.Name)
		}
		if _, dup := t.Defs[d.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate id %d", name, d.ID)
		}
		t.Index[d.Name] = d.ID
		t.Defs[d.ID] = d
		if d.ID > maxID {
			maxID = d.ID
		}
	}
	// Ensure AIR exists and is id 0.
	if id, ok := t.Index["AIR"]; !ok || id != 0 {
		return nil, fmt.Errorf("%s: AIR must be id 0", name)
	}
	t.Names = make([]string, maxID+1)
	for id, d := range t.Defs {
		t.Names[id] = d.Name
	}
	sum := sha256.Sum256(raw)
	t.Digest = hex.EncodeToString(sum[:])
	return t, nil
}

// Name returns the canonical name for id, or "" when the id is unnamed.
func (t *Table) Name(id int) string {
	if id < 0 || id >= len(t.Names) {
		return ""
	}
	return t.Names[id]
}

// Lookup resolves a name case-insensitively.
func (t *Table) Lookup(name string) (int, bool) {
	id, ok := t.Index[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

func (t *Table) IsSolid(id int) bool {
	return t.Defs[id].Solid
}

func (t *Table) IsLiquid(id int) bool {
	return t.Defs[id].Liquid
}
