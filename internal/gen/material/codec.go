package material

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidToken = errors.New("invalid material")

// Material is a decoded (block type, data) pair.
type Material struct {
	ID   int
	Data int
}

// String renders the numeric form, which every table decodes to the same
// pair. Use Table.EncodeMaterial for the named form.
func (m Material) String() string {
	s := strconv.Itoa(m.ID)
	if m.Data > 0 {
		s += "." + strconv.Itoa(m.Data)
	}
	return s
}

// Encode renders id/data as `NAME` or `NAME.data`. Unnamed ids are written
// as decimal numbers. The data suffix is omitted when data is zero.
func (t *Table) Encode(id, data int) string {
	s := t.Name(id)
	if s == "" {
		s = strconv.Itoa(id)
	}
	if data > 0 {
		s += "." + strconv.Itoa(data)
	}
	return s
}

// Decode parses `name` or `name.data`. Numeric parts are clamped into range;
// a part that is neither a known name nor a number is rejected.
func (t *Table) Decode(token string) (Material, error) {
	var m Material
	tok := strings.TrimSpace(token)
	left, right, hasData := strings.Cut(tok, ".")
	if left == "" {
		return m, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	if id, ok := t.Lookup(left); ok {
		m.ID = id
	} else {
		n, err := strconv.Atoi(left)
		if err != nil {
			return m, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		m.ID = clamp(n, 0, MaxID)
	}
	if hasData {
		n, err := strconv.Atoi(right)
		if err != nil {
			return m, fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
		m.Data = clamp(n, 0, MaxData)
	}
	return m, nil
}

// EncodeMaterial is Encode for a Material value.
func (t *Table) EncodeMaterial(m Material) string {
	return t.Encode(m.ID, m.Data)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
