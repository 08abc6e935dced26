package resource

import (
	"fmt"
	"strconv"
	"strings"

	"terraincontrol.ai/internal/gen/material"
	"terraincontrol.ai/internal/gen/rng"
)

// GetInt parses a number and clamps it into [min,max]. Only a token that is
// not a number at all is an error.
func GetInt(s string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: incorrect number %q", ErrInvalidArguments, s)
	}
	if n < min {
		return min, nil
	}
	if n > max {
		return max, nil
	}
	return n, nil
}

func AssureSize(size int, args []string) error {
	if len(args) < size {
		return fmt.Errorf("%w: too few arguments supplied, want at least %d got %d", ErrInvalidArguments, size, len(args))
	}
	return nil
}

func ParseMaterial(mats *material.Table, token string) (material.Material, error) {
	m, err := mats.Decode(token)
	if err != nil {
		return m, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return m, nil
}

// ParseMaterials decodes a list of block tokens to their ids. Data values
// are dropped; source blocks match on id only.
func ParseMaterials(mats *material.Table, tokens []string) ([]int, error) {
	ids := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		m, err := ParseMaterial(mats, tok)
		if err != nil {
			return nil, err
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ParseLine splits `Name(a,b,c)` into the name and trimmed arguments.
// `Name()` yields no arguments.
func ParseLine(line string) (string, []string, error) {
	s := strings.TrimSpace(line)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	name := strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]
	if name == "" || strings.ContainsAny(inner, "()") {
		return "", nil, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	if strings.TrimSpace(inner) == "" {
		return name, nil, nil
	}
	args := strings.Split(inner, ",")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return name, args, nil
}

// Format is the inverse of ParseLine.
func Format(name string, args ...string) string {
	return name + "(" + strings.Join(args, ",") + ")"
}

func encodeIDs(mats *material.Table, ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = mats.Encode(id, 0)
	}
	return out
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// numberInRange draws from [min,max). An empty range skips the draw.
func numberInRange(r rng.Random, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min)
}

func orDefault(t *material.Table) *material.Table {
	if t == nil {
		return material.Default()
	}
	return t
}
