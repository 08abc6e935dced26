package customobject

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"terraincontrol.ai/internal/gen/material"
)

// BO2Loader reads the two-section text format:
//
//	[META]
//	spawnOnBlockType=GRASS,DIRT
//	rarity=20
//	[DATA]
//	0,0,0:LOG
//	0,1,0:LEAVES.2
//
// Unknown META keys are ignored so files written for other generators still
// load.
type BO2Loader struct {
	Materials *material.Table
}

func (l BO2Loader) Load(file string, r io.Reader) (CustomObject, error) {
	mats := l.Materials
	if mats == nil {
		mats = material.Default()
	}
	s := newStructure(ObjectName(file))
	s.lava = lavaIDs(mats)

	section := ""
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
			section = strings.ToUpper(text[1 : len(text)-1])
			continue
		}
		var err error
		switch section {
		case "META":
			err = s.setMeta(mats, text)
		case "DATA":
			err = s.addData(mats, text)
		default:
			err = fmt.Errorf("content outside a section")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(s.Blocks) == 0 {
		return nil, fmt.Errorf("no blocks in [DATA]")
	}
	return s, nil
}

func (s *Structure) setMeta(mats *material.Table, text string) error {
	key, val, ok := strings.Cut(text, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", text)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	val = strings.TrimSpace(val)

	atoi := func() (int, error) {
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s: incorrect number %q", key, val)
		}
		return n, nil
	}
	var err error
	switch key {
	case "spawnonblocktype":
		s.SpawnOn = s.SpawnOn[:0]
		for _, tok := range strings.Split(val, ",") {
			if strings.TrimSpace(tok) == "" {
				continue
			}
			m, derr := mats.Decode(tok)
			if derr != nil {
				return derr
			}
			s.SpawnOn = append(s.SpawnOn, m.ID)
		}
	case "rarity":
		s.Rarity, err = atoi()
		s.Rarity = clampInt(s.Rarity, 0, 100)
	case "frequency":
		s.Frequency, err = atoi()
		s.Frequency = clampInt(s.Frequency, 0, 100)
	case "spawnelevationmin":
		s.MinY, err = atoi()
	case "spawnelevationmax":
		s.MaxY, err = atoi()
	case "dig":
		s.Dig = parseBool(val)
	case "needsfoundation":
		s.NeedsFoundation = parseBool(val)
	case "randomrotation":
		s.RandomRotation = parseBool(val)
	case "spawnwater":
		s.SpawnWater = parseBool(val)
	case "spawnlava":
		s.SpawnLava = parseBool(val)
	case "tree":
		s.Tree = parseBool(val)
	}
	return err
}

func (s *Structure) addData(mats *material.Table, text string) error {
	coords, mat, ok := strings.Cut(text, ":")
	if !ok {
		return fmt.Errorf("expected x,y,z:material, got %q", text)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected three coordinates, got %q", coords)
	}
	var xyz [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("incorrect coordinate %q", p)
		}
		xyz[i] = n
	}
	m, err := mats.Decode(mat)
	if err != nil {
		return err
	}
	s.Blocks = append(s.Blocks, Block{X: xyz[0], Y: xyz[1], Z: xyz[2], Material: m})
	return nil
}

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(strings.ToLower(v))
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
