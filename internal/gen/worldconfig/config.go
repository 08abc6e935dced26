package worldconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"terraincontrol.ai/internal/gen/terrain"
)

type Config struct {
	Name             string `yaml:"name"`
	Seed             int64  `yaml:"seed"`
	Height           int    `yaml:"height"`
	SeaLevel         int    `yaml:"sea_level"`
	ObjectsDir       string `yaml:"objects_dir,omitempty"`
	GlobalObjectsDir string `yaml:"global_objects_dir,omitempty"`

	// Resources are configuration lines such as Ore(COAL_ORE,16,20,100,0,128,STONE).
	// A missing list means the default resources; an empty list means none.
	Resources []string `yaml:"resources"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("world.yaml: %w", err)
	}
	base := filepath.Dir(path)
	if cfg.ObjectsDir, err = resolveDir(base, cfg.ObjectsDir); err != nil {
		return cfg, fmt.Errorf("objects_dir: %w", err)
	}
	if cfg.GlobalObjectsDir, err = resolveDir(base, cfg.GlobalObjectsDir); err != nil {
		return cfg, fmt.Errorf("global_objects_dir: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("world.yaml: %w", err)
	}
	return cfg, nil
}

// resolveDir makes dir absolute, reading a relative dir against base.
func resolveDir(base, dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	return filepath.Abs(dir)
}

// relativeDir rewrites an absolute dir relative to base when possible.
func relativeDir(base, dir string) string {
	if dir == "" || !filepath.IsAbs(dir) {
		return dir
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		return dir
	}
	return filepath.ToSlash(rel)
}

func defaults() Config {
	return Config{
		Name:     "world",
		Seed:     0,
		Height:   128,
		SeaLevel: 63,
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = "world"
	}
	if c.Height <= 0 {
		c.Height = 128
	}
	if c.Height > terrain.WorldHeight {
		c.Height = terrain.WorldHeight
	}
	for i := range c.Resources {
		c.Resources[i] = strings.TrimSpace(c.Resources[i])
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(c.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", c.Name)
	}
	if c.Height <= 0 || c.Height > terrain.WorldHeight {
		return fmt.Errorf("height must be in (0, %d]", terrain.WorldHeight)
	}
	if c.SeaLevel < 0 || c.SeaLevel >= c.Height {
		return fmt.Errorf("sea_level must be in [0, height)")
	}
	for i, line := range c.Resources {
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("resources[%d] must not be empty", i)
		}
	}
	return nil
}
