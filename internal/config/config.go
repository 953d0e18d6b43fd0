package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/hexfleet/internal/board"
	"github.com/gravitas-games/hexfleet/internal/budget"
	"github.com/gravitas-games/hexfleet/internal/footprint"
)

// Config holds all server configuration
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	JWT        JWTConfig          `yaml:"jwt"`
	Redis      RedisConfig        `yaml:"redis"`
	Board      BoardConfig        `yaml:"board"`
	Budget     BudgetConfig       `yaml:"budget"`
	Footprints map[string][][]int `yaml:"footprints"` // shape -> direction walks
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
}

// BoardConfig holds board generation settings
type BoardConfig struct {
	Dimensions int      `yaml:"dimensions"` // rings around the center
	Boards     int      `yaml:"boards"`     // boards per session
	Shapes     []string `yaml:"shapes"`
}

// BudgetConfig holds per-board point settings
type BudgetConfig struct {
	Points int            `yaml:"points"`
	Step   int            `yaml:"step"`
	Costs  map[string]int `yaml:"costs"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.JWT.PublicKeyRefreshHrs == 0 {
		c.JWT.PublicKeyRefreshHrs = 24
	}
	if c.Redis.BlacklistPrefix == "" {
		c.Redis.BlacklistPrefix = "blacklist:"
	}
	if c.Board.Dimensions == 0 {
		c.Board.Dimensions = 5
	}
	if c.Board.Boards == 0 {
		c.Board.Boards = 2
	}
	if len(c.Board.Shapes) == 0 {
		for _, k := range board.DefaultShapeKinds {
			c.Board.Shapes = append(c.Board.Shapes, string(k))
		}
	}
	if c.Budget.Points == 0 {
		c.Budget.Points = budget.DefaultPoints
	}
	if c.Budget.Step == 0 {
		c.Budget.Step = budget.DefaultStep
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if c.Board.Dimensions < 1 {
		return fmt.Errorf("board.dimensions must be at least 1, got %d", c.Board.Dimensions)
	}
	if c.Board.Boards < 1 {
		return fmt.Errorf("board.boards must be at least 1, got %d", c.Board.Boards)
	}
	if c.Budget.Points < 0 {
		return errors.New("budget.points cannot be negative")
	}
	if _, err := c.ShapeKinds(); err != nil {
		return err
	}
	if _, err := c.NewBudget(); err != nil {
		return err
	}
	if _, err := c.NewRegistry(); err != nil {
		return fmt.Errorf("footprints: %w", err)
	}
	return nil
}

// ShapeKinds returns the configured shape kinds
func (c *Config) ShapeKinds() ([]board.ShapeKind, error) {
	kinds := make([]board.ShapeKind, 0, len(c.Board.Shapes))
	for _, name := range c.Board.Shapes {
		k, err := board.ParseShapeKind(name)
		if err != nil {
			return nil, fmt.Errorf("board.shapes: %w", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Costs returns the configured initial shape costs
func (c *Config) Costs() (map[board.ShapeKind]int, error) {
	costs := make(map[board.ShapeKind]int, len(c.Budget.Costs))
	for name, v := range c.Budget.Costs {
		k, err := board.ParseShapeKind(name)
		if err != nil {
			return nil, fmt.Errorf("budget.costs: %w", err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("budget.costs: %s must be positive", name)
		}
		costs[k] = v
	}
	return costs, nil
}

// FootprintPaths returns the configured footprint overrides
func (c *Config) FootprintPaths() (map[board.ShapeKind][]footprint.Path, error) {
	out := make(map[board.ShapeKind][]footprint.Path, len(c.Footprints))
	for name, raw := range c.Footprints {
		k, err := board.ParseShapeKind(name)
		if err != nil {
			return nil, fmt.Errorf("footprints: %w", err)
		}
		paths := make([]footprint.Path, len(raw))
		for i, p := range raw {
			paths[i] = footprint.Path(p)
		}
		out[k] = paths
	}
	return out, nil
}

// NewBudget creates a fresh budget from the configured values
func (c *Config) NewBudget() (*budget.Budget, error) {
	costs, err := c.Costs()
	if err != nil {
		return nil, err
	}
	return budget.New(c.Budget.Points, c.Budget.Step, costs)
}

// NewRegistry creates the footprint registry with configured overrides
func (c *Config) NewRegistry() (*footprint.Registry, error) {
	paths, err := c.FootprintPaths()
	if err != nil {
		return nil, err
	}
	return footprint.NewDefaultRegistry(paths)
}
