package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"connect4-engine/internals/board"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server struct {
		Host string `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`
		Port int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	} `yaml:"server"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"connect4.db"`
	} `yaml:"database"`

	Game struct {
		BoardRows    int `yaml:"board_rows" env:"BOARD_ROWS" env-default:"6"`
		BoardColumns int `yaml:"board_columns" env:"BOARD_COLUMNS" env-default:"7"`
	} `yaml:"game"`

	// The tree holds up to columns^depth nodes; keep max_depth within memory.
	AI struct {
		Side     string `yaml:"side" env:"AI_SIDE" env-default:"red"`
		Depth    int    `yaml:"depth" env:"AI_DEPTH" env-default:"4"`
		MaxDepth int    `yaml:"max_depth" env:"AI_MAX_DEPTH" env-default:"6"`
		Workers  int    `yaml:"workers" env:"AI_WORKERS" env-default:"1"`
	} `yaml:"ai"`

	Matches struct {
		Workers   int    `yaml:"workers" env:"MATCH_WORKERS" env-default:"4"`
		CacheSize int    `yaml:"cache_size" env:"MATCH_CACHE_SIZE" env-default:"100"`
		MaxGames  int    `yaml:"max_games" env:"MATCH_MAX_GAMES" env-default:"20"`
		Seed      string `yaml:"seed" env:"MATCH_SEED" env-default:"connect4"`
	} `yaml:"matches"`
}

// Load reads the YAML file at path, applying env overrides and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Game.BoardRows < 1 || c.Game.BoardColumns < 1 {
		errs = append(errs, fmt.Errorf("board must be at least 1x1, got %dx%d", c.Game.BoardRows, c.Game.BoardColumns))
	}
	if _, err := board.ParseSide(c.AI.Side); err != nil {
		errs = append(errs, fmt.Errorf("ai.side: %w", err))
	}
	if c.AI.Depth < 0 || c.AI.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("ai depths must be non-negative"))
	}
	if c.AI.Depth > c.AI.MaxDepth {
		errs = append(errs, fmt.Errorf("ai.depth %d exceeds ai.max_depth %d", c.AI.Depth, c.AI.MaxDepth))
	}
	if c.Matches.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("matches.cache_size must be positive"))
	}
	if c.Matches.MaxGames < 1 {
		errs = append(errs, fmt.Errorf("matches.max_games must be positive"))
	}
	return errors.Join(errs...)
}

// AISide returns the validated ai.side.
func (c *Config) AISide() board.Side {
	side, _ := board.ParseSide(c.AI.Side)
	return side
}

// NewBoard returns an empty board of the configured size.
func (c *Config) NewBoard() board.Board {
	return board.New(c.Game.BoardRows, c.Game.BoardColumns)
}

func MustLoad() *Config {
	var configPath string
	configPath = os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configflag := flag.String("config", "", "Path to configuration file")
		flag.Parse()
		configPath = *configflag
		if configPath == "" {
			log.Fatal("Config Path is not set")
		}
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}
