// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/drawings.db"`
	RoomLogCap    int           `env:"ROOM_LOG_CAP" envDefault:"1000"`
	RoomRetention time.Duration `env:"ROOM_RETENTION" envDefault:"24h"`
	SweepSchedule string        `env:"SWEEP_SCHEDULE" envDefault:"@hourly"`
	ArchiveBuffer int           `env:"ARCHIVE_BUFFER" envDefault:"1024"`
	MDNSEnable    bool          `env:"MDNS_ENABLE" envDefault:"true"`
	MDNSInstance  string        `env:"MDNS_INSTANCE" envDefault:"draw-together"`
}

// Load reads an optional .env file and parses the environment into a
// Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	log.Printf("[CONFIG] Port: %s", cfg.Port)
	log.Printf("[CONFIG] Room log cap: %d, retention: %s", cfg.RoomLogCap, cfg.RoomRetention)
	return cfg, nil
}
