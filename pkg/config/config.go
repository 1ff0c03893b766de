package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
	Network NetworkConfig `toml:"network"`
	Audit   AuditConfig   `toml:"audit"`
	Seed    Seed          `toml:"seed"`
}

type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	CORSOrigin   string   `toml:"cors_origin"`
}

type LogConfig struct {
	Dir        string `toml:"dir"`
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// NetworkConfig sizes the in-memory network, queue and ledger.
type NetworkConfig struct {
	MaxCities       int `toml:"max_cities"`
	MaxRoads        int `toml:"max_roads"` // 0 = unlimited
	QueueCapacity   int `toml:"queue_capacity"`
	LedgerBuckets   int `toml:"ledger_buckets"`
	DamageThreshold int `toml:"damage_threshold"`
}

type AuditConfig struct {
	File  string      `toml:"file"` // empty disables the text log
	MySQL MySQLConfig `toml:"mysql"`
	Redis RedisConfig `toml:"redis"`
}

type MySQLConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	Table    string `toml:"table"`
}

type RedisConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	Key     string `toml:"key"`
}

// Seed is the initial road network.
type Seed struct {
	OSMFile string     `toml:"osm_file,omitempty"`
	Cities  []SeedCity `toml:"cities"`
	Roads   []SeedRoad `toml:"roads"`
}

type SeedCity struct {
	Name       string  `toml:"name"`
	Population int     `toml:"population"`
	Damage     int     `toml:"damage"`
	Resources  int     `toml:"resources"`
	Lat        float64 `toml:"lat"`
	Lon        float64 `toml:"lon"`
}

// SeedRoad joins two seed cities by name.
type SeedRoad struct {
	From       string `toml:"from"`
	To         string `toml:"to"`
	DistanceKm int    `toml:"distance_km"`
}

// Duration decodes TOML strings such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{5 * time.Second},
			WriteTimeout: Duration{10 * time.Second},
			CORSOrigin:   "*",
		},
		Log: LogConfig{
			Dir:        "logs",
			File:       "relief.log",
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Network: NetworkConfig{
			MaxCities:       50,
			QueueCapacity:   1000,
			LedgerBuckets:   50,
			DamageThreshold: 6,
		},
		Audit: AuditConfig{
			File: "allocation_logs.txt",
			MySQL: MySQLConfig{
				Addr:  "127.0.0.1:3306",
				Table: "allocation_audit",
			},
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
				Key:  "relief:audit",
			},
		},
	}
}

// Load decodes the TOML file at path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	n := c.Network
	if n.MaxCities <= 0 {
		errs = append(errs, fmt.Errorf("network.max_cities must be positive, got %d", n.MaxCities))
	}
	if n.MaxRoads < 0 {
		errs = append(errs, fmt.Errorf("network.max_roads must not be negative, got %d", n.MaxRoads))
	}
	if n.QueueCapacity <= 0 {
		errs = append(errs, fmt.Errorf("network.queue_capacity must be positive, got %d", n.QueueCapacity))
	}
	if n.LedgerBuckets <= 0 {
		errs = append(errs, fmt.Errorf("network.ledger_buckets must be positive, got %d", n.LedgerBuckets))
	}
	if n.DamageThreshold < 0 || n.DamageThreshold > 10 {
		errs = append(errs, fmt.Errorf("network.damage_threshold must be within 0-10, got %d", n.DamageThreshold))
	}
	if c.Audit.MySQL.Enabled && c.Audit.MySQL.Database == "" {
		errs = append(errs, errors.New("audit.mysql.database is required when mysql is enabled"))
	}
	if c.Audit.Redis.Enabled && c.Audit.Redis.Key == "" {
		errs = append(errs, errors.New("audit.redis.key is required when redis is enabled"))
	}
	if len(c.Seed.Cities) > n.MaxCities && n.MaxCities > 0 {
		errs = append(errs, fmt.Errorf("seed has %d cities, network.max_cities is %d", len(c.Seed.Cities), n.MaxCities))
	}
	return errors.Join(errs...)
}

// WriteSeed encodes a seed as a [seed] TOML table.
func WriteSeed(w io.Writer, s Seed) error {
	wrapper := struct {
		Seed Seed `toml:"seed"`
	}{s}
	return toml.NewEncoder(w).Encode(wrapper)
}

// WriteSeedFile writes a seed to path, replacing any existing file.
func WriteSeedFile(path string, s Seed) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSeed(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
