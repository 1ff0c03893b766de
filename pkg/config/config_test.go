package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relief.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load("../../relief.toml")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout.Duration)
	assert.Equal(t, 50, cfg.Network.MaxCities)
	assert.Equal(t, "allocation_logs.txt", cfg.Audit.File)
	require.Len(t, cfg.Seed.Cities, 7)
	require.Len(t, cfg.Seed.Roads, 10)
	assert.Equal(t, SeedCity{Name: "Mumbai", Population: 12500000, Damage: 8, Resources: 500, Lat: 19.0760, Lon: 72.8777}, cfg.Seed.Cities[0])
	assert.Equal(t, SeedRoad{From: "Thane", To: "Nashik", DistanceKm: 145}, cfg.Seed.Roads[9])
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeFile(t, `
[server]
addr = "127.0.0.1:9000"

[network]
queue_capacity = 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, def.Server.ReadTimeout, cfg.Server.ReadTimeout)
	assert.Equal(t, 10, cfg.Network.QueueCapacity)
	assert.Equal(t, def.Network.MaxCities, cfg.Network.MaxCities)
	assert.Equal(t, def.Network.DamageThreshold, cfg.Network.DamageThreshold)
	assert.Equal(t, def.Log, cfg.Log)
	assert.Empty(t, cfg.Seed.Cities)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, `
[network]
max_citys = 10
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_citys")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeFile(t, `
[server]
read_timeout = "soon"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero cities", func(c *Config) { c.Network.MaxCities = 0 }, "max_cities"},
		{"negative roads", func(c *Config) { c.Network.MaxRoads = -1 }, "max_roads"},
		{"zero queue", func(c *Config) { c.Network.QueueCapacity = 0 }, "queue_capacity"},
		{"zero buckets", func(c *Config) { c.Network.LedgerBuckets = 0 }, "ledger_buckets"},
		{"threshold too high", func(c *Config) { c.Network.DamageThreshold = 11 }, "damage_threshold"},
		{"mysql without database", func(c *Config) { c.Audit.MySQL.Enabled = true }, "audit.mysql.database"},
		{"redis without key", func(c *Config) { c.Audit.Redis.Enabled = true; c.Audit.Redis.Key = "" }, "audit.redis.key"},
		{"seed too large", func(c *Config) {
			c.Network.MaxCities = 1
			c.Seed.Cities = []SeedCity{{Name: "a"}, {Name: "b"}}
		}, "seed has 2 cities"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestWriteSeed(t *testing.T) {
	seed := Seed{
		OSMFile: "maharashtra.osm.pbf",
		Cities: []SeedCity{
			{Name: "Pune", Population: 3200000, Damage: 2, Resources: 1200, Lat: 18.5204, Lon: 73.8567},
			{Name: "Kolhapur", Population: 550000, Resources: 900, Lat: 16.705, Lon: 74.2433},
		},
		Roads: []SeedRoad{{From: "Pune", To: "Kolhapur", DistanceKm: 230}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSeed(&buf, seed))
	assert.Contains(t, buf.String(), "[[seed.cities]]")
	assert.Contains(t, buf.String(), "[[seed.roads]]")

	var back Config
	_, err := toml.Decode(buf.String(), &back)
	require.NoError(t, err)
	assert.Equal(t, seed, back.Seed)
}
