package main

import (
	"context"
	"flag"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/api"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/audit"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/config"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/importer"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/logging"
	osmparser "github.com/Ashish-Rautela/Disaster-Managment/pkg/osm"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/relief"
)

func main() {
	configPath := flag.String("config", "relief.toml", "Path to TOML configuration")
	addr := flag.String("addr", "", "Listen address (overrides server.addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logFile, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	start := time.Now()
	ctx := context.Background()

	sink, err := openSinks(ctx, cfg.Audit)
	if err != nil {
		log.Fatalf("Failed to open audit sinks: %v", err)
	}

	seed := cfg.Seed
	if seed.OSMFile != "" && len(seed.Cities) == 0 {
		seed, err = importSeed(ctx, seed.OSMFile, cfg.Network.MaxCities)
		if err != nil {
			log.Fatalf("Failed to import %s: %v", cfg.Seed.OSMFile, err)
		}
	}

	svc, err := relief.NewFromSeed(cfg.Network, seed, sink)
	if err != nil {
		log.Fatalf("Failed to load seed network: %v", err)
	}
	defer svc.Close()

	st := svc.Stats()
	log.Infof("Ready in %s: %d cities, %d roads", time.Since(start).Round(time.Millisecond), st.Cities, st.Roads)

	srvCfg := api.DefaultConfig(cfg.Server.Addr)
	srvCfg.ReadTimeout = cfg.Server.ReadTimeout.Duration
	srvCfg.WriteTimeout = cfg.Server.WriteTimeout.Duration
	srvCfg.CORSOrigin = cfg.Server.CORSOrigin

	srv := api.NewServer(srvCfg, api.NewRouter(srvCfg, api.NewHandlers(svc)))
	if err := api.ListenAndServe(srv); err != nil {
		log.Errorf("Server stopped: %v", err)
		svc.Close()
		logFile.Close()
		os.Exit(1)
	}
}

// openSinks builds the audit fan-out from config. Every enabled backend must
// be reachable at startup.
func openSinks(ctx context.Context, cfg config.AuditConfig) (audit.Sink, error) {
	var sinks audit.MultiSink
	if cfg.File != "" {
		sinks = append(sinks, audit.NewFileSink(cfg.File))
		log.Infof("Auditing to file %s", cfg.File)
	}

	if cfg.MySQL.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := audit.OpenMySQL(pingCtx, audit.MySQLOptions{
			Addr:     cfg.MySQL.Addr,
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Database: cfg.MySQL.Database,
		})
		if err != nil {
			sinks.Close()
			return nil, err
		}
		ms, err := audit.NewMySQLSink(db, cfg.MySQL.Table)
		if err != nil {
			db.Close()
			sinks.Close()
			return nil, err
		}
		if err := ms.EnsureSchema(pingCtx); err != nil {
			ms.Close()
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, ms)
		log.Infof("Auditing to mysql %s/%s.%s", cfg.MySQL.Addr, cfg.MySQL.Database, cfg.MySQL.Table)
	}

	if cfg.Redis.Enabled {
		pool := audit.NewRedisPool(cfg.Redis.Addr)
		conn, err := pool.GetContext(ctx)
		if err == nil {
			_, err = conn.Do("PING")
			conn.Close()
		}
		if err != nil {
			pool.Close()
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, audit.NewRedisSink(pool, cfg.Redis.Key))
		log.Infof("Auditing to redis %s list %s", cfg.Redis.Addr, cfg.Redis.Key)
	}

	if len(sinks) == 0 {
		log.Warn("No audit sink configured; allocation records are discarded")
		return audit.Discard{}, nil
	}
	return sinks, nil
}

func importSeed(ctx context.Context, path string, maxCities int) (config.Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return config.Seed{}, err
	}
	defer f.Close()

	log.Infof("Importing road network from %s...", path)
	result, err := osmparser.Parse(ctx, f)
	if err != nil {
		return config.Seed{}, err
	}
	return importer.Import(ctx, result, importer.Options{MaxCities: maxCities})
}
