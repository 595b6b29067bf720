package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/censo-nomes/pkg/api"
	"github.com/hazyhaar/censo-nomes/pkg/chassis"
	"github.com/hazyhaar/censo-nomes/pkg/ibge"
	"github.com/hazyhaar/censo-nomes/pkg/localidades"
	"github.com/hazyhaar/censo-nomes/pkg/nomes"
)

type config struct {
	Addr string `yaml:"addr"`

	// Upstream IBGE endpoints. Overridable for tests and mirrors.
	NomesBase       string `yaml:"nomes_base"`
	LocalidadesBase string `yaml:"localidades_base"`
	PopulacaoURL    string `yaml:"populacao_url"`

	Retries     int    `yaml:"retries"`
	Backoff     string `yaml:"backoff"`
	Timeout     string `yaml:"timeout"`
	MemoTTL     string `yaml:"memo_ttl"`
	RequestGap  string `yaml:"request_gap"`
	CachePath   string `yaml:"cache_path"`
	CacheTTL    string `yaml:"cache_ttl"`
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: censo-nomes <command>\n\nCommands:\n  serve   Start the dashboard API server\n")
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := loadConfig(*cfgPath, logger)

	opts := ibge.Options{
		NamesBase:       cfg.NomesBase,
		LocalidadesBase: cfg.LocalidadesBase,
		PopulacaoURL:    cfg.PopulacaoURL,
		Retries:         cfg.Retries,
		Backoff:         duration(cfg.Backoff, logger),
		Timeout:         duration(cfg.Timeout, logger),
		MemoTTL:         duration(cfg.MemoTTL, logger),
		Logger:          logger,
	}

	// Optional SQLite response cache: survives restarts, so repeat
	// dashboard loads skip the upstream entirely.
	if cfg.CachePath != "" {
		rc, err := ibge.OpenRespCache(cfg.CachePath, duration(cfg.CacheTTL, logger), nil)
		if err != nil {
			logger.Error("open response cache", "path", cfg.CachePath, "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		opts.RespCache = rc
		logger.Info("response cache enabled", "path", cfg.CachePath)
	}

	client := ibge.NewClient(opts)
	resolver := localidades.New(client, localidades.Options{Logger: logger})
	svc := nomes.NewService(client, nomes.Options{
		Delay:  duration(cfg.RequestGap, logger),
		Logger: logger,
	})

	mcpSrv := server.NewMCPServer("censo-nomes", "1.0.0",
		server.WithToolCapabilities(false),
	)
	api.RegisterMCPTools(mcpSrv, svc, resolver, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", api.NewRouter(svc, resolver, logger))
	mux.Handle("/mcp", server.NewStreamableHTTPServer(mcpSrv))

	srv, err := chassis.New(chassis.Config{
		Addr:     cfg.Addr,
		CertFile: cfg.TLSCertFile,
		KeyFile:  cfg.TLSKeyFile,
		Handler:  mux,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("chassis init", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(shutdownCtx)
}

func loadConfig(path string, logger *slog.Logger) config {
	cfg := config{
		Addr:       ":8443",
		Retries:    3,
		Backoff:    "500ms",
		Timeout:    "30s",
		MemoTTL:    "30m",
		RequestGap: "100ms",
		CacheTTL:   "24h",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg
		}
		logger.Error("read config", "error", err)
		os.Exit(1)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logger.Error("parse config", "error", err)
		os.Exit(1)
	}
	return cfg
}

// duration parses a config duration, treating empty as zero so the
// client can apply its own default.
func duration(raw string, logger *slog.Logger) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Error("parse duration", "value", raw, "error", err)
		os.Exit(1)
	}
	return d
}
