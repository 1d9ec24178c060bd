package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	imagecache "github.com/krisalay/image-cache"
	"github.com/krisalay/image-cache/api"
	"github.com/krisalay/image-cache/config"
	"github.com/krisalay/image-cache/eviction"
	"github.com/krisalay/image-cache/evictor"
	"github.com/krisalay/image-cache/expiration"
	"github.com/krisalay/image-cache/logging"
	"github.com/krisalay/image-cache/memory"
	"github.com/krisalay/image-cache/metrics"
	"github.com/krisalay/image-cache/mirror"
	"github.com/krisalay/image-cache/origin"
	"github.com/krisalay/image-cache/types"
	"github.com/krisalay/image-cache/writeback"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logging.New(os.Stderr, cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("image-cache exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- Metrics ----------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ---------------- Memory tier ----------------
	policy, err := eviction.ParsePolicyType(cfg.Cache.Eviction)
	if err != nil {
		return err
	}
	mem, err := memory.New(memory.Options{
		Shards:     cfg.Cache.Shards,
		MaxBytes:   cfg.Cache.MaxBytes,
		Eviction:   policy,
		Expiration: expiration.NewExpireAfterWrite(cfg.Cache.TTL),
		Metrics:    m,
	})
	if err != nil {
		return err
	}

	// ---------------- Mirror + Origin ----------------
	var mir types.Mirror
	if cfg.Mirror.Enabled {
		fs := mirror.New(cfg.Mirror.Root)
		log.Info("mirror enabled", slog.String("root", fs.Root()))
		mir = fs
	}

	org, err := newOrigin(cfg.Origin)
	if err != nil {
		return err
	}

	// ---------------- Pipeline ----------------
	wb := writeback.New(writeback.Options{
		Workers: cfg.WriteBack.Workers,
		Queue:   cfg.WriteBack.Buffer,
		Timeout: cfg.WriteBack.Timeout,
		Logger:  log,
		Metrics: m,
	})
	defer wb.Close()

	pipeline, err := imagecache.New(imagecache.Options{
		Memory:            mem,
		Mirror:            mir,
		Origin:            org,
		WriteBack:         wb,
		DisableCoalescing: !cfg.Coalesce,
		Metrics:           m,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	ev := evictor.New(mem, evictor.Options{Interval: cfg.Cache.SweepInterval, Logger: log, Metrics: m})
	ev.Start(ctx)
	defer ev.Stop()

	// ---------------- HTTP ----------------
	handler := api.NewHandler(api.Options{
		Resolver:       pipeline,
		Logger:         log,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	})
	srv := api.NewServer(api.ServerOptions{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, handler)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}

	log.Info("image-cache starting",
		slog.String("origin", cfg.Origin.Kind),
		slog.Bool("mirror", cfg.Mirror.Enabled),
		slog.Bool("coalesce", cfg.Coalesce),
		slog.Int("shards", cfg.Cache.Shards),
		slog.Duration("ttl", cfg.Cache.TTL),
	)
	return api.Serve(ctx, srv, ln, cfg.Server.ShutdownTimeout, log)
}

func newOrigin(cfg config.Origin) (types.Origin, error) {
	if cfg.Kind == config.OriginS3 {
		return origin.NewS3(origin.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Prefix:    cfg.S3.Prefix,
			MaxBytes:  cfg.MaxBytes,
		})
	}
	return origin.NewHTTP(origin.HTTPOptions{
		BaseURL:  cfg.BaseURL,
		Token:    cfg.Token,
		Timeout:  cfg.Timeout,
		MaxBytes: cfg.MaxBytes,
	})
}
