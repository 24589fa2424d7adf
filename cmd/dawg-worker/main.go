package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EigenDog/dawg/feat"
	"github.com/EigenDog/dawg/types/ident"
	"github.com/EigenDog/dawg/worker"
	"github.com/EigenDog/dawg/worker/channel"
	"github.com/EigenDog/dawg/worker/taskstate"
)

var (
	configPath   = flag.String("c", "", "config file path")
	port         = flag.Int("p", 0, fmt.Sprintf("TCP port to advertise on (default %d)", channel.DefaultPort))
	dataDir      = flag.String("d", "", "feature store directory (default ./dawg-data)")
	identityPath = flag.String("i", "", "worker identity file (default <data dir>/identity.json)")
	verbose      = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	programLevel := new(slog.LevelVar) // Info by default
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
	slog.SetDefault(slog.New(h))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("worker: %s", err)
	}

	// Flags override the file.
	if *port != 0 {
		p, err := flagPort(*port)
		if err != nil {
			log.Fatalf("worker: %s", err)
		}
		cfg.Port = p
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *identityPath != "" {
		cfg.IdentityPath = *identityPath
	}
	cfg.setDefaults()

	if cfg.Debug || *verbose {
		programLevel.Set(slog.LevelDebug)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The identity file must exist before the service loop starts.
	id, err := ident.LoadOrCreate(cfg.IdentityPath)
	if err != nil {
		log.Fatalf("worker: could not load identity: %s", err)
	}

	store, err := feat.OpenStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("worker: %s", err)
	}

	ch, err := channel.Listen(fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		// Single-instance guard: the well-known port being taken means
		// another worker already runs on this host. Do not retry, do not
		// pick another port.
		log.Fatalf("worker: could not bind port %d (is another worker running on this host?): %s", cfg.Port, err)
	}

	go ch.Run(ctx)

	seed := cfg.SampleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	srv := worker.NewServer(ch, id, &taskstate.StateCommon{
		Store:      store,
		SampleSeed: seed,
		SampleFrac: cfg.SampleFrac,
	})

	slog.Info("worker: starting", "port", cfg.Port, "worker-id", id.WorkerID, "user", id.User)

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("worker: fatal: %s", err)
	}
}
