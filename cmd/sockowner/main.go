// sockowner periodically attributes open network sockets to their owning
// processes using procfs introspection, and reports namespace health metrics.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrzor/sockowner/internal/config"
	"github.com/mrzor/sockowner/internal/correlate"
	"github.com/mrzor/sockowner/internal/filter"
	"github.com/mrzor/sockowner/internal/fs"
	"github.com/mrzor/sockowner/internal/kernel"
	"github.com/mrzor/sockowner/internal/metrics"
	"github.com/mrzor/sockowner/internal/otel"
	"github.com/mrzor/sockowner/internal/process"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// setupMetrics initializes the OTEL meter provider and returns the engine's
// metrics sink and a cleanup function.
func setupMetrics() (metrics.Sink, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}

	mp, err := otel.InitProvider(otelCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(mp, shutdownCtx); err != nil {
			log.Printf("Error shutting down OTEL provider: %v", err)
		}
	}

	sink, err := metrics.NewOTelSink(mp.Meter("sockowner"))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return sink, cleanup, nil
}

func run() error {
	log.Printf("Starting sockowner %s (commit: %s, built: %s)", version, commit, date)

	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	procFilter, err := filter.New(cfg.ProcessFilter)
	if err != nil {
		return err
	}

	sink, cleanup, err := setupMetrics()
	if err != nil {
		return err
	}
	defer cleanup()

	fsys := fs.OS{}
	scanner := correlate.New(fsys, cfg.ProcRoot, kernel.NewResolver(), sink, procFilter)
	walker := process.NewProcfsWalker(fsys, cfg.ProcRoot)

	tick := time.NewTicker(cfg.TickInterval)
	defer tick.Stop()
	scanTick := time.NewTicker(cfg.ScanInterval)
	defer scanTick.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runScan := func() {
		start := time.Now()
		sockets, err := scanner.ScanWalker(walker, tick.C, cfg.FDBlockSize)
		if err != nil {
			// Fatal for this scan only; the cadence retries.
			log.Printf("Scan failed: %v", err)
			return
		}
		log.Printf("Scan complete: %d sockets attributed in %s", len(sockets), time.Since(start).Round(time.Millisecond))
	}

	runScan()
	for {
		select {
		case <-scanTick.C:
			runScan()
		case <-sigCh:
			log.Println("Received signal, terminating...")
			return nil
		}
	}
}
