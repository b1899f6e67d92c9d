// Command laserd is the laser point streaming daemon. It owns the live
// frame, serves the HTTP API for submitting frames and pulling point
// batches, persists the frame library in SQLite and mirrors the stream
// into the browser charts.
//
// Run modes:
//
//	laserd                  # API server only; a DAC driver polls /api/stream/points
//	laserd -dev             # pull batches internally, standing in for a DAC driver
//	laserd -demo            # generate and submit the configured demo pattern at startup
//	laserd -config cfg.json # load listen address, DB path and stream tuning from file
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mitchmindtree/laser-frame/internal/api"
	"github.com/mitchmindtree/laser-frame/internal/config"
	"github.com/mitchmindtree/laser-frame/internal/framestore"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/monitor"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
	"github.com/mitchmindtree/laser-frame/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Pull batches internally, standing in for a DAC driver")
	demoMode   = flag.Bool("demo", false, "Generate and submit the configured demo pattern at startup")
	listenAddr = flag.String("listen", "", "HTTP listen address (overrides config)")
	dbPath     = flag.String("db", "", "Path to the SQLite frame database (overrides config)")
	configPath = flag.String("config", "", "Path to a JSON config file")
)

// devPullInterval is the cadence of the built-in batch puller. At the
// default batch size this drains roughly five thousand points per
// second, in the ballpark of a small galvo DAC.
const devPullInterval = 50 * time.Millisecond

// loadConfig resolves the daemon configuration: the config file when
// one is given, with explicit flags winning over file values.
func loadConfig() (*config.ServerConfig, error) {
	cfg := config.EmptyServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

// submitDemoPattern generates the configured startup pattern and hands
// it to the stream, so a freshly started daemon has something to draw.
func submitDemoPattern(stream *streammux.StreamMux[laser.Point], frames *framestore.FrameStore, cfg *config.ServerConfig) error {
	pattern := cfg.GetDefaultPattern()
	if pattern == "" {
		pattern = laser.PatternCircle
	}

	gen := laser.NewGenerator()
	gen.PointCount = cfg.GetPatternPoints()
	points, err := gen.Generate(pattern)
	if err != nil {
		return err
	}

	stream.SubmitFrame(points)
	sub := &framestore.Submission{Source: "demo", PointCount: len(points)}
	if err := frames.RecordSubmission(sub); err != nil {
		// The frame already reached the stream; the audit row is best-effort.
		log.Printf("Failed to record demo submission: %v", err)
	}
	log.Printf("Submitted demo pattern %q with %d points", pattern, len(points))
	return nil
}

// runDevDriver pulls batches from the stream on a fixed cadence,
// standing in for the DAC driver that would otherwise poll the points
// endpoint over HTTP.
func runDevDriver(ctx context.Context, stream *streammux.StreamMux[laser.Point], batchSize int) {
	ticker := time.NewTicker(devPullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stream.NextBatch(batchSize)
		}
	}
}

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("laserd %s starting", version.String())

	db, err := framestore.Open(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("Failed to open frame database: %v", err)
	}
	defer db.Close()

	frames := framestore.NewFrameStore(db.DB)
	if n, err := frames.CountSubmissions(); err != nil {
		log.Printf("Failed to count submissions: %v", err)
	} else {
		log.Printf("Frame database %s ready (%d submissions on record)", cfg.GetDBPath(), n)
	}

	stats := monitor.NewStreamStats()
	stream := streammux.NewStreamMux[laser.Point](cfg.GetSubscriberBuffer(), stats)
	defer stream.Close()

	if *demoMode {
		if err := submitDemoPattern(stream, frames, cfg); err != nil {
			log.Fatalf("Failed to submit demo pattern: %v", err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic stats logging routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.GetStatsInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Printf("Stats routine terminated")
				return
			case <-ticker.C:
				stats.LogStats()
			}
		}
	}()

	// Chart mirror routine feeding the browser plots
	charts := monitor.NewChartServer(stream, stats)
	wg.Add(1)
	go func() {
		defer wg.Done()
		charts.Run(ctx)
		log.Printf("Chart mirror routine terminated")
	}()

	// Built-in batch puller for development without DAC hardware
	if *devMode {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runDevDriver(ctx, stream, cfg.GetBatchSize())
			log.Printf("Dev driver routine terminated")
		}()
	}

	// HTTP server routine
	wg.Add(1)
	go func() {
		defer wg.Done()

		httpMux := api.NewServer(stream, frames, stats, version.Version).ServeMux()
		stream.AttachAdminRoutes(httpMux)
		db.AttachAdminRoutes(httpMux)
		charts.RegisterRoutes(httpMux)

		server := &http.Server{
			Addr:    cfg.GetListenAddr(),
			Handler: api.LoggingMiddleware(httpMux),
		}

		go func() {
			log.Printf("Starting HTTP server on %s", cfg.GetListenAddr())
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start HTTP server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Printf("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
