// Command terrahexd runs the territory and resource engine: it follows
// the configured position source, drives the simulation clock and
// serves state to presentation clients over the WebSocket gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/terrahex/engine/internal/cache"
	"github.com/terrahex/engine/internal/config"
	"github.com/terrahex/engine/internal/dispatcher"
	"github.com/terrahex/engine/internal/engine"
	"github.com/terrahex/engine/internal/gateway"
	"github.com/terrahex/engine/internal/handlers"
	"github.com/terrahex/engine/internal/hexgrid"
	"github.com/terrahex/engine/internal/influx"
	"github.com/terrahex/engine/internal/logging"
	"github.com/terrahex/engine/internal/monitor"
	intOtel "github.com/terrahex/engine/internal/otel"
	"github.com/terrahex/engine/internal/position"
	"github.com/terrahex/engine/pkg/core"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"
)

const serviceName = "terrahexd"

func main() {
	configDir := flag.String("config", ".", "directory containing terrahex.cfg.json")
	flag.Parse()

	// Bootstrap logging to stdout until the log file is open.
	slogMgr := logging.NewSlogManager()
	slogMgr.Setup(nil, "info", nil)
	logger := slogMgr.Logger()

	if err := config.Load(*configDir); err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
	} else {
		logger.Info("Loaded config", "dir", *configDir)
	}

	logsDir := config.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	logPath := filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", serviceName, time.Now().Format("20060102_150405")))
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logger.Error("Failed to open log file, staying on stdout", "error", err, "path", logPath)
		logFile = nil
	}
	var logWriter io.Writer
	if logFile != nil {
		logWriter = logFile
	}

	var otelProvider *intOtel.Provider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled && logFile != nil {
		otelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logFile,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			logger.Error("Failed to initialize OTel provider", "error", err)
			otelProvider = nil
		}
	}

	// Re-setup logging with the file and optional OTel bridge.
	var logProvider *sdklog.LoggerProvider
	if otelProvider != nil {
		logProvider = otelProvider.LoggerProvider()
	}
	slogMgr.Setup(logWriter, config.GetString("logLevel"), logProvider)
	logger = slogMgr.Logger()
	logger.Info("Starting engine", "version", Version, "build", BuildDate)

	zlog := logging.NewZerologLogger(logWriter, config.GetString("logLevel"))

	storageCfg := config.GetStorageConfig()
	backend, err := createStorageBackend(storageCfg, zlog)
	if err != nil {
		logger.Error("Failed to create storage backend", "type", storageCfg.Type, "error", err)
		os.Exit(1)
	}
	if err := backend.Init(); err != nil {
		logger.Error("Failed to initialize storage backend", "error", err)
		os.Exit(1)
	}
	logger.Info("Storage backend initialized", "type", storageCfg.Type)

	gridCfg := config.GetGridConfig()
	grid, err := hexgrid.NewGrid(gridCfg.Resolution, gridCfg.MaxCells)
	if err != nil {
		logger.Error("Failed to build hex grid", "error", err)
		os.Exit(1)
	}

	source := buildPositionSource()

	var influxMgr *influx.Manager
	if config.GetBool("influx.enabled") {
		influxMgr = influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.lp.gz"))
		if err := influxMgr.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
			influxMgr = nil
		}
	}

	simCfg := config.GetSimulationConfig()
	opts := engine.Options{
		PlayerID: config.GetString("player.id"),
		StartingResources: core.ResourceInventory{
			Wood:  config.GetInt("player.startingWood"),
			Iron:  config.GetInt("player.startingIron"),
			Stone: config.GetInt("player.startingStone"),
		},
		NeighborhoodRadius: gridCfg.NeighborhoodRadius,
		ZoneCount:          simCfg.ZoneCount,
		PositionHistory:    simCfg.PositionHistory,
		StarvationPolicy:   engine.StarvationPolicy(simCfg.StarvationPolicy),
		HomeThresholdKm:    simCfg.HomeThresholdKm,
		TickInterval:       simCfg.TickInterval,
	}
	if influxMgr != nil {
		playerID := opts.PlayerID
		mgr := influxMgr
		opts.OnTick = func(d time.Duration, zonesRegenerated, flushedFixes int) {
			point := influx.TickPoint(playerID, d, zonesRegenerated, flushedFixes)
			if err := mgr.WritePoint(context.Background(), influx.BucketEnginePerformance, point); err != nil {
				logger.Warn("Failed to write tick point", "error", err)
			}
		}
	}

	svc, err := engine.NewService(context.Background(), backend, grid, source, logger, opts)
	if err != nil {
		logger.Error("Failed to build engine", "error", err)
		os.Exit(1)
	}

	disp, err := dispatcher.New(logger)
	if err != nil {
		logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}
	handlers.NewService(handlers.Dependencies{Engine: svc, Logger: logger}).RegisterHandlers(disp)

	var gw *gateway.Server
	if config.GetBool("gateway.enabled") {
		gw = gateway.NewServer(gateway.Config{Listen: config.GetString("gateway.listen")}, gateway.Dependencies{
			Dispatcher: disp,
			Engine:     svc,
			Snapshots:  cache.NewSnapshotCache(),
			Logger:     logger,
		})
		if err := gw.Start(); err != nil {
			logger.Error("Failed to start gateway", "error", err)
			os.Exit(1)
		}
	}

	mon := monitor.NewService(monitor.Dependencies{
		Engine:    svc,
		Influx:    influxMgr,
		Logger:    logger,
		StatusDir: logsDir,
	})
	mon.Start()

	if err := svc.Start(); err != nil {
		logger.Error("Failed to start engine", "error", err)
		os.Exit(1)
	}
	logger.Info("Engine running", "player", opts.PlayerID, "tickInterval", simCfg.TickInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if gw != nil {
		if err := gw.Close(shutdownCtx); err != nil {
			logger.Warn("Gateway shutdown error", "error", err)
		}
	}
	svc.Stop(shutdownCtx)
	mon.Stop()
	if influxMgr != nil {
		influxMgr.Close()
	}
	if otelProvider != nil {
		if err := otelProvider.Flush(shutdownCtx); err != nil {
			logger.Warn("OTel flush failed", "error", err)
		}
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("OTel shutdown failed", "error", err)
		}
	}
	if err := backend.Close(); err != nil {
		logger.Warn("Storage close error", "error", err)
	}
	logger.Info("Shutdown complete")
}

// buildPositionSource creates the position source named by the config.
// Only the simulated walker exists today; a GPS bridge would slot in
// here.
func buildPositionSource() position.Source {
	return position.NewSimulated(position.SimulatedConfig{
		Origin: core.Coordinate{
			Latitude:  config.GetFloat64("position.originLat"),
			Longitude: config.GetFloat64("position.originLng"),
		},
		Interval: config.GetDuration("position.interval", 5*time.Second),
	})
}
