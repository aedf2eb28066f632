package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jetsetgo/attendance-station/internal/alert"
	"github.com/jetsetgo/attendance-station/internal/api"
	"github.com/jetsetgo/attendance-station/internal/capture"
	"github.com/jetsetgo/attendance-station/internal/config"
	"github.com/jetsetgo/attendance-station/internal/device"
	"github.com/jetsetgo/attendance-station/internal/report"
)

func main() {
	configPath := flag.String("config", "", "Config file (default: search config.yaml, configs/config.yaml, /etc/attendance-station/config.yaml)")
	svcAction := flag.String("service", "", "Service action: install, uninstall, start, stop, restart, run")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.Default().Save(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	if *configPath != "" {
		config.SearchPaths = []string{*configPath}
	}

	if *svcAction != "" {
		if err := handleService(*svcAction); err != nil {
			log.Fatalf("Service %s failed: %v", *svcAction, err)
		}
		return
	}

	fmt.Println("Attendance Station")
	fmt.Println("==================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runStation(ctx); err != nil {
		log.Fatalf("Station error: %v", err)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load config file: %v", err)
		log.Println("Using default configuration")
		cfg = config.Default()
		cfg.ConfigPath = "config.yaml"
		config.LoadEnv(cfg)
	}
	return cfg
}

// runStation serves until ctx is cancelled
func runStation(ctx context.Context) error {
	cfg := loadConfig()

	logBuf := api.NewLogBuffer(cfg.History.LogEntries)
	api.InstallLogCapture(logBuf)
	hub := api.NewHub()
	notifier := alert.Multi(logBuf, hub)

	log.Printf("Device: %s:%d (poll %v, %d attempts)", cfg.Device.Host, cfg.Device.Port, cfg.Device.PollInterval, cfg.Device.MaxAttempts)

	dev := device.NewClient(cfg.Device.Host, cfg.Device.Port, cfg.Device.RequestTimeout)
	capacity := cfg.Device.SensorCapacity
	seed := int(time.Now().Unix() % int64(capacity))
	ids := capture.NewIDAllocator(capacity, seed)
	if slots := cfg.Device.SlotsFile; slots != "" {
		// Relative to the config file
		if !filepath.IsAbs(slots) && cfg.ConfigPath != "" {
			slots = filepath.Join(filepath.Dir(cfg.ConfigPath), slots)
		}
		loaded, err := capture.LoadIDAllocator(slots, capacity, seed)
		if err != nil {
			log.Printf("Warning: %v", err)
		}
		ids = loaded
		log.Printf("Fingerprint slots: %d held (%s)", len(ids.Held()), slots)
	}
	client := capture.NewClient(dev, notifier, ids, capture.Options{
		PollInterval: cfg.Device.PollInterval,
		MaxAttempts:  cfg.Device.MaxAttempts,
	})

	renderer := report.NewRenderer(report.Options{
		Features: cfg.Features,
		PDF:      report.FPDF{},
		Notifier: notifier,
	})

	server := api.NewServer(cfg, api.Deps{
		Capture: client,
		Reports: renderer,
		Logs:    logBuf,
		Hub:     hub,
	})

	checkCtx, cancel := context.WithTimeout(ctx, cfg.Device.RequestTimeout)
	client.CheckConnection(checkCtx)
	cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
