package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kardianos/service"
)

// program implements service.Interface
type program struct {
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	svcLogger service.Logger
}

func (p *program) Start(s service.Service) error {
	p.svcLogger, _ = s.Logger(nil)
	if p.svcLogger != nil {
		p.svcLogger.Info("Attendance Station service starting")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.done = make(chan struct{})

	go p.run()
	return nil
}

func (p *program) run() {
	defer close(p.done)

	if err := runStation(p.ctx); err != nil && p.svcLogger != nil {
		p.svcLogger.Error(fmt.Sprintf("Station stopped with error: %v", err))
	}
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}

	select {
	case <-p.done:
		if p.svcLogger != nil {
			p.svcLogger.Info("Attendance Station service stopped")
		}
	case <-time.After(30 * time.Second):
		if p.svcLogger != nil {
			p.svcLogger.Warning("Attendance Station service stopped with timeout")
		}
	}
	return nil
}

// serviceConfig builds the OS service definition from the station config
func serviceConfig() *service.Config {
	cfg := loadConfig()

	args := []string{"-service", "run"}
	if abs, err := filepath.Abs(cfg.ConfigPath); err == nil {
		if _, err := os.Stat(abs); err == nil {
			args = append(args, "-config", abs)
		}
	}

	return &service.Config{
		Name:        cfg.Service.Name,
		DisplayName: cfg.Service.DisplayName,
		Description: cfg.Service.Description,
		Arguments:   args,
		Option: service.KeyValue{
			"StartType":              "automatic",
			"OnFailure":              "restart",
			"OnFailureDelayDuration": "5s",
			"Restart":                "on-failure",
			"RestartSec":             5,
			"KeepAlive":              true,
			"RunAtLoad":              true,
		},
	}
}

// handleService runs a service control action, or runs under the service
// manager for "run"
func handleService(action string) error {
	prg := &program{}
	s, err := service.New(prg, serviceConfig())
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	if action == "run" {
		return s.Run()
	}

	if err := service.Control(s, action); err != nil {
		return fmt.Errorf("%s: %w (valid actions: %v)", action, err, service.ControlAction)
	}
	fmt.Printf("Service %s: %s\n", s.String(), action)
	return nil
}
