package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the station configuration
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Device   DeviceConfig  `yaml:"device"`
	Features FeatureConfig `yaml:"features"`
	History  HistoryConfig `yaml:"history"`
	Service  ServiceConfig `yaml:"service"`

	// ConfigPath is the path to the config file (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig represents the local HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DeviceConfig describes the fingerprint sensor peer and the capture poll loop
type DeviceConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// SensorCapacity is the number of template slots on the sensor.
	// Enrollment identifiers are allocated in [1, SensorCapacity).
	SensorCapacity int `yaml:"sensor_capacity"`

	// SlotsFile records which template slots this station has handed out,
	// so identifiers are not reissued after a restart. Empty disables it.
	SlotsFile string `yaml:"slots_file"`
}

// FeatureConfig declares which station features are enabled.
// Routes for disabled features are not registered.
type FeatureConfig struct {
	Capture    bool `yaml:"capture" json:"capture"`
	Enrollment bool `yaml:"enrollment" json:"enrollment"`
	CSVExport  bool `yaml:"csv_export" json:"csv_export"`
	PDFExport  bool `yaml:"pdf_export" json:"pdf_export"`
	XLSXExport bool `yaml:"xlsx_export" json:"xlsx_export"`
	Print      bool `yaml:"print" json:"print"`
	Chart      bool `yaml:"chart" json:"chart"`
}

// HistoryConfig sizes the in-memory ring buffers
type HistoryConfig struct {
	LogEntries     int `yaml:"log_entries"`
	CaptureEntries int `yaml:"capture_entries"`
}

// ServiceConfig is used when the station is installed as an OS service
type ServiceConfig struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8090,
			Host: "0.0.0.0",
		},
		Device: DeviceConfig{
			Host:           "192.168.137.40",
			Port:           80,
			PollInterval:   200 * time.Millisecond,
			MaxAttempts:    50, // ~10s at 200ms
			RequestTimeout: 2 * time.Second,
			SensorCapacity: 1000,
			SlotsFile:      "slots.yaml",
		},
		Features: FeatureConfig{
			Capture:    true,
			Enrollment: true,
			CSVExport:  true,
			PDFExport:  true,
			XLSXExport: true,
			Print:      true,
			Chart:      true,
		},
		History: HistoryConfig{
			LogEntries:     500,
			CaptureEntries: 50,
		},
		Service: ServiceConfig{
			Name:        "AttendanceStation",
			DisplayName: "Attendance Station",
			Description: "Local fingerprint capture and attendance report station.",
		},
	}
}

// SearchPaths lists the locations Load tries, in order
var SearchPaths = []string{
	"config.yaml",
	"configs/config.yaml",
	"/etc/attendance-station/config.yaml",
}

// Load loads configuration from the first config file found in SearchPaths,
// then applies .env and STATION_* environment overrides.
func Load() (*Config, error) {
	var data []byte
	var err error
	var loadedPath string

	for _, path := range SearchPaths {
		data, err = os.ReadFile(path)
		if err == nil {
			loadedPath = path
			break
		}
	}

	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.ConfigPath = loadedPath
	LoadEnv(cfg)
	return cfg, nil
}

// Parse decodes YAML on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// LoadEnv reads an optional .env file and applies STATION_* overrides
func LoadEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	applyEnv(cfg, os.Getenv)
	cfg.normalize()
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("STATION_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := getenv("STATION_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := getenv("STATION_DEVICE_HOST"); v != "" {
		cfg.Device.Host = v
	}
	if v := getenv("STATION_DEVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Device.Port = port
		}
	}
	if v := getenv("STATION_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Device.PollInterval = d
		}
	}
	if v := getenv("STATION_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Device.MaxAttempts = n
		}
	}
	if v := getenv("STATION_SLOTS_FILE"); v != "" {
		cfg.Device.SlotsFile = v
	}
	if v := getenv("STATION_DISABLED_FEATURES"); v != "" {
		for _, name := range strings.Split(v, ",") {
			cfg.Features.disable(strings.TrimSpace(name))
		}
	}
}

func (f *FeatureConfig) disable(name string) {
	switch strings.ToLower(name) {
	case "capture":
		f.Capture = false
	case "enrollment":
		f.Enrollment = false
	case "csv", "csv_export":
		f.CSVExport = false
	case "pdf", "pdf_export":
		f.PDFExport = false
	case "xlsx", "xlsx_export":
		f.XLSXExport = false
	case "print":
		f.Print = false
	case "chart":
		f.Chart = false
	}
}

// normalize replaces unusable values with defaults
func (c *Config) normalize() {
	def := Default()
	if c.Device.PollInterval <= 0 {
		c.Device.PollInterval = def.Device.PollInterval
	}
	if c.Device.MaxAttempts <= 0 {
		c.Device.MaxAttempts = def.Device.MaxAttempts
	}
	if c.Device.RequestTimeout <= 0 {
		c.Device.RequestTimeout = def.Device.RequestTimeout
	}
	if c.Device.SensorCapacity < 2 {
		c.Device.SensorCapacity = def.Device.SensorCapacity
	}
	if c.History.LogEntries <= 0 {
		c.History.LogEntries = def.History.LogEntries
	}
	if c.History.CaptureEntries <= 0 {
		c.History.CaptureEntries = def.History.CaptureEntries
	}
	// Enrollment needs a captured print.
	if !c.Features.Capture {
		c.Features.Enrollment = false
	}
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
