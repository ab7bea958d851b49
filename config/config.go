package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/freekieb7/hearth/http"
)

const (
	DefaultPort = 8080
	DefaultRoot = "./webroot"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Telemetry struct {
	// Exporter is one of "none", "stdout" or "otlp".
	Exporter    string `env:"HEARTH_TELEMETRY_EXPORTER"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
}

type Config struct {
	Host        string        `env:"HEARTH_HOST"`
	Port        int
	Root        string        `env:"HEARTH_ROOT"`
	Backlog     int           `env:"HEARTH_BACKLOG"`
	IdleTimeout time.Duration `env:"HEARTH_IDLE_TIMEOUT"`

	ReadBufferSize int `env:"HEARTH_READ_BUFFER_SIZE"`
	MaxHeaders     int `env:"HEARTH_MAX_HEADERS"`
	MaxHeaderLen   int `env:"HEARTH_MAX_HEADER_LEN"`
	MaxMethodLen   int `env:"HEARTH_MAX_METHOD_LEN"`
	MaxBodySize    int `env:"HEARTH_MAX_BODY_SIZE"`

	Telemetry Telemetry

	// PortArgRejected is set when a port argument was given but unusable.
	PortArgRejected bool
}

func Default() Config {
	limits := http.DefaultLimits()

	return Config{
		Host:           "0.0.0.0",
		Port:           DefaultPort,
		Root:           DefaultRoot,
		Backlog:        http.DefaultBacklog,
		ReadBufferSize: limits.ReadBufferSize,
		MaxHeaders:     limits.MaxHeaders,
		MaxHeaderLen:   limits.MaxHeaderLen,
		MaxMethodLen:   limits.MaxMethodLen,
		MaxBodySize:    limits.MaxBodySize,
		Telemetry: Telemetry{
			Exporter:    "none",
			ServiceName: "hearth",
		},
	}
}

// Load starts from Default, applies environment overrides and finally the
// optional positional port argument.
func Load(args []string) (Config, error) {
	cfg := Default()

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing environment: %w", err)
	}

	if len(args) > 0 {
		port, ok := ParsePort(args[0])
		cfg.Port = port
		cfg.PortArgRejected = !ok
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ParsePort accepts decimal ports in 1..65535. Anything else yields
// DefaultPort and false.
func ParsePort(s string) (int, bool) {
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return DefaultPort, false
	}
	return port, true
}

func (cfg Config) Validate() error {
	switch {
	case cfg.Root == "":
		return fmt.Errorf("%w: empty root", ErrInvalidConfig)
	case cfg.Backlog <= 0:
		return fmt.Errorf("%w: backlog must be positive, got %d", ErrInvalidConfig, cfg.Backlog)
	case cfg.IdleTimeout < 0:
		return fmt.Errorf("%w: negative idle timeout", ErrInvalidConfig)
	case cfg.ReadBufferSize <= 0, cfg.MaxHeaders <= 0, cfg.MaxMethodLen <= 0, cfg.MaxBodySize <= 0:
		return fmt.Errorf("%w: limits must be positive", ErrInvalidConfig)
	case cfg.MaxHeaderLen <= 1:
		return fmt.Errorf("%w: max header length must exceed 1, got %d", ErrInvalidConfig, cfg.MaxHeaderLen)
	}

	switch cfg.Telemetry.Exporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("%w: unknown telemetry exporter %q", ErrInvalidConfig, cfg.Telemetry.Exporter)
	}

	return nil
}

func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

func (cfg Config) Limits() http.Limits {
	return http.Limits{
		ReadBufferSize: cfg.ReadBufferSize,
		MaxHeaders:     cfg.MaxHeaders,
		MaxHeaderLen:   cfg.MaxHeaderLen,
		MaxMethodLen:   cfg.MaxMethodLen,
		MaxBodySize:    cfg.MaxBodySize,
	}
}
