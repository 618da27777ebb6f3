package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/khanhnv2901/vulnscan/internal/checker"
	consts "github.com/khanhnv2901/vulnscan/internal/shared/constants"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix              = "VULNSCAN"
	defaultConfigName      = ".vulnscan"
	defaultAddr            = "0.0.0.0:8080"
	defaultRateLimit       = 10
	defaultRateBurst       = 20
	defaultShutdownTimeout = 30 * time.Second
	defaultJobTimeout      = 90 * time.Second
)

// AppConfig captures runtime configuration shared across commands.
type AppConfig struct {
	Server ServerConfig
	Scan   ScanConfig
	Ports  PortsConfig
}

// ServerConfig configures the REST API.
type ServerConfig struct {
	Addr            string
	AuthToken       string
	CORSOrigins     []string
	RateLimit       int
	RateBurst       int
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	JobTimeout      time.Duration
}

// ScanConfig configures the scan orchestrator and its checks.
type ScanConfig struct {
	HeaderTimeout  time.Duration
	PathTimeout    time.Duration
	Timeout        time.Duration // Whole-scan deadline (0 = none)
	PathWorkers    int
	PathRateLimit  int
	SensitivePaths []string
}

// PortsConfig configures the TCP port scanner.
type PortsConfig struct {
	Timeout time.Duration
	Workers int
	Default []int
}

// flagKeys maps command-line flags to config keys. A flag only overrides the
// config file or environment when it is explicitly set.
var flagKeys = map[string]string{
	"addr":             "server.addr",
	"auth-token":       "server.auth_token",
	"cors-origins":     "server.cors_origins",
	"rate-limit":       "server.rate_limit",
	"rate-burst":       "server.rate_burst",
	"shutdown-timeout": "server.shutdown_timeout",
	"job-timeout":      "server.job_timeout",
	"header-timeout":   "scan.header_timeout",
	"path-timeout":     "scan.path_timeout",
	"scan-timeout":     "scan.timeout",
	"path-workers":     "scan.path_workers",
	"port-timeout":     "ports.timeout",
	"port-workers":     "ports.workers",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("server.auth_token", "")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit", defaultRateLimit)
	v.SetDefault("server.rate_burst", defaultRateBurst)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.max_body_bytes", consts.MaxScanRequestBytes)
	v.SetDefault("server.job_timeout", defaultJobTimeout)

	v.SetDefault("scan.header_timeout", consts.HeaderProbeTimeout)
	v.SetDefault("scan.path_timeout", consts.PathProbeTimeout)
	v.SetDefault("scan.timeout", time.Duration(0))
	v.SetDefault("scan.path_workers", consts.DefaultPathWorkers)
	v.SetDefault("scan.path_rate_limit", 0)
	v.SetDefault("scan.sensitive_paths", checker.DefaultSensitivePaths)

	v.SetDefault("ports.timeout", consts.PortProbeTimeout)
	v.SetDefault("ports.workers", consts.DefaultPortWorkers)
	v.SetDefault("ports.default", checker.DefaultPorts)
}

// newViper builds a viper instance reading defaults, the optional config file,
// VULNSCAN_* environment variables and explicitly set flags, in increasing
// order of precedence.
func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly named file must exist; the default one is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}
	return v, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadConfig resolves the runtime configuration for a command.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*AppConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			AuthToken:       v.GetString("server.auth_token"),
			CORSOrigins:     v.GetStringSlice("server.cors_origins"),
			RateLimit:       v.GetInt("server.rate_limit"),
			RateBurst:       v.GetInt("server.rate_burst"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
			JobTimeout:      v.GetDuration("server.job_timeout"),
		},
		Scan: ScanConfig{
			HeaderTimeout:  v.GetDuration("scan.header_timeout"),
			PathTimeout:    v.GetDuration("scan.path_timeout"),
			Timeout:        v.GetDuration("scan.timeout"),
			PathWorkers:    v.GetInt("scan.path_workers"),
			PathRateLimit:  v.GetInt("scan.path_rate_limit"),
			SensitivePaths: v.GetStringSlice("scan.sensitive_paths"),
		},
		Ports: PortsConfig{
			Timeout: v.GetDuration("ports.timeout"),
			Workers: v.GetInt("ports.workers"),
			Default: v.GetIntSlice("ports.default"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Scan.HeaderTimeout <= 0 || c.Scan.PathTimeout <= 0 {
		return fmt.Errorf("scan timeouts must be positive")
	}
	if c.Scan.PathWorkers <= 0 {
		return fmt.Errorf("scan.path_workers must be positive, got %d", c.Scan.PathWorkers)
	}
	for _, p := range c.Scan.SensitivePaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("sensitive path %q must start with /", p)
		}
	}
	if c.Ports.Workers <= 0 {
		return fmt.Errorf("ports.workers must be positive, got %d", c.Ports.Workers)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("rate limits cannot be negative")
	}
	return nil
}
