// Package config loads sieve's YAML configuration file, with environment
// variables able to override the values that most often differ between
// deployments (RPC URLs, log level, admin bind address).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rawblock/sieve/pkg/chain"
)

// Config is sieve's top-level configuration.
type Config struct {
	Chains  []ChainConfig `yaml:"chains"`
	Admin   AdminConfig   `yaml:"admin"`
	Decode  DecodeConfig  `yaml:"decode"`
	Logging LoggingConfig `yaml:"logging"`
}

// ChainConfig is the YAML shape for one chain; Build converts it to a
// pkg/chain.Config once the chain name has been resolved.
type ChainConfig struct {
	Name   string   `yaml:"name"`
	RPCURL string   `yaml:"rpc_url"`
	WSURL  string   `yaml:"ws_url"`
	Peers  []string `yaml:"bootstrap_peers"`
}

func (c ChainConfig) Build() (chain.Config, error) {
	name, err := parseChainName(c.Name)
	if err != nil {
		return chain.Config{}, err
	}
	return chain.NewConfigBuilder(name).RPC(c.RPCURL).WS(c.WSURL).BootstrapPeers(c.Peers...).Build(), nil
}

func parseChainName(s string) (chain.Chain, error) {
	switch s {
	case "ethereum", "":
		return chain.Ethereum, nil
	case "optimism":
		return chain.Optimism, nil
	case "base":
		return chain.Base, nil
	default:
		return 0, fmt.Errorf("config: unknown chain %q", s)
	}
}

// AdminConfig controls the admin HTTP surface: health, active chains, the
// websocket match feed, and /metrics.
//
// The timeout fields are authored in YAML as duration strings ("10s"): the
// Go standard library's time.Duration is an int64 underneath, and
// gopkg.in/yaml.v3 decodes a plain struct field strictly by Go kind, so a
// quoted "10s" scalar into an int64 field fails to unmarshal rather than
// parsing as a duration. ReadTimeout/WriteTimeout/ShutdownTimeout are
// therefore loaded as strings and resolved once in Validate.
type AdminConfig struct {
	Addr               string          `yaml:"addr"`
	ReadTimeoutRaw     string          `yaml:"read_timeout"`
	WriteTimeoutRaw    string          `yaml:"write_timeout"`
	ShutdownTimeoutRaw string          `yaml:"shutdown_timeout"`
	AuthToken          string          `yaml:"auth_token"`
	RateLimit          RateLimitConfig `yaml:"rate_limit"`

	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ShutdownTimeout time.Duration `yaml:"-"`
}

// RateLimitConfig bounds requests per admin API caller.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DecodeConfig sizes the ABI decode cache.
type DecodeConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig controls zerolog's level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if level := os.Getenv("SIEVE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("SIEVE_ADMIN_ADDR"); addr != "" {
		c.Admin.Addr = addr
	}
	if token := os.Getenv("SIEVE_ADMIN_TOKEN"); token != "" {
		c.Admin.AuthToken = token
	}
	if size := os.Getenv("SIEVE_DECODE_CACHE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil {
			c.Decode.CacheSize = n
		}
	}
	// Per-chain RPC URL overrides: SIEVE_<CHAIN>_RPC_URL, e.g.
	// SIEVE_ETHEREUM_RPC_URL, SIEVE_OPTIMISM_RPC_URL.
	for i := range c.Chains {
		envKey := "SIEVE_" + upperASCII(c.Chains[i].Name) + "_RPC_URL"
		if url := os.Getenv(envKey); url != "" {
			c.Chains[i].RPCURL = url
		}
	}
}

func upperASCII(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b >= 'a' && b <= 'z' {
			out[i] = b - ('a' - 'A')
		}
	}
	return string(out)
}

// Validate rejects configs that would leave sieve unable to do anything
// useful. An empty Chains list or every chain lacking an RPCURL is allowed
// at load time — Connect just has nothing to do — but the admin bind
// address is required since that surface is always started.
func (c *Config) Validate() error {
	if c.Admin.Addr == "" {
		return fmt.Errorf("admin.addr is required")
	}
	for _, ch := range c.Chains {
		if _, err := parseChainName(ch.Name); err != nil {
			return err
		}
	}

	var err error
	if c.Admin.ReadTimeout, err = parseDuration(c.Admin.ReadTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("admin.read_timeout: %w", err)
	}
	if c.Admin.WriteTimeout, err = parseDuration(c.Admin.WriteTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("admin.write_timeout: %w", err)
	}
	if c.Admin.ShutdownTimeout, err = parseDuration(c.Admin.ShutdownTimeoutRaw, 5*time.Second); err != nil {
		return fmt.Errorf("admin.shutdown_timeout: %w", err)
	}
	return nil
}

// parseDuration parses raw with time.ParseDuration, falling back to def
// when raw is empty.
func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}

// BuildChains converts every YAML chain entry to a pkg/chain.Config.
func (c *Config) BuildChains() ([]chain.Config, error) {
	out := make([]chain.Config, 0, len(c.Chains))
	for _, ch := range c.Chains {
		built, err := ch.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}
