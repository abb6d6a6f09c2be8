package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"courseledger/crypto"
	"courseledger/native/checkin"
)

// RewardsConfig seeds the check-in reward schedule at genesis. Administrative
// updates through RPC supersede these values once the database is initialised.
type RewardsConfig struct {
	BaseDailyReward    uint64 `toml:"BaseDailyReward"`
	PerDayBonus        uint64 `toml:"PerDayBonus"`
	MaxConsecutiveDays uint64 `toml:"MaxConsecutiveDays"`
}

// AuthConfig controls how the RPC server authenticates mutating and
// administrative calls.
type AuthConfig struct {
	// JWTSecret enables HMAC-signed bearer tokens when non-empty; otherwise
	// the static token from the CRS_RPC_TOKEN environment variable applies.
	JWTSecret   string `toml:"JWTSecret"`
	JWTIssuer   string `toml:"JWTIssuer"`
	JWTAudience string `toml:"JWTAudience"`
}

// RateLimitConfig bounds per-client RPC throughput.
type RateLimitConfig struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

type Config struct {
	RPCAddress     string          `toml:"RPCAddress"`
	MetricsAddress string          `toml:"MetricsAddress"`
	DataDir        string          `toml:"DataDir"`
	NetworkName    string          `toml:"NetworkName"`
	Environment    string          `toml:"Environment"`
	LogFile        string          `toml:"LogFile"`
	Authorizer     string          `toml:"Authorizer"`
	Rewards        RewardsConfig   `toml:"Rewards"`
	Auth           AuthConfig      `toml:"Auth"`
	RateLimit      RateLimitConfig `toml:"RateLimit"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8645"
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "courseledger-local"
	}
	if c.Rewards.BaseDailyReward == 0 {
		c.Rewards.BaseDailyReward = checkin.DefaultBaseDailyReward
	}
	if c.Rewards.PerDayBonus == 0 {
		c.Rewards.PerDayBonus = checkin.DefaultPerDayBonus
	}
	if c.Rewards.MaxConsecutiveDays == 0 {
		c.Rewards.MaxConsecutiveDays = checkin.DefaultMaxConsecutiveDays
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 20
	}
}

func (c *Config) validate() error {
	if err := c.RewardParams().Validate(); err != nil {
		return err
	}
	if trimmed := strings.TrimSpace(c.Authorizer); trimmed != "" {
		if _, err := crypto.DecodeAddress(trimmed); err != nil {
			return fmt.Errorf("config: invalid Authorizer address: %w", err)
		}
	}
	return nil
}

// RewardParams converts the rewards section into module parameters.
func (c *Config) RewardParams() checkin.Params {
	return checkin.Params{
		BaseDailyReward:    c.Rewards.BaseDailyReward,
		PerDayBonus:        c.Rewards.PerDayBonus,
		MaxConsecutiveDays: c.Rewards.MaxConsecutiveDays,
	}
}

// AuthorizerBytes decodes the configured authorizer address, returning the
// zero address when unset.
func (c *Config) AuthorizerBytes() ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimSpace(c.Authorizer)
	if trimmed == "" {
		return out, nil
	}
	addr, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
