package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds all runtime configuration
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Tally  TallyConfig  `yaml:"tally" mapstructure:"tally"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
}

// InputMode selects how voter columns are read
type InputMode string

const (
	ModeBallot  InputMode = "ballot"  // Each cell names the candidate in that position
	ModeNumeric InputMode = "numeric" // Each cell is the rank given to that row's candidate
)

// InputConfig controls ballot parsing
type InputConfig struct {
	Mode InputMode `yaml:"mode" mapstructure:"mode"`
}

// LoserRule selects the Condorcet loser predicate
type LoserRule string

const (
	// LoserRulePreserved requires the loser to be party to at least one tied pairing
	LoserRulePreserved LoserRule = "preserved"
	// LoserRuleClassic requires the loser to lose every decided pairing and tie none
	LoserRuleClassic LoserRule = "classic"
)

// TallyConfig controls the tally engine
type TallyConfig struct {
	LoserRule LoserRule `yaml:"loser_rule" mapstructure:"loser_rule"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // text, json, yaml, markdown, cbor
	Rounds  bool   `yaml:"rounds" mapstructure:"rounds"` // Include the per-phase round log in text output
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Debug   bool   `yaml:"debug" mapstructure:"debug"`
}

// CacheConfig controls the report cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig controls fetching ballots from http(s) URLs
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RateLimit    float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second per host
	Burst        int           `yaml:"burst" mapstructure:"burst"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Mode: ModeBallot,
		},
		Tally: TallyConfig{
			LoserRule: LoserRulePreserved,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "ranked/0.3 (+https://github.com/duke1swd/Voting)",
			MaxBodyBytes: 8 << 20,
			RateLimit:    2,
			Burst:        3,
		},
	}
}

// defaultCacheDir returns the per-user cache directory for reports
func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ranked")
	}
	return filepath.Join(dir, "ranked")
}
