// Package config loads lookalike settings from an optional YAML file,
// LOOKALIKE_* environment variables and command-line flags using viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/viant/lookalike/face"
	"github.com/viant/lookalike/face/remote"
	"github.com/viant/lookalike/index"
	"github.com/viant/lookalike/rank"
	"github.com/viant/lookalike/snapshot"
	"github.com/viant/lookalike/vector"
)

// EnvPrefix prefixes every environment variable, e.g. LOOKALIKE_RANK_K.
const EnvPrefix = "LOOKALIKE"

// Config is the complete application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Source    SourceConfig    `mapstructure:"source"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Build     BuildConfig     `mapstructure:"build"`
	Rank      RankConfig      `mapstructure:"rank"`
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// SourceConfig locates entity images: a local directory or an S3 bucket.
type SourceConfig struct {
	Dir       string `mapstructure:"dir"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
}

// ExtractorConfig configures the remote face service.
type ExtractorConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxFailures   uint32        `mapstructure:"max_failures"`
	OpenTimeout   time.Duration `mapstructure:"open_timeout"`
	// Policy is "skip" or "largest" for images with several faces.
	Policy string `mapstructure:"policy"`
}

// BuildConfig tunes embedding builds.
type BuildConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	ExtractTimeout time.Duration `mapstructure:"extract_timeout"`
}

// RankConfig tunes ranking.
type RankConfig struct {
	K      int    `mapstructure:"k"`
	Metric string `mapstructure:"metric"`
	Policy string `mapstructure:"policy"`
	// Index is "", "auto", "brute", "vptree" or "cover"; empty ranks by a
	// plain scan.
	Index string `mapstructure:"index"`
}

// StoreConfig locates persisted embeddings and crops.
type StoreConfig struct {
	Snapshot string `mapstructure:"snapshot"`
	Codec    string `mapstructure:"codec"`
	DSN      string `mapstructure:"dsn"`
	CropsDir string `mapstructure:"crops_dir"`
}

// ServerConfig configures the HTTP query server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers every key with its default so environment variables
// are picked up for all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("source.dir", "")
	v.SetDefault("source.endpoint", "")
	v.SetDefault("source.bucket", "")
	v.SetDefault("source.prefix", "")
	v.SetDefault("source.access_key", "")
	v.SetDefault("source.secret_key", "")
	v.SetDefault("source.secure", true)
	v.SetDefault("extractor.endpoint", "http://localhost:8500")
	v.SetDefault("extractor.timeout", 30*time.Second)
	v.SetDefault("extractor.rate_per_second", 0)
	v.SetDefault("extractor.burst", 1)
	v.SetDefault("extractor.max_failures", 5)
	v.SetDefault("extractor.open_timeout", 30*time.Second)
	v.SetDefault("extractor.policy", "skip")
	v.SetDefault("build.concurrency", 4)
	v.SetDefault("build.extract_timeout", time.Minute)
	v.SetDefault("rank.k", 3)
	v.SetDefault("rank.metric", "l2")
	v.SetDefault("rank.policy", "clamp")
	v.SetDefault("rank.index", "")
	v.SetDefault("store.snapshot", "lookalike.lksnap")
	v.SetDefault("store.codec", "zstd")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.crops_dir", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// Load reads configuration into v. file may be empty; when set it must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", file, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", f))
	}
	if _, err := face.ParsePolicy(c.Extractor.Policy); err != nil {
		errs = append(errs, err)
	}
	if c.Build.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("config: build.concurrency must be positive, got %d", c.Build.Concurrency))
	}
	if c.Rank.K <= 0 {
		errs = append(errs, fmt.Errorf("config: rank.k must be positive, got %d", c.Rank.K))
	}
	if _, err := c.Rank.Options(); err != nil {
		errs = append(errs, err)
	}
	if _, err := snapshot.ParseCodec(c.Store.Codec); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Options converts the ranking settings.
func (r RankConfig) Options() ([]rank.Option, error) {
	metric, err := vector.ParseMetric(r.Metric)
	if err != nil {
		return nil, err
	}
	policy, err := rank.ParsePolicy(r.Policy)
	if err != nil {
		return nil, err
	}
	opts := []rank.Option{rank.WithMetric(metric), rank.WithPolicy(policy)}
	if r.Index != "" {
		kind, err := index.ParseKind(r.Index)
		if err != nil {
			return nil, err
		}
		if metric != vector.MetricL2 {
			return nil, fmt.Errorf("config: rank.index requires the l2 metric")
		}
		opts = append(opts, rank.WithIndex(kind))
	}
	return opts, nil
}

// Remote converts the extractor settings for the face service client.
func (e ExtractorConfig) Remote() remote.Config {
	return remote.Config{
		Endpoint:      e.Endpoint,
		Timeout:       e.Timeout,
		RatePerSecond: e.RatePerSecond,
		Burst:         e.Burst,
		MaxFailures:   e.MaxFailures,
		OpenTimeout:   e.OpenTimeout,
	}
}
