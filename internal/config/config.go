package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"whirlpoolQuote/internal/model"
)

// Source kinds, in the order they are preferred when several are configured.
const (
	SourceSnapshot = "snapshot"
	SourcePostgres = "postgres"
	SourceRPC      = "rpc"
)

// SourceConfig selects where pool state is read from.
type SourceConfig struct {
	RPCURL       string
	Commitment   string
	Snapshot     string
	PGDSN        string
	ProgramID    string
	MaxRetries   int
	RetryBackoff time.Duration
}

// Kind returns the configured source, preferring a snapshot file, then
// Postgres, then RPC.
func (s SourceConfig) Kind() (string, error) {
	switch {
	case s.Snapshot != "":
		return SourceSnapshot, nil
	case s.PGDSN != "":
		return SourcePostgres, nil
	case s.RPCURL != "":
		return SourceRPC, nil
	default:
		return "", fmt.Errorf("one of --snapshot, --pg-dsn or --rpc is required")
	}
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
	File  string
}

// QuoteConfig holds settings for the single-quote commands.
type QuoteConfig struct {
	Source   SourceConfig
	Log      LogConfig
	Pool     string
	Slippage model.Percentage
}

// PoolConfig holds settings for the pool summary command.
type PoolConfig struct {
	Source SourceConfig
	Log    LogConfig
	Pool   string
}

// BatchConfig holds settings for the batch command. Slippage is carried by
// each request.
type BatchConfig struct {
	Source    SourceConfig
	Log       LogConfig
	In        string
	Out       string
	Errors    string
	Workers   int
	ChunkSize int
}

// SyncConfig holds settings for the sync command.
type SyncConfig struct {
	Source    SourceConfig
	Log       LogConfig
	Pool      string
	Out       string
	Radius    int
	Positions []string
	Migrate   bool
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("QUOTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("commitment", "confirmed")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func sourceConfig(v *viper.Viper) SourceConfig {
	return SourceConfig{
		RPCURL:       v.GetString("rpc"),
		Commitment:   v.GetString("commitment"),
		Snapshot:     v.GetString("snapshot"),
		PGDSN:        v.GetString("pg-dsn"),
		ProgramID:    v.GetString("program-id"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}
}

func logConfig(v *viper.Viper) LogConfig {
	return LogConfig{Level: v.GetString("log-level"), File: v.GetString("log-file")}
}

// LoadQuote merges config file, environment variables, and flags into
// QuoteConfig. Slippage has no default and must be supplied.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return QuoteConfig{}, err
	}
	slippage, err := model.ParsePercentage(v.GetString("slippage"))
	if err != nil {
		return QuoteConfig{}, err
	}
	cfg := QuoteConfig{
		Source:   sourceConfig(v),
		Log:      logConfig(v),
		Pool:     v.GetString("pool"),
		Slippage: slippage,
	}
	if _, err := cfg.Source.Kind(); err != nil {
		return QuoteConfig{}, err
	}
	return cfg, nil
}

// LoadPool merges config file, environment variables, and flags into
// PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return PoolConfig{}, err
	}
	cfg := PoolConfig{Source: sourceConfig(v), Log: logConfig(v), Pool: v.GetString("pool")}
	if _, err := cfg.Source.Kind(); err != nil {
		return PoolConfig{}, err
	}
	return cfg, nil
}

// LoadBatch merges config file, environment variables, and flags into
// BatchConfig.
func LoadBatch(cfgFile string, flags *pflag.FlagSet) (BatchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return BatchConfig{}, err
	}
	v.SetDefault("workers", 4)
	v.SetDefault("chunk-size", 256)

	cfg := BatchConfig{
		Source:    sourceConfig(v),
		Log:       logConfig(v),
		In:        v.GetString("in"),
		Out:       v.GetString("out"),
		Errors:    v.GetString("errors"),
		Workers:   v.GetInt("workers"),
		ChunkSize: v.GetInt("chunk-size"),
	}
	if cfg.Workers <= 0 {
		return BatchConfig{}, fmt.Errorf("workers must be greater than zero")
	}
	if _, err := cfg.Source.Kind(); err != nil {
		return BatchConfig{}, err
	}
	return cfg, nil
}

// LoadSync merges config file, environment variables, and flags into
// SyncConfig. Sync always reads from RPC.
func LoadSync(cfgFile string, flags *pflag.FlagSet) (SyncConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SyncConfig{}, err
	}
	v.SetDefault("radius", 3)

	cfg := SyncConfig{
		Source:    sourceConfig(v),
		Log:       logConfig(v),
		Pool:      v.GetString("pool"),
		Out:       v.GetString("out"),
		Radius:    v.GetInt("radius"),
		Positions: getStringSlice(v, "position"),
		Migrate:   v.GetBool("migrate"),
	}
	if cfg.Source.RPCURL == "" {
		return SyncConfig{}, fmt.Errorf("--rpc is required")
	}
	if cfg.Pool == "" {
		return SyncConfig{}, fmt.Errorf("--pool is required")
	}
	if cfg.Out == "" && cfg.Source.PGDSN == "" {
		return SyncConfig{}, fmt.Errorf("one of --out or --pg-dsn is required")
	}
	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
