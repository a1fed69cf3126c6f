package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sanspareilsmyn/reservoirlens/internal/predictor"
	"github.com/sanspareilsmyn/reservoirlens/internal/stats"
)

const (
	defaultKafkaGroupID   = "reservoirlens-default-group"
	defaultWorkers        = 4
	defaultEmitEvery      = 1
	defaultChannelBuffer  = 100
	defaultSkipWarmup     = true
	defaultMetricsEnabled = true
	defaultMetricsAddress = ":2112"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogFileEnabled = false
	defaultLogDirectory   = "log"
	defaultLogFilename    = "app.log"
	defaultLogMaxSizeMB   = 100
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 7
	defaultLogCompress    = false

	// Environment variable prefix
	envPrefix = "RESERVOIRLENS"
)

type Config struct {
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	Output     OutputConfig      `mapstructure:"output"`
	Pipeline   PipelineConfig    `mapstructure:"pipeline"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Predictors []PredictorConfig `mapstructure:"predictors"`
	Log        LogConfig         `mapstructure:"log"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

// OutputConfig enables publishing predictor vectors when Topic is set.
// Brokers default to the input brokers.
type OutputConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type PipelineConfig struct {
	Workers       int  `mapstructure:"workers"`
	EmitEvery     int  `mapstructure:"emitEvery"`     // emit a vector every N steps per unit
	ChannelBuffer int  `mapstructure:"channelBuffer"` // per-stage channel capacity
	SkipWarmup    bool `mapstructure:"skipWarmup"`    // hold vectors until windows are full
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// PredictorConfig is one predictor descriptor. A Window of 0 (or none)
// selects the continuous variant.
type PredictorConfig struct {
	ID       string  `mapstructure:"id"`
	Window   int     `mapstructure:"window"`
	Figure   string  `mapstructure:"figure"`
	Series   string  `mapstructure:"series"`
	Exponent float64 `mapstructure:"exponent"`
	KeepSign bool    `mapstructure:"keepSign"`
	Fading   float64 `mapstructure:"fading"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if len(cfg.Output.Brokers) == 0 {
		cfg.Output.Brokers = cfg.Kafka.Brokers
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("pipeline.workers", defaultWorkers)
	v.SetDefault("pipeline.emitEvery", defaultEmitEvery)
	v.SetDefault("pipeline.channelBuffer", defaultChannelBuffer)
	v.SetDefault("pipeline.skipWarmup", defaultSkipWarmup)
	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.address", defaultMetricsAddress)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if cfg.Kafka.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if cfg.Kafka.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	if cfg.Pipeline.Workers <= 0 {
		return ErrInvalidPipelineWorkers
	}
	if cfg.Pipeline.EmitEvery <= 0 {
		return ErrInvalidPipelineEmit
	}
	if cfg.Pipeline.ChannelBuffer < 0 {
		return ErrInvalidChannelBuffer
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Address == "" {
		return ErrEmptyMetricsAddress
	}
	if _, err := cfg.PredictorSettings(); err != nil {
		return err
	}
	return nil
}

// PredictorSettings converts the descriptors into validated engine settings.
func (c *Config) PredictorSettings() ([]predictor.Settings, error) {
	if len(c.Predictors) == 0 {
		return nil, ErrEmptyPredictors
	}
	settings := make([]predictor.Settings, 0, len(c.Predictors))
	for i, pc := range c.Predictors {
		s, err := pc.Settings()
		if err != nil {
			return nil, fmt.Errorf("%w: predictors[%d]: %w", ErrInvalidPredictor, i, err)
		}
		settings = append(settings, s)
	}
	return settings, nil
}

// Settings parses and validates a single descriptor.
func (pc PredictorConfig) Settings() (predictor.Settings, error) {
	id, err := predictor.ParseID(pc.ID)
	if err != nil {
		return predictor.Settings{}, err
	}
	s := predictor.Settings{
		ID:       id,
		Window:   pc.Window,
		Exponent: pc.Exponent,
		KeepSign: pc.KeepSign,
		Strength: pc.Fading,
	}
	if id == predictor.ActivationStat {
		if s.Figure, err = stats.ParseFigure(pc.Figure); err != nil {
			return predictor.Settings{}, err
		}
	}
	if s.Series, err = predictor.ParseSeries(pc.Series); err != nil {
		return predictor.Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return predictor.Settings{}, err
	}
	return s, nil
}
