package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration. It is built once at
// startup and passed into component constructors; nothing reads it from
// ambient process state after Load returns.
type Config struct {
	Plex     PlexConfig     `yaml:"plex"`
	Previews PreviewsConfig `yaml:"previews"`
	Workers  WorkersConfig  `yaml:"workers"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlexConfig holds connection settings for the Plex server.
type PlexConfig struct {
	URL     string        `yaml:"url" env:"PLEX_URL"`
	Token   string        `yaml:"token" env:"PLEX_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"PLEX_TIMEOUT"`
}

// PreviewsConfig holds preview generation settings.
type PreviewsConfig struct {
	// FrameInterval is the spacing in seconds between sampled frames.
	FrameInterval int `yaml:"frame_interval" env:"PLEX_BIF_FRAME_INTERVAL"`
	// ThumbnailQuality is the ffmpeg -q:v value (2 best, 31 worst).
	ThumbnailQuality int `yaml:"thumbnail_quality" env:"THUMBNAIL_QUALITY"`
	// MediaPath is the Plex "Media" directory holding bundle directories.
	MediaPath string `yaml:"media_path" env:"PLEX_LOCAL_MEDIA_PATH"`
	// TmpDir is where per-item frame directories are created.
	TmpDir string `yaml:"tmp_dir" env:"TMP_FOLDER"`
	// PathMappingFrom/To remap source paths reported by Plex to paths
	// visible on this machine. Empty values disable remapping.
	PathMappingFrom string `yaml:"path_mapping_from" env:"PLEX_VIDEOS_PATH_MAPPING"`
	PathMappingTo   string `yaml:"path_mapping_to" env:"PLEX_LOCAL_VIDEOS_PATH_MAPPING"`
	// FFmpegPath overrides PATH lookup of the ffmpeg binary.
	FFmpegPath string `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	// FFmpegTimeout bounds a single extraction run. Zero disables the limit.
	FFmpegTimeout time.Duration `yaml:"ffmpeg_timeout" env:"FFMPEG_TIMEOUT"`
}

// WorkersConfig sizes the job pool and the hardware admission budget.
type WorkersConfig struct {
	GPU int `yaml:"gpu" env:"GPU_THREADS"`
	CPU int `yaml:"cpu" env:"CPU_THREADS"`
}

// DatabaseConfig holds metrics store settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH"`
}

// MetricsConfig holds the report web view settings.
type MetricsConfig struct {
	Host string `yaml:"host" env:"METRICS_HOST"`
	Port int    `yaml:"port" env:"METRICS_PORT"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns the default application configuration.
func Default() *Config {
	return &Config{
		Plex: PlexConfig{
			Timeout: 60 * time.Second,
		},
		Previews: PreviewsConfig{
			FrameInterval:    5,
			ThumbnailQuality: 4,
			TmpDir:           "/dev/shm/previewgen",
			FFmpegPath:       "ffmpeg",
			FFmpegTimeout:    1 * time.Hour,
		},
		Workers: WorkersConfig{
			GPU: 4,
			CPU: 4,
		},
		Database: DatabaseConfig{
			Path: "previewgen.db",
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variable overrides, in that order.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Plex.URL == "" {
		return fmt.Errorf("plex.url (PLEX_URL) is required")
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("plex.token (PLEX_TOKEN) is required")
	}
	if c.Previews.FrameInterval < 1 {
		return fmt.Errorf("previews.frame_interval must be at least 1 second")
	}
	if c.Previews.ThumbnailQuality < 2 || c.Previews.ThumbnailQuality > 31 {
		return fmt.Errorf("previews.thumbnail_quality must be between 2 and 31")
	}
	if c.Previews.MediaPath == "" {
		return fmt.Errorf("previews.media_path (PLEX_LOCAL_MEDIA_PATH) is required")
	}
	if c.Workers.GPU < 0 || c.Workers.CPU < 0 {
		return fmt.Errorf("worker counts must not be negative")
	}
	if c.Workers.GPU+c.Workers.CPU == 0 {
		return fmt.Errorf("at least one of workers.gpu or workers.cpu must be non-zero")
	}
	return nil
}

// PoolSize returns the number of concurrent item jobs to run.
func (c *Config) PoolSize() int {
	return c.Workers.GPU + c.Workers.CPU
}

func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from %s: %w", fieldType.Name, envTag, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			// Plain integers are taken as seconds for compatibility with
			// installations that configure timeouts as bare numbers.
			if secs, err := strconv.Atoi(value); err == nil {
				field.SetInt(int64(time.Duration(secs) * time.Second))
				return nil
			}
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
			return nil
		}
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
