// Package config loads the YAML configuration of the autorotate command.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jrm-1535/autorotate/container"
	"github.com/jrm-1535/autorotate/exif"
)

type Config struct {
	JPEG    JPEGConfig    `yaml:"jpeg"`
	Exif    ExifConfig    `yaml:"exif"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

type JPEGConfig struct {
	Quality          int `yaml:"quality"`
	ThumbnailQuality int `yaml:"thumbnail_quality"`
}

type ExifConfig struct {
	Unknown string `yaml:"unknown"` // keep, remove or stop
	Warn    bool   `yaml:"warn"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // pretty or json
}

type OutputConfig struct {
	Suffix string `yaml:"suffix"` // appended to the file name when no output is given
}

func Default() Config {
	return Config{
		JPEG: JPEGConfig{
			Quality:          container.DefaultQuality,
			ThumbnailQuality: container.DefaultThumbnailQuality,
		},
		Exif: ExifConfig{
			Unknown: "keep",
			Warn:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "pretty",
		},
		Output: OutputConfig{
			Suffix: "-rotated",
		},
	}
}

// Load reads the configuration at path over the defaults. An empty path or
// a missing file yields the defaults.
func Load(path string) (cfg Config, retErr error) {
	cfg = Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			retErr = errors.Join(retErr, closeErr)
		}
	}()
	if err = yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

var unknownPolicies = map[string]uint{
	"keep":   exif.Keep,
	"remove": exif.Remove,
	"stop":   exif.Stop,
}

func (cfg *Config) Validate() error {
	var errs []error
	if q := cfg.JPEG.Quality; q < 1 || q > 100 {
		errs = append(errs, fmt.Errorf("jpeg.quality %d is not in 1..100", q))
	}
	if q := cfg.JPEG.ThumbnailQuality; q < 1 || q > 100 {
		errs = append(errs, fmt.Errorf("jpeg.thumbnail_quality %d is not in 1..100", q))
	}
	if _, ok := unknownPolicies[cfg.Exif.Unknown]; !ok {
		errs = append(errs, fmt.Errorf("exif.unknown %q is not keep, remove or stop", cfg.Exif.Unknown))
	}
	switch cfg.Logging.Format {
	case "pretty", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not pretty or json", cfg.Logging.Format))
	}
	return errors.Join(errs...)
}

// CodecOptions returns the container options described by cfg.
func (cfg *Config) CodecOptions() container.Options {
	return container.Options{
		Quality:          cfg.JPEG.Quality,
		ThumbnailQuality: cfg.JPEG.ThumbnailQuality,
		Control: &exif.Control{
			Unknown: unknownPolicies[cfg.Exif.Unknown],
			Warn:    cfg.Exif.Warn,
		},
	}
}
