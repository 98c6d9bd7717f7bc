package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrm-1535/autorotate"
	"github.com/jrm-1535/autorotate/container"
	"github.com/jrm-1535/autorotate/internal/config"
	"github.com/jrm-1535/autorotate/internal/logging"
)

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "autorotate",
	Short:         "Normalize the orientation of JPEG images according to their EXIF metadata",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env is what every subcommand needs once the configuration is loaded.
type env struct {
	cfg    config.Config
	log    zerolog.Logger
	codec  *container.Codec
	engine *autorotate.Engine
}

func setup() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Logging, nil)
	opts := cfg.CodecOptions()
	opts.Control.Log = log
	codec := container.New(opts, log)
	return &env{
		cfg:    cfg,
		log:    log,
		codec:  codec,
		engine: autorotate.New(codec, log),
	}, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logging.New(config.Default().Logging, nil)
		log.Error().Err(err).Msg("Failed to execute command")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	rootCmd.AddCommand(rotateCmd, inspectCmd)
}
