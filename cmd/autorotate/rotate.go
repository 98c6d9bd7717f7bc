package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	outputPath string
	inPlace    bool
)

var rotateCmd = &cobra.Command{
	Use:   "rotate <file>",
	Short: "Rotate an image so that its orientation becomes normal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		in := args[0]
		out, err := destination(in, e.cfg.Output.Suffix)
		if err != nil {
			return err
		}
		data, err := e.engine.RotateFile(in)
		if err != nil {
			return fmt.Errorf("failed to rotate %s: %w", in, err)
		}
		if err = writeFile(out, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		e.log.Info().Str("input", in).Str("output", out).Int("size", len(data)).Msg("Rotated image")
		return nil
	},
}

func init() {
	rotateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: input name with the configured suffix)")
	rotateCmd.Flags().BoolVar(&inPlace, "in-place", false, "replace the input file")
	rotateCmd.MarkFlagsMutuallyExclusive("output", "in-place")
}

func destination(in, suffix string) (string, error) {
	switch {
	case inPlace:
		return in, nil
	case outputPath != "":
		return outputPath, nil
	case suffix == "":
		return "", errors.New("no output given and no output suffix configured")
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + suffix + ext, nil
}

// writeFile writes data to a temporary file next to path, then renames it
// so that path never holds a partial image.
func writeFile(path string, data []byte) (retErr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".autorotate-*")
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
