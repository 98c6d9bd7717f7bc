package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"
	"io"
	"os"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/jrm-1535/autorotate"
	"github.com/jrm-1535/autorotate/exif"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the orientation and geometry metadata of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return inspect(cmd.OutOrStdout(), e, data)
	},
}

func inspect(w io.Writer, e *env, data []byte) error {
	mt := mimetype.Detect(data)
	fmt.Fprintf(w, "Type: %s (%d bytes)\n", mt.String(), len(data))
	if !mt.Is("image/jpeg") {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("%w: %w", autorotate.ErrInvalidFormat, err)
		}
		fmt.Fprintf(w, "Size: %dx%d (%s, no EXIF orientation support)\n", cfg.Width, cfg.Height, format)
		return nil
	}

	doc, err := e.codec.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %w", autorotate.ErrInvalidFormat, err)
	}
	fmt.Fprintf(w, "Size: %dx%d\n", doc.Width(), doc.Height())
	fmt.Fprintf(w, "Segments: %v\n", doc.Segments())
	fmt.Fprintf(w, "ICC profile: %d bytes\n", len(doc.ICCProfile))

	ex, err := autorotate.Extract(doc)
	if err != nil {
		fmt.Fprintf(w, "Orientation: %v\n", err)
	} else {
		fmt.Fprintf(w, "Orientation: %d (%s)\n", ex.Orientation, ex.Orientation)
		fmt.Fprintf(w, "GPS: %t\n", ex.GPS != nil)
		if ex.Thumbnail != nil {
			b := ex.Thumbnail.Raster.Bounds()
			fmt.Fprintf(w, "Thumbnail: %dx%d\n", b.Dx(), b.Dy())
		}
	}

	if doc.XMP != nil {
		attrs := doc.XMP.Attributes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "XMP:")
		for _, name := range names {
			fmt.Fprintf(w, "    %s = %q\n", name, attrs[name])
		}
	}
	if doc.Metadata != nil {
		return doc.Metadata.Format(w, []exif.IfdId{
			exif.PrimaryIfd, exif.ExifIfd, exif.InteropIfd, exif.GpsIfd, exif.ThumbnailIfd,
		})
	}
	return nil
}
