package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxkit/internal/imageio"
	"github.com/samcharles93/ktxkit/internal/logger"
	"github.com/samcharles93/ktxkit/pkg/ktx"
)

func extractCmd() *cli.Command {
	var (
		mip    int
		face   int
		asPNG  bool
		output string
	)

	return &cli.Command{
		Name:      "extract",
		Usage:     "Write the texels of one mip level and face",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "mip", Usage: "mip level", Destination: &mip},
			&cli.IntFlag{Name: "face", Usage: "face unit (slice*faces + face)", Destination: &face},
			&cli.BoolFlag{Name: "png", Usage: "decode RGBA8 texels and write a PNG", Destination: &asPNG},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default stdout)",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("extract: missing FILE", 2)
			}
			k, err := ktx.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = k.Close() }()

			n, err := extract(k, mip, face, asPNG, output)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("extracted", "file", path, "mip", mip, "face", face, "bytes", n)
			return nil
		},
	}
}

// extract writes one face to output, or stdout when output is empty, and
// returns the number of texel bytes read. A partially written output file is
// removed.
func extract(k *ktx.KTX, mip, face int, asPNG bool, output string) (uint64, error) {
	v := k.MipFaceTexelsData(mip, face)
	if v == nil {
		return 0, cli.Exit(fmt.Sprintf("extract: no face %d at level %d (%d levels, %d faces)",
			face, mip, k.NumberOfLevels(), k.NumberOfFaces()), 1)
	}
	defer func() { _ = v.Release() }()

	var img image.Image
	if asPNG {
		var err error
		if img, err = imageio.ToImage(k, mip, face); err != nil {
			return 0, err
		}
	}

	if output == "" {
		if err := writeFace(os.Stdout, v, img); err != nil {
			return 0, err
		}
		return v.Len(), nil
	}

	f, err := os.Create(output)
	if err != nil {
		return 0, err
	}
	err = writeFace(f, v, img)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(output)
		return 0, fmt.Errorf("write %s: %w", output, err)
	}
	return v.Len(), nil
}

// writeFace encodes img as PNG when set, otherwise copies the raw texels.
func writeFace(w io.Writer, v *ktx.View, img image.Image) error {
	if img != nil {
		return imageio.EncodePNG(w, img)
	}
	_, err := w.Write(v.Bytes())
	return err
}
