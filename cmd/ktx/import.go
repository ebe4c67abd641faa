package main

import (
	"context"
	"image"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxkit/internal/imageio"
	"github.com/samcharles93/ktxkit/internal/logger"
	"github.com/samcharles93/ktxkit/pkg/ktx"
)

// defaultOrientation is the KTX orientation of images decoded top row first.
const defaultOrientation = "S=r,T=d"

func importCmd() *cli.Command {
	var (
		output   string
		levels   int
		compress bool
	)

	return &cli.Command{
		Name:      "import",
		Usage:     "Build an RGBA8 texture with a mip chain from one PNG, or a cubemap from six",
		ArgsUsage: "PNG [PNG...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output container path",
				Required:    true,
				Destination: &output,
			},
			&cli.IntFlag{Name: "levels", Usage: "mip levels to generate (0 = full chain)", Destination: &levels},
			compressFlag(&compress),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if n := cmd.NArg(); n != 1 && n != ktx.NumCubemapFaces {
				return cli.Exit("import: need one PNG or six cubemap faces (+X -X +Y -Y +Z -Z)", 2)
			}
			applyCompressConfig(cmd, configFrom(ctx), &compress)
			h, err := importPNGs(cmd.Args().Slice(), output, levels, compress)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("imported", "output", output,
				"width", h.PixelWidth, "height", h.PixelHeight,
				"levels", h.NumberOfLevels(), "faces", h.NumberOfFaces)
			return nil
		},
	}
}

func importPNGs(paths []string, output string, levels int, compress bool) (ktx.Header, error) {
	faces := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := imageio.ReadPNGFile(p)
		if err != nil {
			return ktx.Header{}, err
		}
		faces = append(faces, img)
	}

	h, data, err := imageio.FromImages(faces, imageio.Options{Levels: levels})
	if err != nil {
		return h, err
	}
	kvs := withWriter(ktx.KeyValues{ktx.NewStringKeyValue(ktx.KeyOrientation, defaultOrientation)})
	s, err := ktx.Build(h, kvs, data)
	if err != nil {
		return h, err
	}
	defer func() { _ = s.Release() }()
	return h, writeContainer(output, s, compress)
}
