package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ktxkit/pkg/ktx"
)

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the header, metadata and level layout of a container",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the summary as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("inspect: missing FILE", 2)
			}
			k, err := ktx.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = k.Close() }()

			s := ktx.Describe(k)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			return printSummary(os.Stdout, path, s)
		},
	}
}

func printSummary(w io.Writer, path string, s ktx.Summary) error {
	h := s.Header
	p := &printer{w: w}
	p.printf("file:            %s\n", path)
	p.printf("byte order:      %s\n", s.ByteOrder)
	p.printf("gl type:         %s (size %d)\n", h.GLType, h.GLTypeSize)
	p.printf("gl format:       %s\n", h.GLFormat)
	p.printf("internal format: %s (base %s)\n", h.GLInternalFormat, h.GLBaseInternalFormat)
	p.printf("dimensions:      %dx%dx%d\n", h.PixelWidth, h.PixelHeight, h.PixelDepth)
	p.printf("array elements:  %d\n", h.NumberOfArrayElements)
	p.printf("faces:           %d\n", h.NumberOfFaces)
	p.printf("mip levels:      %d\n", len(s.Levels))
	p.printf("key/value bytes: %d\n", s.KeyValueDataSize)
	p.printf("texel bytes:     %d\n", s.TexelsDataSize)

	if len(s.KeyValues) > 0 {
		p.printf("\nkey/values:\n")
		for _, kv := range s.KeyValues {
			if kv.Binary {
				p.printf("  %s = <%d bytes>\n", kv.Key, kv.Size)
			} else {
				p.printf("  %s = %q\n", kv.Key, kv.Value)
			}
		}
	}

	p.printf("\nlevels:\n")
	for _, l := range s.Levels {
		p.printf("  %2d  %5dx%-5d depth %-3d faces %-3d face %-9d image %-9d offset %d\n",
			l.Level, l.Width, l.Height, l.Depth, l.Faces, l.FaceSize, l.ImageSize, l.Offset)
	}
	return p.err
}

// printer remembers the first write error so callers can check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
