package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/ktxkit/internal/logger"
	"github.com/samcharles93/ktxkit/pkg/ktx"
)

// Manifest describes a container to assemble from raw face files:
//
//	gl_type: UNSIGNED_INT_8_8_8_8_REV
//	gl_type_size: 4
//	gl_format: RGBA
//	gl_internal_format: RGBA8
//	width: 256
//	height: 256
//	faces: 6
//	key_values:
//	  - key: KTXorientation
//	    value: S=r,T=d
//	levels:
//	  - faces: [px.bin, nx.bin, py.bin, ny.bin, pz.bin, nz.bin]
//
// GL enums may be names or numbers. Face paths are relative to the manifest.
type Manifest struct {
	GLType               enumValue          `yaml:"gl_type"`
	GLTypeSize           uint32             `yaml:"gl_type_size"`
	GLFormat             enumValue          `yaml:"gl_format"`
	GLInternalFormat     enumValue          `yaml:"gl_internal_format"`
	GLBaseInternalFormat enumValue          `yaml:"gl_base_internal_format"`
	Width                uint32             `yaml:"width"`
	Height               uint32             `yaml:"height"`
	Depth                uint32             `yaml:"depth"`
	ArrayElements        uint32             `yaml:"array_elements"`
	Faces                uint32             `yaml:"faces"`
	KeyValues            []manifestKeyValue `yaml:"key_values"`
	Levels               []manifestLevel    `yaml:"levels"`
}

type manifestKeyValue struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
	// Hex holds a binary value; Value is ignored when it is set.
	Hex string `yaml:"hex"`
}

type manifestLevel struct {
	Faces []string `yaml:"faces"`
}

// enumValue is a GL enum written either as a number or as a name.
type enumValue struct {
	name  string
	value uint32
}

func (e *enumValue) UnmarshalYAML(n *yaml.Node) error {
	var v uint32
	if err := n.Decode(&v); err == nil {
		e.value = v
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return fmt.Errorf("line %d: expected a GL enum name or number", n.Line)
	}
	e.name = s
	return nil
}

func resolveEnum[T ~uint32](e enumValue, field string, parse func(string) (T, bool)) (T, error) {
	if e.name == "" {
		return T(e.value), nil
	}
	v, ok := parse(e.name)
	if !ok {
		return 0, fmt.Errorf("manifest: %s: unknown value %q", field, e.name)
	}
	return v, nil
}

func LoadManifest(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, err
	}
	defer func() { _ = f.Close() }()

	var m Manifest
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	if len(m.Levels) == 0 {
		return Manifest{}, fmt.Errorf("manifest %s: no levels", path)
	}
	return m, nil
}

func (m Manifest) Header() (ktx.Header, error) {
	h := ktx.NewHeader()
	var err error
	if h.GLType, err = resolveEnum(m.GLType, "gl_type", ktx.ParseGLType); err != nil {
		return h, err
	}
	if h.GLFormat, err = resolveEnum(m.GLFormat, "gl_format", ktx.ParseGLFormat); err != nil {
		return h, err
	}
	if h.GLInternalFormat, err = resolveEnum(m.GLInternalFormat, "gl_internal_format", ktx.ParseGLInternalFormat); err != nil {
		return h, err
	}
	if h.GLBaseInternalFormat, err = resolveEnum(m.GLBaseInternalFormat, "gl_base_internal_format", ktx.ParseGLFormat); err != nil {
		return h, err
	}
	if h.GLBaseInternalFormat == ktx.GLFormatNone {
		h.GLBaseInternalFormat = h.GLFormat
	}
	h.GLTypeSize = m.GLTypeSize
	h.PixelWidth = m.Width
	h.PixelHeight = m.Height
	h.PixelDepth = m.Depth
	h.NumberOfArrayElements = m.ArrayElements
	h.NumberOfFaces = max(m.Faces, 1)
	h.NumberOfMipmapLevels = uint32(len(m.Levels))
	return h, nil
}

func (m Manifest) KeyValuesList() (ktx.KeyValues, error) {
	kvs := make(ktx.KeyValues, 0, len(m.KeyValues)+1)
	for _, e := range m.KeyValues {
		if e.Key == "" {
			return nil, errors.New("manifest: key/value entry without a key")
		}
		if e.Hex == "" {
			kvs = append(kvs, ktx.NewStringKeyValue(e.Key, e.Value))
			continue
		}
		b, err := hex.DecodeString(e.Hex)
		if err != nil {
			return nil, fmt.Errorf("manifest: key %s: %w", e.Key, err)
		}
		kvs = append(kvs, ktx.NewKeyValue(e.Key, b))
	}
	return withWriter(kvs), nil
}

// pack streams the container described by the manifest at manifestPath to
// out and returns its header.
func pack(manifestPath, out string, compress bool) (ktx.Header, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return ktx.Header{}, err
	}
	h, err := m.Header()
	if err != nil {
		return h, err
	}
	kvs, err := m.KeyValuesList()
	if err != nil {
		return h, err
	}
	levels, err := m.readFaces(filepath.Dir(manifestPath))
	if err != nil {
		return h, err
	}

	if compress {
		s, err := ktx.Build(h, kvs, levels)
		if err != nil {
			return h, err
		}
		defer func() { _ = s.Release() }()
		return h, writeContainer(out, s, true)
	}

	f, err := os.Create(out)
	if err != nil {
		return h, err
	}
	if err := streamLevels(f, h, kvs, levels); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return h, err
	}
	return h, f.Close()
}

func streamLevels(f *os.File, h ktx.Header, kvs ktx.KeyValues, levels [][][]byte) error {
	w, err := ktx.NewWriter(f, h, kvs)
	if err != nil {
		return err
	}
	for _, faces := range levels {
		if err := w.WriteLevel(faces...); err != nil {
			return err
		}
	}
	return w.Close()
}

func (m Manifest) readFaces(dir string) ([][][]byte, error) {
	levels := make([][][]byte, len(m.Levels))
	for i, l := range m.Levels {
		for _, name := range l.Faces {
			if !filepath.IsAbs(name) {
				name = filepath.Join(dir, name)
			}
			b, err := os.ReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("level %d: %w", i, err)
			}
			levels[i] = append(levels[i], b)
		}
	}
	return levels, nil
}

func packCmd() *cli.Command {
	var (
		manifest string
		output   string
		compress bool
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Assemble a container from a YAML manifest and raw face files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "manifest",
				Aliases:     []string{"m"},
				Usage:       "path to the manifest",
				Required:    true,
				Destination: &manifest,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output container path",
				Required:    true,
				Destination: &output,
			},
			compressFlag(&compress),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyCompressConfig(cmd, configFrom(ctx), &compress)
			h, err := pack(manifest, output, compress)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("packed", "output", output,
				"size", fmt.Sprintf("%dx%dx%d", h.PixelWidth, h.PixelHeight, h.PixelDepth),
				"levels", h.NumberOfLevels(), "faces", h.FaceUnits(), "zstd", compress)
			return nil
		},
	}
}
