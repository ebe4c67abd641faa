package main

import (
	"fmt"
	"os"

	"github.com/samcharles93/ktxkit/internal/version"
	"github.com/samcharles93/ktxkit/pkg/ktx"
)

func writerKeyValue() ktx.KeyValue {
	return ktx.NewStringKeyValue(ktx.KeyWriter, "ktxkit "+version.String())
}

// withWriter appends a KTXwriter entry unless kvs already has one.
func withWriter(kvs ktx.KeyValues) ktx.KeyValues {
	if _, ok := kvs.Get(ktx.KeyWriter); ok {
		return kvs
	}
	return append(kvs, writerKeyValue())
}

// writeContainer saves s to path, zstd-compressed when compress is set.
func writeContainer(path string, s *ktx.Storage, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if compress {
		err = ktx.CompressStorage(f, s)
	} else {
		_, err = f.Write(s.Data())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
