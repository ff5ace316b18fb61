package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/rileyhilliard/sysinsight/internal/errors"
)

// CompressedSuffix selects zstd compression for an export path.
const CompressedSuffix = ".zst"

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Marshal encodes doc as indented JSON followed by a newline.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrIO,
			"Couldn't encode the report",
			"This is a bug; please report it with --verbose output.")
	}
	return append(data, '\n'), nil
}

// Encode writes doc to w as indented JSON.
func Encode(w io.Writer, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.WrapWithCode(err, errors.ErrIO, "Couldn't write the report", "")
	}
	return nil
}

// Export writes doc to path, replacing any existing file only once the new
// content is fully on disk. Paths ending in .zst are zstd-compressed.
func Export(path string, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}

	if strings.HasSuffix(path, CompressedSuffix) {
		if data, err = compress(data); err != nil {
			return errors.WrapWithCode(err, errors.ErrIO,
				fmt.Sprintf("Couldn't compress export for %s", path), "")
		}
	}

	if err := atomicWrite(path, data); err != nil {
		return errors.WrapWithCode(err, errors.ErrIO,
			fmt.Sprintf("Couldn't write export to %s", path),
			"Check that the directory exists and is writable.")
	}
	return nil
}

// Load reads an export written by Export. Compression is detected from the
// content, not the file name.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.WrapWithCode(err, errors.ErrIO,
			fmt.Sprintf("Couldn't read export %s", path),
			"Check the path, or create one with: sysinsight --export report.json")
	}
	doc, err := Decode(data)
	if err != nil {
		return Document{}, errors.WrapWithCode(err, errors.ErrIO,
			fmt.Sprintf("%s is not a sysinsight export", path),
			"Exports are JSON files, optionally zstd-compressed.")
	}
	return doc, nil
}

// Decode parses an export from plain or zstd-compressed bytes.
func Decode(data []byte) (Document, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return Document{}, err
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return Document{}, fmt.Errorf("zstd decompress: %w", err)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// atomicWrite writes data to path via a temporary file in the same
// directory and a rename.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sysinsight-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}
