package model

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/zpam/sms-filter/pkg/apperr"
	"github.com/zpam/sms-filter/pkg/dataset"
	"github.com/zpam/sms-filter/pkg/learning"
)

// FormatVersion is bumped whenever the artifact layout changes.
const FormatVersion = 1

var magic = []byte("ZSMSMDL1")

const maxDecodedSize = 512 << 20

// artifact is the on-disk form of a Model: magic header followed by
// zstd-compressed JSON.
type artifact struct {
	Version    int                      `json:"version"`
	Classes    []dataset.Label          `json:"classes"`
	Vectorizer learning.VectorizerState `json:"vectorizer"`
	Classifier learning.NBState         `json:"classifier"`
	Metadata   Metadata                 `json:"metadata"`
}

// Marshal encodes m into artifact bytes.
func Marshal(m *Model) ([]byte, error) {
	vs, err := m.vectorizer.State()
	if err != nil {
		return nil, err
	}
	ns, err := m.classifier.State()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(artifact{
		Version:    FormatVersion,
		Classes:    dataset.Labels,
		Vectorizer: vs,
		Classifier: ns,
		Metadata:   m.meta,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode model")
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, errors.Wrap(err, "create compressor")
	}
	defer enc.Close()

	out := make([]byte, 0, len(magic)+len(payload)/4)
	out = append(out, magic...)
	return enc.EncodeAll(payload, out), nil
}

// Unmarshal decodes artifact bytes. Every failure wraps apperr.ErrModelCorrupt.
func Unmarshal(data []byte) (*Model, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, errors.Wrap(apperr.ErrModelCorrupt, "missing artifact header")
	}

	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, errors.Wrap(err, "create decompressor")
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(data[len(magic):], nil)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "decompress: %v", err)
	}

	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "decode: %v", err)
	}
	if a.Version != FormatVersion {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "unsupported format version %d", a.Version)
	}
	if !slices.Equal(a.Classes, dataset.Labels) {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "unexpected classes %v", a.Classes)
	}

	v, err := learning.VectorizerFromState(a.Vectorizer)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "vectorizer: %v", err)
	}
	nb, err := learning.MultinomialNBFromState(a.Classifier)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "classifier: %v", err)
	}
	m, err := New(v, nb, a.Metadata)
	if err != nil {
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "%v", err)
	}
	return m, nil
}

// Save writes m to path, replacing any existing file. The write goes to a
// temporary file in the same directory that is renamed into place, so a
// failed save never leaves a truncated artifact behind. It returns the
// artifact size in bytes.
func Save(path string, m *Model) (int64, error) {
	data, err := Marshal(m)
	if err != nil {
		return 0, errors.Wrapf(apperr.ErrSerialization, "%v", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrapf(apperr.ErrSerialization, "create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".zsms-*")
	if err != nil {
		return 0, errors.Wrapf(apperr.ErrSerialization, "create temp file: %v", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return 0, errors.Wrapf(apperr.ErrSerialization, "write %s: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return 0, errors.Wrapf(apperr.ErrSerialization, "sync %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, errors.Wrapf(apperr.ErrSerialization, "close %s: %v", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return 0, errors.Wrapf(apperr.ErrSerialization, "chmod %s: %v", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return 0, errors.Wrapf(apperr.ErrSerialization, "rename into %s: %v", path, err)
	}

	return int64(len(data)), nil
}

// Load reads the whole artifact at path into memory and decodes it.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(apperr.ErrModelNotFound, "model file '%s' not found", path)
		}
		return nil, errors.Wrapf(apperr.ErrModelCorrupt, "read %s: %v", path, err)
	}

	m, err := Unmarshal(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "model '%s'", path)
	}
	return m, nil
}
