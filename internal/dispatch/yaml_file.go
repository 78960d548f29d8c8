package dispatch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPositionFile is the file an external executor polls.
const DefaultPositionFile = "signal_position.yaml"

// YAMLFileDispatcher writes the snapshot to a YAML file. The file is replaced
// atomically so a reader sees either the old or the new content.
type YAMLFileDispatcher struct {
	path string
	mode PayloadMode
}

func NewYAMLFileDispatcher(path string, mode PayloadMode) (*YAMLFileDispatcher, error) {
	if path == "" {
		path = DefaultPositionFile
	}

	if !mode.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown payload mode %q", mode)
	}

	return &YAMLFileDispatcher{path: path, mode: mode}, nil
}

func (d *YAMLFileDispatcher) Name() string {
	return "yaml_file"
}

func (d *YAMLFileDispatcher) Path() string {
	return d.path
}

func (d *YAMLFileDispatcher) Dispatch(_ context.Context, rec *types.Recommendation) error {
	data, err := yaml.Marshal(Payload(rec, d.mode))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDispatchFailed, "failed to encode recommendation", err)
	}

	return writeAtomic(d.path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDispatchFailed, "failed to create temp file", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return errors.Wrap(errors.ErrCodeDispatchFailed, "failed to write temp file", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return errors.Wrap(errors.ErrCodeDispatchFailed, "failed to close temp file", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return errors.Wrapf(errors.ErrCodeDispatchFailed, err, "failed to replace %s", path)
	}

	return nil
}

// ReadPositionFile reads the signed target quantity back from a file
// written in either payload mode. A missing file reads as zero.
func ReadPositionFile(path string) (decimal.Decimal, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return decimal.Zero, nil
	}

	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeConfigReadFailed, err, "failed to read %s", path)
	}

	var doc struct {
		SignalPosition *decimal.Decimal `yaml:"signal_position"`
		Quantity       *decimal.Decimal `yaml:"quantity"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodeConfigReadFailed, err, "failed to decode %s", path)
	}

	switch {
	case doc.SignalPosition != nil:
		return *doc.SignalPosition, nil
	case doc.Quantity != nil:
		return *doc.Quantity, nil
	default:
		return decimal.Zero, nil
	}
}
