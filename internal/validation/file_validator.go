// Package validation checks the files the command line tools read and the
// directories they write before any scoring work starts.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"optionrank/internal/config"
)

var (
	// ErrNotSnapshot is returned for inputs without the snapshot suffix
	ErrNotSnapshot = errors.New("not a snapshot file")
	// ErrEmptyFile is returned for zero byte inputs
	ErrEmptyFile = errors.New("file is empty")
	// ErrFileTooLarge is returned for inputs above the size cap
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// FileValidator validates input snapshots and report directories
type FileValidator struct {
	maxSize int64
	logger  *slog.Logger
}

// NewFileValidator creates a validator capped at config.MaxSnapshotFileSize
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxSize: config.MaxSnapshotFileSize,
		logger:  logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateSnapshotFile checks that path is a readable, non-empty .json file
// within the size cap
func (v *FileValidator) ValidateSnapshotFile(path string) error {
	if !strings.EqualFold(filepath.Ext(path), config.SnapshotFileSuffix) {
		return fmt.Errorf("%s: %w", path, ErrNotSnapshot)
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("snapshot %s does not exist", path)
	case err != nil:
		return fmt.Errorf("stat snapshot %s: %w", path, err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory, not a file", path)
	case info.Size() == 0:
		return fmt.Errorf("%s: %w", path, ErrEmptyFile)
	case info.Size() > v.maxSize:
		return fmt.Errorf("%s is %d bytes, limit %d: %w", path, info.Size(), v.maxSize, ErrFileTooLarge)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot %s is not readable: %w", path, err)
	}
	f.Close()

	v.logger.Debug("snapshot file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory creates dir when missing and proves it writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("output directory validated", slog.String("directory", dir))
	return nil
}

// CountSnapshots returns the number of snapshot files directly inside dir
func (v *FileValidator) CountSnapshots(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), config.SnapshotFileSuffix) {
			n++
		}
	}
	return n, nil
}
