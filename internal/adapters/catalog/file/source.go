package file

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/olusolaa/usb-driver-reconciler/internal/core/ports"
	"github.com/olusolaa/usb-driver-reconciler/internal/errors"
)

const (
	SourceTypeFile = "file"
	DefaultPath    = "drivers.txt"

	maxLineLength = 64 * 1024
	utf8BOM       = "\ufeff"
)

type Config struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// Source reads a driver catalog from a text file.
type Source struct {
	fs     afero.Fs
	path   string
	logger ports.Logger
}

func NewSource(cfg Config, fs afero.Fs, logger ports.Logger) (*Source, error) {
	if cfg.Path == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "catalog path cannot be empty", "Set --catalog or catalog.path.")
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Source{
		fs:   fs,
		path: cfg.Path,
		logger: logger.WithFields(map[string]any{
			"component": "catalog",
			"catalog":   cfg.Path,
		}),
	}, nil
}

func (s *Source) Name() string { return s.path }

// Lines returns every line, comments included, numbered from 1.
func (s *Source) Lines(ctx context.Context) ([]ports.CatalogLine, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeCatalogReadError,
			fmt.Sprintf("Could not open %s", s.path), "Check that the catalog file exists and is readable.")
	}
	defer f.Close()

	var lines []ports.CatalogLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if n == 1 {
			text = strings.TrimPrefix(text, utf8BOM)
		}
		lines = append(lines, ports.CatalogLine{Number: n, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCatalogReadError, fmt.Sprintf("failed reading %s after line %d", s.path, n))
	}

	s.logger.Debugf(ctx, "Loaded %d lines", len(lines))
	return lines, nil
}
