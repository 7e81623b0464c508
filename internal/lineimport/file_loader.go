package lineimport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"promo-console/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for files below a base directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader reading files below dir. Paths that would
// leave dir are rejected.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "line-file-loader").Logger(),
	}
}

// Load reads a product line file below the loader's directory.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.ProductLine, error) {
	fullPath, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", fullPath).Msg("loading product line file")

	file, err := os.Open(fullPath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", fullPath).Msg("failed to open product line file")
		return nil, fmt.Errorf("failed to open product line file %s: %w", path, err)
	}
	defer file.Close()

	lines, err := parse(ctx, path, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", fullPath).Msg("error reading product line file")
		return nil, err
	}

	l.logger.Info().
		Str("file", fullPath).
		Int("lines_loaded", len(lines)).
		Msg("product line file loaded successfully")

	return lines, nil
}

func (l *fileLoader) resolve(path string) (string, error) {
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("invalid product line path %q", path)
	}
	return filepath.Join(l.dir, filepath.Clean("/"+filepath.FromSlash(path))), nil
}
