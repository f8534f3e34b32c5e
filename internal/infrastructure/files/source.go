package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrNoInput      = errors.New("either a path or inline XML is required")
	ErrAmbiguous    = errors.New("a path and inline XML were both given")
	ErrFileTooLarge = errors.New("input exceeds the size limit")
)

// TooLargeError reports an input over limits.max_file_size.
type TooLargeError struct {
	Path  string
	Limit int64
}

func (e *TooLargeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("inline document exceeds %d bytes", e.Limit)
	}
	return fmt.Sprintf("%s exceeds %d bytes", e.Path, e.Limit)
}

func (e *TooLargeError) Unwrap() error {
	return ErrFileTooLarge
}

// Source reads workflow documents at the process boundary. Everything past
// it works on UTF-8 bytes without a byte order mark.
type Source struct {
	maxSize int64
	logger  *slog.Logger
}

func NewSource(limits config.LimitsConfig, logger *slog.Logger) *Source {
	return &Source{maxSize: limits.MaxFileSize, logger: logger}
}

// Load returns the document named by path, or inline when path is empty.
func (s *Source) Load(ctx context.Context, path, inline string) ([]byte, error) {
	switch {
	case path != "" && inline != "":
		return nil, ErrAmbiguous
	case path != "":
		return s.ReadFile(ctx, path)
	case inline != "":
		if s.maxSize > 0 && int64(len(inline)) > s.maxSize {
			return nil, &TooLargeError{Limit: s.maxSize}
		}
		return StripBOM([]byte(inline))
	default:
		return nil, ErrNoInput
	}
}

// ReadFile reads at most the configured limit from path.
func (s *Source) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if s.maxSize > 0 {
		r = io.LimitReader(f, s.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, &TooLargeError{Path: path, Limit: s.maxSize}
	}

	s.logger.Debug("Read workflow document", "path", path, "bytes", len(data))
	return StripBOM(data)
}

// StripBOM removes a leading UTF-8 byte order mark. UTF-16 input marked by a
// BOM is transcoded to UTF-8.
func StripBOM(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) &&
		!bytes.HasPrefix(data, []byte{0xFE, 0xFF}) &&
		!bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		return data, nil
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode byte order mark: %w", err)
	}
	return out, nil
}
