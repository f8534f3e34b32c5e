package files

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteFile writes data to path, creating parent directories. With bom set
// the file starts with a UTF-8 byte order mark, as Alteryx Designer saves it.
func WriteFile(path string, data []byte, bom bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if bom {
		encoded, _, err := transform.Bytes(unicode.UTF8BOM.NewEncoder(), data)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		data = encoded
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
