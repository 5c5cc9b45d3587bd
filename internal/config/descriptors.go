package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Descriptors returns the parsed <dir>/<pkg>.json descriptor file.
// The boolean is false when the file does not exist.
func (p *Provider) Descriptors(pkg string) (map[string]any, bool, error) {
	path := filepath.Join(p.dir, pkg+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read descriptors %s: %w", path, err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("parse descriptors %s: %w", path, err)
	}
	return out, true, nil
}
