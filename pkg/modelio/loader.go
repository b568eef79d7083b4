// Package modelio loads logical-model export files. It decodes structure
// only; model consistency is the extractor's problem, not ours.
package modelio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/constrictdb/constrict/pkg/apperrors"
	"github.com/constrictdb/constrict/pkg/models"
)

// LoadModel reads a logical-model export from a JSON or YAML file, selected
// by extension.
func LoadModel(path string) (*models.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("read model file: %w", err)
	}

	var model models.Model
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("decode model YAML %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("decode model JSON %s: %w", path, err)
		}
	}

	return &model, nil
}
