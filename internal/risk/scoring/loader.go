package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadWeights reads a YAML weight file over the compiled-in defaults: any
// section the file omits keeps its default. Files without an explicit
// version are identified by a digest of their bytes.
func LoadWeights(path string) (Weights, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("read weights: %w", err)
	}
	return ParseWeights(data)
}

// ParseWeights decodes YAML weight tables over the defaults and validates them.
func ParseWeights(data []byte) (Weights, error) {
	w := DefaultWeights()
	w.Version = ""
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("decode weights: %w", err)
	}
	if w.Version == "" {
		sum := sha256.Sum256(data)
		w.Version = "sha256:" + hex.EncodeToString(sum[:6])
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("invalid weights: %w", err)
	}
	return w, nil
}
