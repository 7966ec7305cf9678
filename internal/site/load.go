package site

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Load returns Default overlaid with the YAML document at path. Keys absent
// from the file keep their default values; lists are replaced as a whole. An
// empty path or a missing file yields the default configuration.
func Load(path string) (SiteConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return SiteConfig{}, fmt.Errorf("reading site config %s: %w", path, err)
	}

	if err := Decode(bytes.NewReader(data), &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("parsing site config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays the YAML document read from r onto cfg. Unknown keys are
// rejected so that a misspelt field is not silently ignored.
func Decode(r io.Reader, cfg *SiteConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
