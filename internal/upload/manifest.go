package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadManifest reads a Draft from a YAML file. Relative file paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	resolve := func(ref *FileRef) {
		if ref != nil && ref.Path != "" && !filepath.IsAbs(ref.Path) {
			ref.Path = filepath.Join(base, ref.Path)
		}
	}
	for _, group := range []*[]FileRef{
		&d.Files.Architectural, &d.Files.Structural, &d.Files.MEP,
		&d.Files.Civil, &d.Files.FireSafety, &d.Files.Interior,
		&d.Extras.Gallery,
	} {
		for i := range *group {
			resolve(&(*group)[i])
		}
	}
	resolve(d.Extras.BOQ)
	resolve(d.Extras.Thumbnail)
	return &d, nil
}
