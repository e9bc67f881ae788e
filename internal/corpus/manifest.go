package corpus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the marker file every slide root must carry. A directory
// without it is not a slide.
const ManifestFile = "slide.yaml"

// Manifest is the slide's declared identity: a name and the scene names the
// acquisition was supposed to produce. The declaration is cross-checked
// against the directory tree, which remains authoritative.
type Manifest struct {
	Name   string   `yaml:"name"`
	Scenes []string `yaml:"scenes"`
}

func readManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}
