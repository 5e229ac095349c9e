package mapping

import (
	"fmt"
	"io"
	"os"

	"github.com/lepinkainen/naoka/internal/media"
	"gopkg.in/yaml.v3"
)

// File is the on-disk format for manually confirmed matches:
//
//	groups:
//	  - title: Cowboy Bebop
//	    keys:
//	      - anime:myanimelist:1
//	      - anime:anilist:1
type File struct {
	Groups []FileGroup `yaml:"groups"`
}

// FileGroup is one confirmed match in a mapping file.
type FileGroup struct {
	Title string   `yaml:"title,omitempty"`
	Keys  []string `yaml:"keys"`
}

// Decode reads a mapping file and validates every group in it.
func Decode(r io.Reader) ([]Group, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode mapping file: %w", err)
	}

	groups := make([]Group, 0, len(file.Groups))
	for i, fg := range file.Groups {
		keys := make([]media.Key, len(fg.Keys))
		for j, k := range fg.Keys {
			keys[j] = media.Key(k)
		}
		group, err := NewGroup(keys...)
		if err != nil {
			label := fg.Title
			if label == "" {
				label = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("mapping group %s: %w", label, err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// LoadFile reads the mapping file at path.
func LoadFile(path string) ([]Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}
