// Package venues loads the optional known-venues list that callers feed into
// the parse context for fuzzy venue matching.
package venues

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/eventparse/internal/model"
)

// File is the on-disk shape of a known-venues list.
type File struct {
	Venues []model.KnownVenue `yaml:"venues"`
}

// Load reads a known-venues YAML file. Entries without a name are dropped;
// duplicate names (case-insensitive) keep the first occurrence.
func Load(path string) ([]model.KnownVenue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "venues: read %s", path)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "venues: parse %s", path)
	}

	seen := make(map[string]bool, len(f.Venues))
	out := make([]model.KnownVenue, 0, len(f.Venues))
	for _, v := range f.Venues {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		v.Name = name
		out = append(out, v)
	}
	return out, nil
}
