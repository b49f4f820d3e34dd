package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source describes one knowledge namespace and how its URLs are displayed.
type Source struct {
	Label      string   `yaml:"label"`
	Namespace  string   `yaml:"namespace"`
	Match      []string `yaml:"match"`
	Display    string   `yaml:"display"`
	PathMarker string   `yaml:"path_marker,omitempty"`
	Enabled    bool     `yaml:"enabled"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources lists the sources in priority order, most trusted first.
func DefaultSources() []Source {
	return []Source{
		{
			Label:     "MedlinePlus",
			Namespace: "medlineplus",
			Match:     []string{"medlineplus.gov"},
			Display:   "title",
			Enabled:   true,
		},
		{
			Label:      "Mayo Clinic",
			Namespace:  "mayo_clinic",
			Match:      []string{"mayoclinic.org"},
			Display:    "path_segment",
			PathMarker: "/diseases-conditions/",
		},
		{
			Label:     "Gale Encyclopedia of Medicine",
			Namespace: "gale",
			Match:     []string{"gale", "encyclopedia"},
			Display:   "label",
		},
	}
}

// LoadSources reads the registry file, or returns DefaultSources when path is empty.
func LoadSources(path string) ([]Source, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSources(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}
	return ParseSources(raw)
}

func ParseSources(raw []byte) ([]Source, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources config: no sources defined")
	}

	seen := make(map[string]struct{}, len(file.Sources))
	for i := range file.Sources {
		src := &file.Sources[i]
		src.Label = strings.TrimSpace(src.Label)
		if src.Label == "" {
			return nil, fmt.Errorf("sources config: source %d has no label", i)
		}
		if _, dup := seen[src.Label]; dup {
			return nil, fmt.Errorf("sources config: duplicate label %q", src.Label)
		}
		seen[src.Label] = struct{}{}

		if src.Display == "" {
			src.Display = "label"
		}
		switch src.Display {
		case "title", "label":
		case "path_segment":
			if src.PathMarker == "" {
				return nil, fmt.Errorf("sources config: %q needs path_marker", src.Label)
			}
		default:
			return nil, fmt.Errorf("sources config: %q has unknown display %q", src.Label, src.Display)
		}
		if src.Enabled && strings.TrimSpace(src.Namespace) == "" {
			return nil, fmt.Errorf("sources config: enabled source %q has no namespace", src.Label)
		}
	}
	return file.Sources, nil
}

func EnabledSources(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}
