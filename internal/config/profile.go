package config

import (
	"fmt"
	"os"
	"strings"

	"etiket/internal/core"

	"gopkg.in/yaml.v3"
)

// LabelProfile describes the physical label and the print window.
type LabelProfile struct {
	Title        string   `yaml:"title"`
	WidthMM      float64  `yaml:"width_mm"`
	HeightMM     float64  `yaml:"height_mm"`
	WindowWidth  int      `yaml:"window_width"`
	WindowHeight int      `yaml:"window_height"`
	Regions      []string `yaml:"regions"`
}

// DefaultLabelProfile is a 100x70 mm label with the built-in region list.
func DefaultLabelProfile() LabelProfile {
	return LabelProfile{
		Title:        "Sevk Etiketi",
		WidthMM:      100,
		HeightMM:     70,
		WindowWidth:  600,
		WindowHeight: 700,
		Regions:      defaultRegions(),
	}
}

func defaultRegions() []string {
	regions := make([]string, len(core.DefaultRegions))
	for i, r := range core.DefaultRegions {
		regions[i] = string(r)
	}
	return regions
}

// LoadLabelProfile reads a YAML profile. Fields left out keep their default.
// An empty path returns the default profile.
func LoadLabelProfile(path string) (LabelProfile, error) {
	p := DefaultLabelProfile()
	if path == "" {
		return p, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read label profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse label profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("label profile %s: %w", path, err)
	}
	return p, nil
}

// Validate checks dimensions and normalises region codes to upper case.
func (p *LabelProfile) Validate() error {
	var problems []string
	if p.WidthMM <= 0 || p.HeightMM <= 0 {
		problems = append(problems, fmt.Sprintf("label size %gx%g mm must be positive", p.WidthMM, p.HeightMM))
	}
	if p.WindowWidth < 200 || p.WindowHeight < 200 {
		problems = append(problems, fmt.Sprintf("print window %dx%d px must be at least 200x200", p.WindowWidth, p.WindowHeight))
	}

	seen := make(map[string]bool, len(p.Regions))
	regions := make([]string, 0, len(p.Regions))
	for _, r := range p.Regions {
		code := strings.ToUpper(strings.TrimSpace(r))
		if code == "" || seen[code] {
			continue
		}
		if code == "ALL" {
			problems = append(problems, "region list must not contain the reserved value All")
			continue
		}
		seen[code] = true
		regions = append(regions, code)
	}
	if len(regions) == 0 {
		problems = append(problems, "region list cannot be empty")
	}
	p.Regions = regions

	if len(problems) > 0 {
		return fmt.Errorf("invalid label profile: %s", strings.Join(problems, "; "))
	}
	return nil
}
