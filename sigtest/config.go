package sigtest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional file-based run configuration. Every field has
// a zero value that leaves the corresponding behavior at its default,
// so a partial file is fine.
type Config struct {
	// Hooks names the registered hook bundle to use for the run.
	Hooks string `yaml:"hooks"`
	// Output selects the report format for the bundled formats
	// ("console", "json", "junit"). Empty means console.
	Output string `yaml:"output"`
	// Run lists patterns a case path must match to be executed.
	Run []string `yaml:"run"`
	// Skip lists patterns that exclude matching case paths.
	Skip []string `yaml:"skip"`
	// Verbose turns on per-assertion error reporting in the console
	// bundle.
	Verbose bool `yaml:"verbose"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return c, nil
}

// Filters compiles the Run and Skip pattern lists. Invalid patterns are
// reported with the offending pattern text.
func (c Config) Filters() (RegexFilters, error) {
	var f RegexFilters
	for _, p := range c.Run {
		if err := f.MustMatch.Set(p); err != nil {
			return f, err
		}
	}
	for _, p := range c.Skip {
		if err := f.MustNotMatch.Set(p); err != nil {
			return f, err
		}
	}
	return f, nil
}
