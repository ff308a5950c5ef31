package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Entry is one fault code or component record.
type Entry struct {
	Manufacturer string   `yaml:"manufacturer,omitempty" json:"manufacturer,omitempty"`
	FaultCode    string   `yaml:"fault_code,omitempty" json:"fault_code,omitempty"`
	Component    string   `yaml:"component,omitempty" json:"component,omitempty"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Steps        []string `yaml:"steps,omitempty" json:"steps,omitempty"`
	ManualURL    string   `yaml:"manual_url,omitempty" json:"manual_url,omitempty"`
	Regulation   string   `yaml:"regulation,omitempty" json:"regulation,omitempty"`
}

// ID is the stable document identifier of the entry.
func (e Entry) ID() string {
	key := e.FaultCode
	if key == "" {
		key = e.Component
	}
	if key == "" {
		key = e.Title
	}
	return strings.ToLower(e.Manufacturer) + "/" + strings.ToLower(strings.ReplaceAll(key, " ", "-"))
}

func (e Entry) text() string {
	var sb strings.Builder
	sb.WriteString(e.Title)
	if e.FaultCode != "" {
		sb.WriteString(" fault code " + e.FaultCode)
	}
	if e.Component != "" {
		sb.WriteString(" " + e.Component)
	}
	sb.WriteString(". ")
	sb.WriteString(e.Description)
	for _, s := range e.Steps {
		sb.WriteString(" " + s)
	}
	return sb.String()
}

// seedFile is the on-disk shape of a seed document. File-level
// manufacturer and manual_url apply to entries that leave them blank.
type seedFile struct {
	Manufacturer string  `yaml:"manufacturer"`
	ManualURL    string  `yaml:"manual_url"`
	Entries      []Entry `yaml:"entries"`
}

// LoadDir reads every *.yml and *.yaml file under dir.
func LoadDir(dir string) ([]Entry, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every *.yml and *.yaml file in fsys.
func LoadFS(fsys fs.FS) ([]Entry, error) {
	matches, err := doublestar.Glob(fsys, "**/*.{yml,yaml}")
	if err != nil {
		return nil, fmt.Errorf("glob seeds: %w", err)
	}

	var entries []Entry
	for _, name := range matches {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		var sf seedFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if sf.Manufacturer == "" {
			sf.Manufacturer = path.Base(path.Dir(name))
			if sf.Manufacturer == "." {
				sf.Manufacturer = ""
			}
		}
		for i, e := range sf.Entries {
			if e.Manufacturer == "" {
				e.Manufacturer = sf.Manufacturer
			}
			if e.ManualURL == "" {
				e.ManualURL = sf.ManualURL
			}
			e.Manufacturer = strings.ToLower(e.Manufacturer)
			e.FaultCode = strings.ToUpper(e.FaultCode)
			if e.Title == "" {
				return nil, fmt.Errorf("%s: entry %d has no title", name, i)
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}
