package route

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultTableYAML []byte

// Table declares which path parameters are major for bucket purposes.
//
// The table is versioned data: the default ships embedded, and deployments
// may override it from a file when the remote service's bucketing behavior
// drifts. Overrides match on the exact path template and replace the default
// major set for that template.
type Table struct {
	Version  int        `yaml:"version"`
	Defaults []string   `yaml:"defaults"`
	Routes   []Override `yaml:"routes"`

	mu       sync.Mutex
	compiled map[string]map[string]bool
}

// Override replaces the default major-parameter set for one template.
type Override struct {
	Template string   `yaml:"template"`
	Major    []string `yaml:"major"`
}

var (
	defaultTableOnce sync.Once
	defaultTable     *Table
)

// DefaultTable returns the embedded major-parameter table.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		table, err := ParseTable(defaultTableYAML)
		if err != nil {
			// The embedded table is validated by tests; a parse failure
			// here is a build defect.
			panic(fmt.Sprintf("embedded route table: %v", err))
		}
		defaultTable = table
	})
	return defaultTable
}

// LoadTable reads and validates a major-parameter table from a file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open route table: %w", err)
	}
	defer f.Close() // nolint:errcheck // best-effort cleanup

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	return ParseTable(raw)
}

// ParseTable decodes and validates table YAML.
func ParseTable(raw []byte) (*Table, error) {
	table := &Table{}
	if err := yaml.Unmarshal(raw, table); err != nil {
		return nil, fmt.Errorf("parse route table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// Validate checks structural requirements on the table.
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("route table is nil")
	}
	if t.Version < 1 {
		return fmt.Errorf("route table version must be >= 1, got %d", t.Version)
	}
	for _, entry := range t.Routes {
		template := strings.TrimSpace(entry.Template)
		if template == "" || !strings.HasPrefix(template, "/") {
			return fmt.Errorf("route table entry has invalid template: %q", entry.Template)
		}
		for _, name := range entry.Major {
			if !strings.Contains(template, "{"+name+"}") {
				return fmt.Errorf("route table entry %q declares major %q not present in template", template, name)
			}
		}
	}
	return nil
}

// MajorFor returns the set of major parameter names for a template.
func (t *Table) MajorFor(template string) map[string]bool {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.compiled == nil {
		t.compiled = make(map[string]map[string]bool)
	}
	if set, ok := t.compiled[template]; ok {
		return set
	}

	set := make(map[string]bool)
	for _, name := range t.Defaults {
		if strings.Contains(template, "{"+name+"}") {
			set[name] = true
		}
	}
	for _, entry := range t.Routes {
		if entry.Template != template {
			continue
		}
		set = make(map[string]bool, len(entry.Major))
		for _, name := range entry.Major {
			set[name] = true
		}
		break
	}

	t.compiled[template] = set
	return set
}
