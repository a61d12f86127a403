// Package template loads and validates workforce templates.
//
// A workforce template is the fixed, per-domain sequence of autonomous work
// units executed against a case. Builtin templates are embedded; user
// templates can be loaded from a directory and shadow builtins by name.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caseflow-dev/caseflow/internal/errors"
	"github.com/caseflow-dev/caseflow/internal/policy"
	"github.com/caseflow-dev/caseflow/templates"
)

// Step is one ordered position in a workforce template.
type Step struct {
	// Role is the identity of the work unit assigned to this position.
	Role string `yaml:"role"`
	// Name is the display name for operator-facing output.
	Name string `yaml:"name"`
	// Classification is the declared risk tier driving gating policy.
	Classification string `yaml:"classification"`
	// Skip excludes the step from execution while keeping its position.
	Skip bool `yaml:"skip,omitempty"`
}

// Workforce is an ordered sequence of steps for one case domain.
type Workforce struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Parse decodes and validates a workforce template from YAML.
func Parse(data []byte) (*Workforce, error) {
	var w Workforce
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate checks structural invariants of the template.
func (w *Workforce) Validate() error {
	if w.Name == "" {
		return errors.ErrTemplateInvalid("(unnamed)", "template has no name")
	}
	if len(w.Steps) == 0 {
		return errors.ErrTemplateInvalid(w.Name, "template has no steps")
	}
	for i, s := range w.Steps {
		if strings.TrimSpace(s.Role) == "" {
			return errors.ErrTemplateInvalid(w.Name, fmt.Sprintf("step %d has no role", i+1))
		}
		if _, known := policy.Normalize(s.Classification); !known {
			// Tolerated at runtime (downgraded to INFORMATIONAL), but a
			// template author typo is worth rejecting at load time.
			return errors.ErrTemplateInvalid(w.Name,
				fmt.Sprintf("step %d has unknown classification %q", i+1, s.Classification))
		}
	}
	return nil
}

// Len returns the number of steps, counting skipped positions.
func (w *Workforce) Len() int {
	return len(w.Steps)
}

// StepAt returns the 1-based step at position n.
func (w *Workforce) StepAt(n int) (Step, error) {
	if n < 1 || n > len(w.Steps) {
		return Step{}, errors.ErrStepInvalid(n, len(w.Steps))
	}
	return w.Steps[n-1], nil
}

// Registry resolves workforce templates by name.
type Registry struct {
	byName map[string]*Workforce
}

// NewRegistry loads the embedded builtin templates, then overlays user
// templates from dir (if non-empty). User templates shadow builtins by name.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Workforce)}

	entries, err := templates.Workforce.ReadDir("workforce")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}
	for _, entry := range entries {
		data, err := templates.Workforce.ReadFile("workforce/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded template %s: %w", entry.Name(), err)
		}
		w, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("builtin template %s: %w", entry.Name(), err)
		}
		r.byName[w.Name] = w
	}

	if dir != "" {
		if err := r.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// loadDir overlays templates from a user directory.
func (r *Registry) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read template dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		w, err := Parse(data)
		if err != nil {
			return fmt.Errorf("template %s: %w", entry.Name(), err)
		}
		r.byName[w.Name] = w
	}
	return nil
}

// Get returns the template with the given name.
func (r *Registry) Get(name string) (*Workforce, error) {
	w, ok := r.byName[name]
	if !ok {
		return nil, errors.ErrTemplateNotFound(name)
	}
	return w, nil
}

// Names returns the registered template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
