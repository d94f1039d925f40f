package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Grade is one school year and the classes in it.
type Grade struct {
	Name    string   `yaml:"name" json:"name"`
	Classes []string `yaml:"classes" json:"classes"`
}

// Catalog maps grades to their class names, preserving grade order.
type Catalog struct {
	grades []Grade
	index  map[string]map[string]struct{}
}

type fileFormat struct {
	Grades []struct {
		Name    string   `yaml:"name"`
		Count   int      `yaml:"count"`
		Classes []string `yaml:"classes"`
	} `yaml:"grades"`
}

// Default returns the built-in junior and senior high catalog.
func Default() *Catalog {
	counts := []struct {
		name  string
		count int
	}{
		{"初一", 18},
		{"初二", 10},
		{"初三", 10},
		{"高一", 12},
		{"高二", 10},
		{"高三", 10},
	}

	grades := make([]Grade, 0, len(counts))
	for _, c := range counts {
		grades = append(grades, Grade{Name: c.name, Classes: numbered(c.name, c.count)})
	}
	return New(grades)
}

// New builds a catalog from explicit grades.
func New(grades []Grade) *Catalog {
	c := &Catalog{
		grades: grades,
		index:  make(map[string]map[string]struct{}, len(grades)),
	}
	for _, g := range grades {
		set := make(map[string]struct{}, len(g.Classes))
		for _, cls := range g.Classes {
			set[cls] = struct{}{}
		}
		c.index[g.Name] = set
	}
	return c
}

// Load reads a YAML catalog. An empty path yields the default catalog.
//
//	grades:
//	  - name: 初一
//	    count: 18
//	  - name: 国际部
//	    classes: [IB1, IB2]
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Grades) == 0 {
		return nil, fmt.Errorf("parse catalog: no grades defined")
	}

	grades := make([]Grade, 0, len(f.Grades))
	for _, g := range f.Grades {
		if g.Name == "" {
			return nil, fmt.Errorf("parse catalog: grade without name")
		}
		classes := g.Classes
		if len(classes) == 0 {
			if g.Count <= 0 {
				return nil, fmt.Errorf("parse catalog: grade %s has no classes", g.Name)
			}
			classes = numbered(g.Name, g.Count)
		}
		grades = append(grades, Grade{Name: g.Name, Classes: classes})
	}
	return New(grades), nil
}

// Grades returns grade names in display order.
func (c *Catalog) Grades() []string {
	out := make([]string, 0, len(c.grades))
	for _, g := range c.grades {
		out = append(out, g.Name)
	}
	return out
}

// Classes returns the classes of grade, or an empty slice for unknown grades.
func (c *Catalog) Classes(grade string) []string {
	for _, g := range c.grades {
		if g.Name == grade {
			out := make([]string, len(g.Classes))
			copy(out, g.Classes)
			return out
		}
	}
	return []string{}
}

// Contains reports whether class belongs to grade.
func (c *Catalog) Contains(grade, class string) bool {
	set, ok := c.index[grade]
	if !ok {
		return false
	}
	_, ok = set[class]
	return ok
}

// All returns every grade with its classes.
func (c *Catalog) All() map[string][]string {
	out := make(map[string][]string, len(c.grades))
	for _, g := range c.grades {
		out[g.Name] = c.Classes(g.Name)
	}
	return out
}

func numbered(grade string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("%s%d班", grade, i))
	}
	return out
}
