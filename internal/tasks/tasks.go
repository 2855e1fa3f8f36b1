// Package tasks holds the fixed catalog of daily prompts, one per challenge
// day. The catalog ships embedded in the binary as YAML.
package tasks

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tasks.yaml
var catalogYAML []byte

// Task is the prompt shown for a single challenge day.
type Task struct {
	DayIndex    int    `json:"dayIndex"    yaml:"day"`
	Title       string `json:"title"       yaml:"title"`
	Instruction string `json:"instruction" yaml:"instruction"`
	Hint        string `json:"hint,omitempty" yaml:"hint"`
}

// Catalog is an immutable, day-ordered task list. Safe for concurrent use.
type Catalog struct {
	tasks []Task
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) { return Parse(catalogYAML) }

// MustDefault is Default that panics on a malformed embedded catalog.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML catalog. Days must be contiguous starting at 1.
func Parse(b []byte) (*Catalog, error) {
	var doc struct {
		Tasks []Task `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("tasks: decode: %w", err)
	}
	if len(doc.Tasks) == 0 {
		return nil, fmt.Errorf("tasks: catalog is empty")
	}
	for i, t := range doc.Tasks {
		if t.DayIndex != i+1 {
			return nil, fmt.Errorf("tasks: entry %d has day %d, want %d", i, t.DayIndex, i+1)
		}
		if t.Title == "" || t.Instruction == "" {
			return nil, fmt.Errorf("tasks: day %d is missing title or instruction", t.DayIndex)
		}
	}
	return &Catalog{tasks: doc.Tasks}, nil
}

// Len returns the number of days in the catalog.
func (c *Catalog) Len() int { return len(c.tasks) }

// ByDay returns the task for day; out-of-range days fall back to day 1.
func (c *Catalog) ByDay(day int) Task {
	if day < 1 || day > len(c.tasks) {
		return c.tasks[0]
	}
	return c.tasks[day-1]
}

// Lookup returns the task for day and whether day is in the catalog.
func (c *Catalog) Lookup(day int) (Task, bool) {
	if day < 1 || day > len(c.tasks) {
		return Task{}, false
	}
	return c.tasks[day-1], true
}
