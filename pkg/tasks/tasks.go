// Package tasks defines the text/filename pairs a batch synthesizes.
package tasks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"speechbatch/pkg/tts"
)

// Task is one phrase to voice and the file it is saved to.
type Task struct {
	Text     string `yaml:"text"`
	Filename string `yaml:"filename"`
}

// Format returns the audio format implied by the filename extension, e.g. "mp3" or "aac".
func (t Task) Format() string {
	return tts.FormatFromFilename(t.Filename)
}

// List is an ordered set of tasks voiced in one locale.
type List struct {
	Locale string `yaml:"locale"`
	Tasks  []Task `yaml:"tasks"`
}

// Len returns the number of tasks.
func (l List) Len() int {
	return len(l.Tasks)
}

// Load reads a YAML task file. A file without a locale inherits defaultLocale.
func Load(path, defaultLocale string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return List{}, fmt.Errorf("failed to read task file: %w", err)
	}

	var l List
	if err := yaml.Unmarshal(data, &l); err != nil {
		return List{}, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}
	if l.Locale == "" {
		l.Locale = defaultLocale
	}
	return l, nil
}

// Builtin returns the built-in list for a locale.
func Builtin(locale string) (List, error) {
	switch strings.ToLower(strings.SplitN(locale, "-", 2)[0]) {
	case "ru":
		return Russian(), nil
	default:
		return List{}, fmt.Errorf("no built-in task list for locale %q (use a task file)", locale)
	}
}

// Validate returns an error for tasks that cannot be synthesized and warnings for
// suspicious ones. Duplicate filenames are warnings: the later task overwrites the earlier file.
func (l List) Validate() (warnings []string, err error) {
	var errs []error
	seen := make(map[string]int, len(l.Tasks))

	for i, t := range l.Tasks {
		if strings.TrimSpace(t.Text) == "" {
			errs = append(errs, fmt.Errorf("task %d (%s): empty text", i+1, t.Filename))
		}
		name := strings.TrimSpace(t.Filename)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("task %d (%q): empty filename", i+1, t.Text))
			continue
		case name != t.Filename:
			errs = append(errs, fmt.Errorf("task %d: filename %q has surrounding whitespace", i+1, t.Filename))
		case filepath.Base(name) != name || name == "." || name == "..":
			errs = append(errs, fmt.Errorf("task %d: filename %q must not contain a path", i+1, t.Filename))
		}
		if t.Format() == "" {
			warnings = append(warnings, fmt.Sprintf("task %d: filename %q has no extension", i+1, t.Filename))
		}
		if prev, ok := seen[name]; ok {
			warnings = append(warnings, fmt.Sprintf("task %d: filename %q duplicates task %d", i+1, name, prev))
		} else {
			seen[name] = i + 1
		}
	}
	return warnings, errors.Join(errs...)
}

// Filter keeps only tasks whose filename is in names, preserving order.
func (l List) Filter(names []string) List {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}

	out := List{Locale: l.Locale}
	for _, t := range l.Tasks {
		if keep[t.Filename] {
			out.Tasks = append(out.Tasks, t)
		}
	}
	return out
}
