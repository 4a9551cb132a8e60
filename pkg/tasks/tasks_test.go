package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRussian(t *testing.T) {
	l := Russian()

	assert.Equal(t, "ru", l.Locale)
	assert.Equal(t, 56, l.Len())

	seen := make(map[string]bool)
	for _, task := range l.Tasks {
		assert.NotEmpty(t, task.Text, "empty text for %s", task.Filename)
		assert.NotEmpty(t, task.Filename, "empty filename for %s", task.Text)
		assert.False(t, seen[task.Filename], "duplicate filename %s", task.Filename)
		seen[task.Filename] = true
	}

	assert.Contains(t, l.Tasks, Task{Text: "Один", Filename: "one-ru.aac"})

	warnings, err := l.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestRussian_ReturnsCopy(t *testing.T) {
	a := Russian()
	a.Tasks[0].Text = "changed"
	assert.Equal(t, "Сказка о бабочке", Russian().Tasks[0].Text)
}

func TestTaskFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"one-ru.aac", "aac"},
		{"coins-ru.mp3", "mp3"},
		{"LOUD.WAV", "wav"},
		{"noext", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Task{Filename: tt.filename}.Format(), tt.filename)
	}
}

func TestBuiltin(t *testing.T) {
	l, err := Builtin("ru-RU")
	require.NoError(t, err)
	assert.Equal(t, 56, l.Len())

	_, err = Builtin("uz")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		tasks        []Task
		wantErr      bool
		wantWarnings int
	}{
		{
			name:  "Valid",
			tasks: []Task{{"Один", "one.aac"}, {"Два", "two.aac"}},
		},
		{
			name:    "EmptyText",
			tasks:   []Task{{"  ", "one.aac"}},
			wantErr: true,
		},
		{
			name:    "EmptyFilename",
			tasks:   []Task{{"Один", ""}},
			wantErr: true,
		},
		{
			name:    "PathInFilename",
			tasks:   []Task{{"Один", "../one.aac"}},
			wantErr: true,
		},
		{
			name:         "Duplicate",
			tasks:        []Task{{"Один", "one.aac"}, {"Раз", "one.aac"}},
			wantWarnings: 1,
		},
		{
			name:         "NoExtension",
			tasks:        []Task{{"Один", "one"}},
			wantWarnings: 1,
		},
		{
			name: "Empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := List{Locale: "ru", Tasks: tt.tasks}.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestFilter(t *testing.T) {
	l := Russian().Filter([]string{"coins-ru.mp3", "one-ru.aac", "missing.mp3"})

	require.Equal(t, 2, l.Len())
	assert.Equal(t, "ru", l.Locale)
	// Original order is kept.
	assert.Equal(t, "one-ru.aac", l.Tasks[0].Filename)
	assert.Equal(t, "coins-ru.mp3", l.Tasks[1].Filename)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	withLocale := filepath.Join(dir, "uz.yaml")
	require.NoError(t, os.WriteFile(withLocale, []byte("locale: uz\ntasks:\n  - text: Bir\n    filename: one-uz.aac\n"), 0o644))

	l, err := Load(withLocale, "ru")
	require.NoError(t, err)
	assert.Equal(t, "uz", l.Locale)
	assert.Equal(t, []Task{{Text: "Bir", Filename: "one-uz.aac"}}, l.Tasks)

	noLocale := filepath.Join(dir, "plain.yaml")
	require.NoError(t, os.WriteFile(noLocale, []byte("tasks:\n  - text: Один\n    filename: one-ru.aac\n"), 0o644))

	l, err = Load(noLocale, "ru")
	require.NoError(t, err)
	assert.Equal(t, "ru", l.Locale)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tasks: [unclosed\n"), 0o644))
	_, err = Load(bad, "ru")
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"), "ru")
	assert.Error(t, err)
}
