// Package prompts serves the model prompt templates that ship inside
// the binary. Each JSON file maps prompt keys to template strings with
// {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFS embed.FS

var (
	loadOnce sync.Once
	library  map[string]string // "file.json#key" -> template
	loadErr  error
)

// load parses every embedded prompt file into the flat library. The
// files are fixed at compile time, so this happens exactly once.
func load() {
	library = make(map[string]string)
	entries, err := promptFS.ReadDir(".")
	if err != nil {
		loadErr = fmt.Errorf("failed to read embedded prompts: %w", err)
		return
	}
	for _, entry := range entries {
		data, err := promptFS.ReadFile(entry.Name())
		if err != nil {
			loadErr = fmt.Errorf("failed to read prompt file %s: %w", entry.Name(), err)
			return
		}
		var file map[string]string
		if err := json.Unmarshal(data, &file); err != nil {
			loadErr = fmt.Errorf("failed to parse prompt file %s: %w", entry.Name(), err)
			return
		}
		for key, template := range file {
			library[entry.Name()+"#"+key] = template
		}
	}
}

// Get returns the template stored under key in the named file,
// e.g. Get("matching.json", "shortlist_system").
func Get(filename, key string) (string, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", loadErr
	}
	template, ok := library[filename+"#"+key]
	if !ok {
		return "", fmt.Errorf("no prompt %q in %s", key, filename)
	}
	return template, nil
}

// MustGet is Get for prompts the binary cannot run without.
func MustGet(filename, key string) string {
	template, err := Get(filename, key)
	if err != nil {
		panic(err)
	}
	return template
}

// Format substitutes {{.Name}} placeholders with values from data.
// Placeholders without a value are left in place.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, 2*len(data))
	for name, value := range data {
		pairs = append(pairs, "{{."+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
