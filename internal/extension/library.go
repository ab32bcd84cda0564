package extension

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Library is a named set of program sources, typically one directory
// of .lua files loaded at startup.
type Library struct {
	programs map[string]string
}

// NewLibrary builds a library from an in-memory name to source map.
func NewLibrary(programs map[string]string) *Library {
	lib := &Library{programs: make(map[string]string, len(programs))}
	for name, source := range programs {
		lib.programs[name] = source
	}
	return lib
}

// LoadDir reads every .lua file in a directory. The program name is the
// file name without its extension. A missing directory yields an empty
// library so deployments without programs need no configuration.
func LoadDir(dir string) (*Library, error) {
	lib := &Library{programs: make(map[string]string)}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return lib, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading program dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading program %s: %w", entry.Name(), err)
		}
		lib.programs[strings.TrimSuffix(entry.Name(), ".lua")] = string(data)
	}
	return lib, nil
}

// Source returns a program's source by name.
func (l *Library) Source(name string) (string, bool) {
	source, ok := l.programs[name]
	return source, ok
}

// Names lists the library's program names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.programs))
	for name := range l.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded programs.
func (l *Library) Len() int {
	return len(l.programs)
}
