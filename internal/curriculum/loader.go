package curriculum

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

//go:embed syllabi
var builtin embed.FS

// Library holds the syllabi a learner can pick from.
type Library struct {
	syllabi map[string]Syllabus
	mu      sync.RWMutex
}

// NewLibrary loads every syllabus under rootDir. An empty rootDir loads the
// syllabi built into the binary.
func NewLibrary(rootDir string) (*Library, error) {
	if rootDir == "" {
		return NewLibraryFS(builtin, "syllabi")
	}
	return NewLibraryFS(os.DirFS(rootDir), ".")
}

// NewLibraryFS loads every syllabus under root in fsys.
//
// Each *.yaml or *.yml file holds one syllabus. A sibling file with the same
// base name and the suffix .about.md becomes the syllabus description.
// Files that do not parse or do not describe a usable syllabus are skipped
// with a warning.
func NewLibraryFS(fsys fs.FS, root string) (*Library, error) {
	l := &Library{syllabi: make(map[string]Syllabus)}
	if err := l.loadAll(fsys, root); err != nil {
		return nil, fmt.Errorf("loading syllabus library: %w", err)
	}

	slog.Info("syllabus library loaded", "syllabi", len(l.syllabi))
	return l, nil
}

// Syllabus returns a syllabus by ID.
func (l *Library) Syllabus(id string) (Syllabus, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.syllabi[id]
	return s, ok
}

// All returns every syllabus ordered by ID.
func (l *Library) All() []Syllabus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Syllabus, 0, len(l.syllabi))
	for _, s := range l.syllabi {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of syllabi loaded.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.syllabi)
}

func (l *Library) loadAll(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext == ".yaml" || ext == ".yml" {
			return l.loadSyllabus(fsys, p)
		}
		return nil
	})
}

func (l *Library) loadSyllabus(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var s Syllabus
	if err := yaml.Unmarshal(data, &s); err != nil {
		slog.Warn("skipping invalid syllabus YAML", "path", p, "error", err)
		return nil
	}
	if s.ID == "" {
		return nil // Not a syllabus file
	}
	if err := plan.ValidateTopics(s.Topics()); err != nil {
		slog.Warn("skipping syllabus without usable topics", "path", p, "id", s.ID, "error", err)
		return nil
	}
	if s.Name == "" {
		s.Name = s.ID
	}

	aboutPath := strings.TrimSuffix(p, path.Ext(p)) + ".about.md"
	if about, err := fs.ReadFile(fsys, aboutPath); err == nil {
		s.Description = strings.TrimSpace(string(about))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.syllabi[s.ID]; dup {
		slog.Warn("duplicate syllabus id, keeping the first", "path", p, "id", s.ID)
		return nil
	}
	l.syllabi[s.ID] = s
	return nil
}
