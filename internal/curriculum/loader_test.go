package curriculum_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Tarunjit45/ExamGenius/internal/curriculum"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

const physicsYAML = `
id: jee-physics
name: "JEE Physics"
board: NTA
level: JEE Main
subjects:
  - name: Mechanics
    topics:
      - Kinematics
      - Laws of Motion
  - name: Optics
    topics:
      - Ray Optics
`

func TestLibrary_LoadsSyllabi(t *testing.T) {
	dir := setupTestLibrary(t)

	lib, err := curriculum.NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", lib.Len())
	}

	s, found := lib.Syllabus("jee-physics")
	if !found {
		t.Fatal("Syllabus(jee-physics) not found")
	}
	if s.Name != "JEE Physics" {
		t.Errorf("Name = %q", s.Name)
	}
	if s.TopicCount() != 3 {
		t.Errorf("TopicCount() = %d, want 3", s.TopicCount())
	}
	if s.Description != "Mechanics and optics for JEE Main." {
		t.Errorf("Description = %q", s.Description)
	}
}

func TestLibrary_SyllabusNotFound(t *testing.T) {
	lib, err := curriculum.NewLibrary(setupTestLibrary(t))
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if _, found := lib.Syllabus("NONEXISTENT"); found {
		t.Error("Syllabus(NONEXISTENT) should not be found")
	}
}

func TestSyllabus_Topics(t *testing.T) {
	lib, err := curriculum.NewLibrary(setupTestLibrary(t))
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	s, _ := lib.Syllabus("jee-physics")

	topics := s.Topics()
	want := []plan.TopicRef{
		{Subject: "Mechanics", Topic: "Kinematics"},
		{Subject: "Mechanics", Topic: "Laws of Motion"},
		{Subject: "Optics", Topic: "Ray Optics"},
	}
	got := plan.Flatten(topics)
	if len(got) != len(want) {
		t.Fatalf("Flatten(Topics()) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topic %d = %v, want %v", i, got[i], want[i])
		}
	}

	// Topics returns a copy.
	topics[0].Topics[0] = "changed"
	if again, _ := lib.Syllabus("jee-physics"); again.Subjects[0].Topics[0] != "Kinematics" {
		t.Error("Topics() must not alias the library's slices")
	}
}

func TestLibrary_SkipsUnusableFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"good.yaml":       {Data: []byte(physicsYAML)},
		"broken.yaml":     {Data: []byte("id: [unterminated")},
		"no-id.yaml":      {Data: []byte("name: Nameless\n")},
		"no-topics.yml":   {Data: []byte("id: empty\nsubjects:\n  - name: Maths\n    topics: []\n")},
		"blank-topic.yml": {Data: []byte("id: blank\nsubjects:\n  - name: Maths\n    topics: [\"\"]\n")},
		"dupe.yml":        {Data: []byte(physicsYAML)},
		"readme.md":       {Data: []byte("# Syllabi")},
	}

	lib, err := curriculum.NewLibraryFS(fsys, ".")
	if err != nil {
		t.Fatalf("NewLibraryFS() error = %v", err)
	}
	if lib.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (only the valid syllabus)", lib.Len())
	}
}

func TestLibrary_EmptyDir(t *testing.T) {
	lib, err := curriculum.NewLibrary(t.TempDir())
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	if len(lib.All()) != 0 {
		t.Errorf("All() = %d, want 0 for empty dir", len(lib.All()))
	}
}

func TestLibrary_MissingDir(t *testing.T) {
	if _, err := curriculum.NewLibrary(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("NewLibrary() should fail for a missing directory")
	}
}

func TestLibrary_Builtin(t *testing.T) {
	lib, err := curriculum.NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary(\"\") error = %v", err)
	}
	all := lib.All()
	if len(all) < 2 {
		t.Fatalf("built-in library has %d syllabi, want at least 2", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Errorf("All() not sorted: %q before %q", all[i-1].ID, all[i].ID)
		}
	}
	for _, s := range all {
		if err := plan.ValidateTopics(s.Topics()); err != nil {
			t.Errorf("built-in syllabus %s: %v", s.ID, err)
		}
	}
}

func setupTestLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	sub := filepath.Join(dir, "india", "jee")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "physics.yaml"), []byte(physicsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "physics.about.md"), []byte("Mechanics and optics for JEE Main.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}
