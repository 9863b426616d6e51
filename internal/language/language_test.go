package language

import (
	"strings"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	t.Run("contains exactly the supported set", func(t *testing.T) {
		ids := reg.IDs()
		expected := []ID{JavaScript, Python, CPP, C}

		if len(ids) != len(expected) {
			t.Fatalf("Expected %d languages, got %d", len(expected), len(ids))
		}
		for i, id := range expected {
			if ids[i] != id {
				t.Errorf("Expected %s at position %d, got %s", id, i, ids[i])
			}
		}
	})

	t.Run("default language is javascript", func(t *testing.T) {
		if reg.Default() != JavaScript {
			t.Errorf("Expected default language javascript, got %s", reg.Default())
		}
	})

	t.Run("unknown language is not known", func(t *testing.T) {
		if reg.Known("java") {
			t.Error("java should not be a known language")
		}
		if _, ok := reg.Lookup("brainfuck"); ok {
			t.Error("Lookup should fail for an unknown language")
		}
	})

	t.Run("interpreted languages have no compile step", func(t *testing.T) {
		for _, id := range []ID{JavaScript, Python} {
			plan, ok := reg.Lookup(id)
			if !ok {
				t.Fatalf("Lookup(%s) failed", id)
			}
			if plan.Compiled() {
				t.Errorf("%s should not have a compile step", id)
			}
			if len(plan.Run) == 0 {
				t.Errorf("%s should have a run command", id)
			}
		}
	})

	t.Run("compiled languages have compile and run steps", func(t *testing.T) {
		for _, id := range []ID{CPP, C} {
			plan, ok := reg.Lookup(id)
			if !ok {
				t.Fatalf("Lookup(%s) failed", id)
			}
			if !plan.Compiled() {
				t.Errorf("%s should have a compile step", id)
			}
			if len(plan.Run) != 1 || plan.Run[0] != PlaceholderBinary {
				t.Errorf("%s run command should be the compiled binary, got %v", id, plan.Run)
			}
		}
	})

	t.Run("every plan has a snippet and an image", func(t *testing.T) {
		for _, id := range reg.IDs() {
			plan, _ := reg.Lookup(id)
			if plan.Snippet == "" {
				t.Errorf("%s has no default snippet", id)
			}
			if plan.Image == "" {
				t.Errorf("%s has no sandbox image", id)
			}
			if plan.Extension == "" || plan.SourcePrefix == "" {
				t.Errorf("%s has incomplete file naming configuration", id)
			}
		}
	})
}

func TestExpand(t *testing.T) {
	template := []string{"g++", PlaceholderSource, "-o", PlaceholderBinary}

	argv := Expand(template, "/scratch/main-1.cpp", "/scratch/bin-1")

	want := []string{"g++", "/scratch/main-1.cpp", "-o", "/scratch/bin-1"}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("Expected argv[%d]=%q, got %q", i, want[i], argv[i])
		}
	}

	// The template must not be mutated.
	if template[1] != PlaceholderSource {
		t.Error("Expand mutated the template")
	}

	if strings.Contains(strings.Join(argv, " "), "{") {
		t.Errorf("Unexpanded placeholder in argv: %v", argv)
	}
}
