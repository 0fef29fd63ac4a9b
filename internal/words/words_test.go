package words

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func TestNewSplitsPools(t *testing.T) {
	d := New([]string{"  Cat ", "", "# comment", "house", "DOG", "tree"}, fixedRand(0))
	full, easy := d.Stats()
	if full != 4 || easy != 2 {
		t.Fatalf("Stats() = %d,%d want 4,2", full, easy)
	}

	w, err := d.Next(ModeEasy)
	if err != nil || w != "cat" {
		t.Errorf("Next(easy) = %q,%v want cat", w, err)
	}
	w, err = d.Next(ModeNormal)
	if err != nil || w != "cat" {
		t.Errorf("Next(normal) = %q,%v want cat", w, err)
	}
}

func TestNextEmptyPool(t *testing.T) {
	d := New([]string{"house", "garden"}, fixedRand(1))
	if _, err := d.Next(ModeEasy); !errors.Is(err, ErrNoWord) {
		t.Errorf("Next(easy) error = %v, want ErrNoWord", err)
	}
	if w, err := d.Next(ModeNormal); err != nil || w != "garden" {
		t.Errorf("Next(normal) = %q,%v", w, err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		d, err := Load("", nil)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		full, easy := d.Stats()
		if full == 0 || easy == 0 {
			t.Errorf("embedded pools: %d/%d", full, easy)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "words.txt")
		if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := Load(path, fixedRand(2))
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if full, easy := d.Stats(); full != 3 || easy != 2 {
			t.Errorf("Stats() = %d,%d want 3,2", full, easy)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")
		if err := os.WriteFile(path, []byte("\n# nothing\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, nil); err == nil {
			t.Error("expected error for empty dictionary")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.txt"), nil); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
