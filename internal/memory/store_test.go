package memory

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleTurns(n int) []Turn {
	roles := []Role{RoleUser, RoleToolOutput, RoleAssistant}
	turns := make([]Turn, n)
	for i := range turns {
		turns[i] = Turn{Role: roles[i%len(roles)], Content: strings.Repeat("x", i) + "\n\"quoted\""}
	}
	return turns
}

// storeFactories lets every store implementation run the same tests.
var storeFactories = map[string]func(t *testing.T) Store{
	"json": func(t *testing.T) Store {
		return NewFileStore(filepath.Join(t.TempDir(), "chat_history.json"))
	},
	"sqlite": func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chat_history.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		return s
	},
}

func TestStore_RoundTrip(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			if _, err := s.Load(); !errors.Is(err, ErrNoHistory) {
				t.Fatalf("Load on empty store error = %v, want ErrNoHistory", err)
			}

			for _, n := range []int{1, 7, 3} {
				want := sampleTurns(n)
				if err := s.Save(want); err != nil {
					t.Fatalf("Save(%d): %v", n, err)
				}
				got, err := s.Load()
				if err != nil {
					t.Fatalf("Load: %v", err)
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("round trip of %d turns: got %v, want %v", n, got, want)
				}
			}
		})
	}
}

func TestStore_Remove(t *testing.T) {
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			defer s.Close()

			removed, err := s.Remove()
			if err != nil || removed {
				t.Errorf("Remove on empty store = %v, %v; want false, nil", removed, err)
			}

			if err := s.Save(sampleTurns(2)); err != nil {
				t.Fatal(err)
			}
			removed, err = s.Remove()
			if err != nil || !removed {
				t.Errorf("Remove = %v, %v; want true, nil", removed, err)
			}
			if _, err := s.Load(); !errors.Is(err, ErrNoHistory) {
				t.Errorf("Load after Remove error = %v, want ErrNoHistory", err)
			}
		})
	}
}

func TestFileStore_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat_history.json")
	s := NewFileStore(path)

	if err := s.Save([]Turn{{RoleUser, "hi"}}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "[\n    {\n        \"role\": \"user\",\n        \"content\": \"hi\"\n    }\n]"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}

	if err := s.Save(nil); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("empty history written as %q, want []", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(path).Load()
	if err == nil || errors.Is(err, ErrNoHistory) {
		t.Errorf("Load error = %v, want parse error", err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	want := sampleTurns(4)
	if err := s.Save(want); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after reopen got %v, want %v", got, want)
	}
}
