package hosts

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadCommaSeparated(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single host", "db01", []string{"db01"}},
		{"multiple hosts", "db01,db02,db03", []string{"db01", "db02", "db03"}},
		{"whitespace trimmed", " db01 , db02 ", []string{"db01", "db02"}},
		{"empty segments dropped", "db01,,db02,", []string{"db01", "db02"}},
		{"duplicates kept", "db01,db01", []string{"db01", "db01"}},
		{"empty input", "", nil},
		{"whitespace only", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.input)
			if err != nil {
				t.Fatalf("Load(%q) returned error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.txt")
	content := "db01\n\n  db02  \ndb03\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", path, err)
	}
	want := []string{"db01", "db02", "db03"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load from file = %v, want %v", got, want)
	}
}

func TestLoadDirectoryTreatedAsList(t *testing.T) {
	// A directory path is not a readable host file; it falls through to
	// comma splitting and becomes a single (bogus) host entry.
	dir := t.TempDir()
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", dir, err)
	}
	if len(got) != 1 || got[0] != dir {
		t.Errorf("Load(%q) = %v, want single literal entry", dir, got)
	}
}
