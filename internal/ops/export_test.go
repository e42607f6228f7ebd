package ops

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hpungsan/mealtrace/internal/errors"
)

func TestWriteOutput_HappyPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "foods.csv")

	out, err := WriteOutput(context.Background(), WriteOutputInput{
		Path:       path,
		Extensions: []string{".csv"},
		Data:       []byte("a,b\n1,2\n"),
	})
	if err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	if out.Bytes != 8 {
		t.Errorf("Bytes = %d, want 8", out.Bytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestWriteOutput_Overwrites(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("overwrite is not supported on Windows")
	}
	path := filepath.Join(t.TempDir(), "meals.txt")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteOutput(context.Background(), WriteOutputInput{Path: path, Extensions: []string{".txt"}, Data: []byte("new")}); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}
}

func TestValidateOutputPath_Rejects(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"parent traversal", "../foods.csv"},
		{"mid-path traversal", "/tmp/../etc/foods.csv"},
		{"no extension", "/tmp/foods"},
		{"wrong extension", "/tmp/foods.json"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOutputPath(tc.path, []string{".csv"})
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateOutputPath_ExtensionCaseInsensitive(t *testing.T) {
	if err := ValidateOutputPath(filepath.Join(t.TempDir(), "Foods.CSV"), []string{".csv"}); err != nil {
		t.Errorf("ValidateOutputPath() error = %v", err)
	}
}

func TestValidateOutputPath_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on Windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target.csv")
	if err := os.WriteFile(target, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	err := ValidateOutputPath(link, []string{".csv"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for symlink, got: %v", err)
	}
}
