package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/sheetload/internal/config"
	"github.com/hpungsan/sheetload/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestValidateInputPath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../sheet.csv"},
		{"deep traversal", "../../etc/sheet.csv"},
		{"mid-path traversal", "/tmp/../etc/sheet.csv"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInputPath(tc.path, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateInputPath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()

	for _, path := range []string{"/tmp/sheet", "/tmp/sheet.json", "/tmp/sheet.txt", ""} {
		t.Run(path, func(t *testing.T) {
			err := ValidateInputPath(path, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidateInputPath_OK(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Sheet.CSV")
	writeFile(t, path, "")

	if err := ValidateInputPath(path, config.DefaultConfig()); err != nil {
		t.Errorf("ValidateInputPath() error = %v", err)
	}
}

func TestValidateInputPath_FileNotFound(t *testing.T) {
	err := ValidateInputPath(filepath.Join(t.TempDir(), "missing.csv"), config.DefaultConfig())
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestValidateInputPath_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dir.csv")
	if err := os.Mkdir(dir, 0700); err != nil {
		t.Fatal(err)
	}
	err := ValidateInputPath(dir, config.DefaultConfig())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidateInputPath_AllowedPaths(t *testing.T) {
	allowed := t.TempDir()
	other := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowed}

	inside := filepath.Join(allowed, "sheet.csv")
	writeFile(t, inside, "")
	if err := ValidateInputPath(inside, cfg); err != nil {
		t.Errorf("file in allowed dir rejected: %v", err)
	}

	outside := filepath.Join(other, "sheet.csv")
	writeFile(t, outside, "")
	if err := ValidateInputPath(outside, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for file outside allowed dirs, got: %v", err)
	}

	nested := filepath.Join(allowed, "sub")
	if err := os.Mkdir(nested, 0700); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "sheet.csv"), "")
	if err := ValidateInputPath(filepath.Join(nested, "sheet.csv"), cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest for nested file, got: %v", err)
	}
}

func TestValidateInputPath_SymlinkRejected(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "secret.csv")
	writeFile(t, target, "")

	link := filepath.Join(tmpDir, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	err := ValidateInputPath(link, config.DefaultConfig())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"sheet.csv", false},
		{"/data/sheet.csv", false},
		{"../sheet.csv", true},
		{"/data/../sheet.csv", true},
		{"/data/..sheet.csv", false},
	}
	for _, tt := range tests {
		if got := containsTraversal(tt.path); got != tt.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
