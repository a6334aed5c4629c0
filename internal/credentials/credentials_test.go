package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/leadreach/leadreach/internal/model"
)

func TestStore_SaveLoadClear(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "leadreach"))

	if _, err := store.Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Load() on empty dir error = %v, want ErrNotLoggedIn", err)
	}

	want := &Credentials{
		Token:      "tok",
		User:       model.User{Username: "demo"},
		APIBaseURL: "http://localhost:4000",
		SavedAt:    time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("credentials mismatch (-want +got):\n%s", diff)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(store.Path())
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("file mode = %o, want 600", perm)
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Load() after Clear error = %v, want ErrNotLoggedIn", err)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json": "{oops",
		"no token": `{"user":{"username":"demo"}}`,
	}
	for name, content := range tests {
		content := content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := NewStore(dir).Load(); !errors.Is(err, ErrNotLoggedIn) {
				t.Errorf("Load() error = %v, want ErrNotLoggedIn", err)
			}
		})
	}
}
