package envfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.All()) != 0 {
		t.Errorf("expected empty set, got %v", s.All())
	}
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	s := NewStore(path)
	s.Set("PORT", "8080")
	s.Set("HOST_IP", "127.0.0.1")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := reloaded.All()
	if got["PORT"] != "8080" || got["HOST_IP"] != "127.0.0.1" {
		t.Errorf("unexpected contents after round trip: %v", got)
	}
}

func TestStore_LoadSkipsCommentsAndBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nFOO=bar\nBAD_LINE\nBAZ=qux\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := s.All()
	if len(got) != 2 || got["FOO"] != "bar" || got["BAZ"] != "qux" {
		t.Errorf("unexpected parse result: %v", got)
	}
}

func TestStore_SavePreservesCommentsBlankLinesAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# top-of-file comment\nBAZ=original\n\nFOO=bar\n# trailing comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Set("BAZ", "updated")
	s.Set("NEW_KEY", "added")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "# top-of-file comment\nBAZ=updated\n\nFOO=bar\n# trailing comment\nNEW_KEY=added\n"
	if string(got) != want {
		t.Fatalf("Save output = %q, want %q", string(got), want)
	}
}

func TestStore_DeleteDropsLineOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "FOO=bar\nBAZ=qux\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := NewStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Delete("FOO")
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "BAZ=qux\n" {
		t.Fatalf("Save output = %q, want %q", string(got), "BAZ=qux\n")
	}
}

func TestStore_DeleteRemovesKey(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), ".env"))
	s.Set("A", "1")
	s.Delete("A")
	if _, ok := s.All()["A"]; ok {
		t.Error("expected A to be deleted")
	}
}
