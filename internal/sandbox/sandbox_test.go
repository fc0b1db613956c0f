package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) *FSManager {
	t.Helper()
	dir := t.TempDir()
	return NewFSManager(filepath.Join(dir, "cache"))
}

func TestSessionRoot_NoNestedCacheSegment(t *testing.T) {
	m := newTestManager(t)
	root, err := m.SessionRoot("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(root, string(filepath.Separator)+"cache"+string(filepath.Separator)) > 1 {
		t.Errorf("resolved root %q contains a nested cache/ segment", root)
	}
	if filepath.Base(root) != "sess-1" {
		t.Errorf("root %q does not end in session id", root)
	}
}

func TestResolveSafe_RejectsEscape(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../../etc/passwd"},
		{"absolute path", "/etc/passwd"},
		{"nested traversal", "a/b/../../../etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			if _, err := m.ResolveSafe("sess-1", tt.path); err == nil {
				t.Fatalf("expected boundary violation for %q", tt.path)
			} else {
				var sErr *Error
				if !asSandboxError(err, &sErr) || sErr.Kind != KindBoundaryViolation {
					t.Fatalf("expected BoundaryViolation, got %v", err)
				}
			}
		})
	}
}

func asSandboxError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}

func TestResolveSafe_AllowsWithinRoot(t *testing.T) {
	m := newTestManager(t)
	path, err := m.ResolveSafe("sess-1", "subdir/file.txt")
	if err != nil {
		t.Fatal(err)
	}
	root, _ := m.SessionRoot("sess-1")
	if !strings.HasPrefix(path, root) {
		t.Errorf("resolved path %q not under root %q", path, root)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := newTestManager(t)
	content := []byte("hello sandbox")
	if err := m.Write("sess-1", "notes/a.txt", content); err != nil {
		t.Fatal(err)
	}
	got, err := m.Read("sess-1", "notes/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round trip mismatch: got %q want %q", got, content)
	}
}

func TestChangeDir_PersistsAcrossResolve(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ChangeDir("sess-1", "workdir"); err != nil {
		t.Fatal(err)
	}
	path, err := m.ResolveSafe("sess-1", "file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(filepath.Dir(path)) != "workdir" {
		t.Errorf("expected resolution relative to workdir, got %q", path)
	}
}

func TestChangeDir_CannotEscapeRoot(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ChangeDir("sess-1", "../outside"); err == nil {
		t.Fatal("expected boundary violation changing dir outside root")
	}
}

func TestIsWithinBoundary(t *testing.T) {
	m := newTestManager(t)
	if !m.IsWithinBoundary("sess-1", "ok/file.txt") {
		t.Error("expected relative path within boundary")
	}
	if m.IsWithinBoundary("sess-1", "../../etc/passwd") {
		t.Error("expected traversal path outside boundary")
	}
}

func TestSafeWorkingDirectory_IsAlwaysRoot(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.ChangeDir("sess-1", "deep/nested/dir"); err != nil {
		t.Fatal(err)
	}
	wd, err := m.SafeWorkingDirectory("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	root, _ := m.SessionRoot("sess-1")
	if wd != root {
		t.Errorf("safe working directory %q should equal session root %q", wd, root)
	}
}

func TestInvalidSessionID(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"", "../escape", "a/b", "a\x00b"} {
		if _, err := m.SessionRoot(id); err == nil {
			t.Errorf("expected error for invalid session id %q", id)
		}
	}
}

func TestCleanup_IsIdempotent(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.SessionRoot("sess-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Cleanup("sess-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Cleanup("sess-1"); err != nil {
		t.Fatalf("second cleanup should be a no-op, got %v", err)
	}
}

func TestCleanup_DoesNotAffectOtherSessions(t *testing.T) {
	m := newTestManager(t)
	if err := m.Write("sess-a", "file.txt", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := m.Write("sess-b", "file.txt", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := m.Cleanup("sess-a"); err != nil {
		t.Fatal(err)
	}
	rootB, _ := m.SessionRoot("sess-b")
	if _, err := os.Stat(filepath.Join(rootB, "file.txt")); err != nil {
		t.Errorf("session b should be unaffected by cleaning up session a: %v", err)
	}
}

func TestCopyAndMove(t *testing.T) {
	m := newTestManager(t)
	if err := m.Write("sess-1", "src.txt", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := m.Copy("sess-1", "src.txt", "copy.txt"); err != nil {
		t.Fatal(err)
	}
	got, err := m.Read("sess-1", "copy.txt")
	if err != nil || string(got) != "payload" {
		t.Fatalf("copy failed: %v %q", err, got)
	}
	if err := m.Move("sess-1", "copy.txt", "moved.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Read("sess-1", "copy.txt"); err == nil {
		t.Error("expected source to be gone after move")
	}
	got, err = m.Read("sess-1", "moved.txt")
	if err != nil || string(got) != "payload" {
		t.Fatalf("move destination missing or wrong: %v %q", err, got)
	}
}

func TestListFilesAndDirs(t *testing.T) {
	m := newTestManager(t)
	m.Write("sess-1", "a.txt", []byte("1"))
	m.Write("sess-1", "b.txt", []byte("2"))
	m.ChangeDir("sess-1", "sub")
	m.ChangeDir("sess-1", "..")

	files, err := m.ListFiles("sess-1", ".")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files, got %v", files)
	}
	dirs, err := m.ListDirs("sess-1", ".")
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0] != "sub" {
		t.Errorf("expected [sub], got %v", dirs)
	}
}
