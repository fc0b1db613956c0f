package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/orchestrator/internal/sandbox"
)

// ReadFileTool reads a file's contents through the session sandbox.
// Grounded on the teacher's ReadFileTool, but with the sandbox path
// mandatory rather than opt-in: every tool operation must be sandboxed.
type ReadFileTool struct {
	sandbox sandbox.Manager
}

func NewReadFileTool(sb sandbox.Manager) *ReadFileTool { return &ReadFileTool{sandbox: sb} }

func (t *ReadFileTool) Descriptor() Descriptor {
	return NewDescriptor("read_file", "Read the contents of a file in the session sandbox").
		WithCapabilities("file:read").
		WithFilesystem().
		WithAlternatives("read_lines").
		WithParameter(ParameterSpec{Name: "path", Type: "string", Required: true, Description: "Path to the file, relative to the session's current directory"})
}

func (t *ReadFileTool) Execute(ctx context.Context, tc *Context) *Result {
	path, ok := tc.Param("path")
	if !ok || path == "" {
		return Fail("path is required")
	}
	data, err := t.sandbox.Read(tc.SessionID, path)
	if err != nil {
		return sandboxFailure(err)
	}
	return OK(string(data))
}

// AlternativeMethod supports "read_lines", a line-bounded read used when a
// full read fails (e.g. the file is too large for the primary method's
// caller-side budget).
func (t *ReadFileTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	if name != "read_lines" {
		return nil, false
	}
	path, ok := tc.Param("path")
	if !ok || path == "" {
		return Fail("path is required"), true
	}
	data, err := t.sandbox.Read(tc.SessionID, path)
	if err != nil {
		return sandboxFailure(err), true
	}
	lines := strings.Split(string(data), "\n")
	const lineCap = 2000
	if len(lines) > lineCap {
		lines = lines[:lineCap]
	}
	return OK(strings.Join(lines, "\n")), true
}

// WriteFileTool writes a file's contents through the session sandbox.
type WriteFileTool struct {
	sandbox sandbox.Manager
}

func NewWriteFileTool(sb sandbox.Manager) *WriteFileTool { return &WriteFileTool{sandbox: sb} }

func (t *WriteFileTool) Descriptor() Descriptor {
	return NewDescriptor("write_file", "Write content to a file in the session sandbox, creating parent directories as needed").
		WithCapabilities("file:write").
		WithFilesystem().
		WithParameter(ParameterSpec{Name: "path", Type: "string", Required: true, Description: "Destination path, relative to the session's current directory"}).
		WithParameter(ParameterSpec{Name: "content", Type: "string", Required: true, Description: "Content to write"})
}

func (t *WriteFileTool) Execute(ctx context.Context, tc *Context) *Result {
	path, ok := tc.Param("path")
	if !ok || path == "" {
		return Fail("path is required")
	}
	content, _ := tc.Param("content")
	if err := t.sandbox.Write(tc.SessionID, path, []byte(content)); err != nil {
		return sandboxFailure(err)
	}
	return OK(fmt.Sprintf("wrote %d bytes to %s", len(content), path))
}

func (t *WriteFileTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}

// ListFilesTool lists files (or directories) in a sandbox directory.
type ListFilesTool struct {
	sandbox sandbox.Manager
}

func NewListFilesTool(sb sandbox.Manager) *ListFilesTool { return &ListFilesTool{sandbox: sb} }

func (t *ListFilesTool) Descriptor() Descriptor {
	return NewDescriptor("list_files", "List files and directories in a session sandbox directory").
		WithCapabilities("file:list", "fs:ls").
		WithFilesystem().
		WithParameter(ParameterSpec{Name: "path", Type: "string", Required: false, Description: "Directory to list, relative to current directory; defaults to \".\""})
}

func (t *ListFilesTool) Execute(ctx context.Context, tc *Context) *Result {
	path, ok := tc.Param("path")
	if !ok || path == "" {
		path = "."
	}
	files, err := t.sandbox.ListFiles(tc.SessionID, path)
	if err != nil {
		return sandboxFailure(err)
	}
	dirs, err := t.sandbox.ListDirs(tc.SessionID, path)
	if err != nil {
		return sandboxFailure(err)
	}
	return OK(map[string]any{"files": files, "directories": dirs})
}

func (t *ListFilesTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}

// DeleteFileTool deletes a file or directory tree in the sandbox.
type DeleteFileTool struct {
	sandbox sandbox.Manager
}

func NewDeleteFileTool(sb sandbox.Manager) *DeleteFileTool { return &DeleteFileTool{sandbox: sb} }

func (t *DeleteFileTool) Descriptor() Descriptor {
	return NewDescriptor("delete_file", "Delete a file or directory in the session sandbox").
		WithCapabilities("file:delete").
		WithFilesystem().
		WithParameter(ParameterSpec{Name: "path", Type: "string", Required: true, Description: "Path to delete, relative to current directory"})
}

func (t *DeleteFileTool) Execute(ctx context.Context, tc *Context) *Result {
	path, ok := tc.Param("path")
	if !ok || path == "" {
		return Fail("path is required")
	}
	if err := t.sandbox.Delete(tc.SessionID, path); err != nil {
		return sandboxFailure(err)
	}
	return OK(fmt.Sprintf("deleted %s", path))
}

func (t *DeleteFileTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}

// CopyMoveTool copies a path within the sandbox. It declares "move" as an
// alternative method, so when the copy fails the dispatcher retries the
// same source and destination as a move, which relocates the source.
type CopyMoveTool struct {
	sandbox sandbox.Manager
}

func NewCopyMoveTool(sb sandbox.Manager) *CopyMoveTool { return &CopyMoveTool{sandbox: sb} }

func (t *CopyMoveTool) Descriptor() Descriptor {
	return NewDescriptor("copy_path", "Copy a file or directory within the session sandbox").
		WithCapabilities("file:copy").
		WithFilesystem().
		WithAlternatives("move").
		WithParameter(ParameterSpec{Name: "source", Type: "string", Required: true, Description: "Source path, relative to current directory"}).
		WithParameter(ParameterSpec{Name: "destination", Type: "string", Required: true, Description: "Destination path, relative to current directory"})
}

func (t *CopyMoveTool) Execute(ctx context.Context, tc *Context) *Result {
	src, ok1 := tc.Param("source")
	dst, ok2 := tc.Param("destination")
	if !ok1 || !ok2 || src == "" || dst == "" {
		return Fail("source and destination are required")
	}
	if err := t.sandbox.Copy(tc.SessionID, src, dst); err != nil {
		return sandboxFailure(err)
	}
	return OK(fmt.Sprintf("copied %s to %s", src, dst))
}

// AlternativeMethod implements "move", which the dispatcher attempts only
// after a copy failure: it moves source to destination directly, so on
// success source no longer exists at its old path.
func (t *CopyMoveTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	if name != "move" {
		return nil, false
	}
	src, ok1 := tc.Param("source")
	dst, ok2 := tc.Param("destination")
	if !ok1 || !ok2 || src == "" || dst == "" {
		return Fail("source and destination are required"), true
	}
	if err := t.sandbox.Move(tc.SessionID, src, dst); err != nil {
		return sandboxFailure(err), true
	}
	return OK(fmt.Sprintf("moved %s to %s", src, dst)), true
}

// sandboxFailure maps a *sandbox.Error to a tool Result, preserving the
// failure kind in the message so the LLM can see a boundary violation was
// the cause rather than a generic I/O error.
func sandboxFailure(err error) *Result {
	if sErr, ok := err.(*sandbox.Error); ok {
		return Fail(fmt.Sprintf("%s: %v", sErr.Kind, sErr))
	}
	return Fail(err.Error())
}
