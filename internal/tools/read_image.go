package tools

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/agentcore/orchestrator/internal/sandbox"

	// Registers JPEG/PNG/GIF decoders with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ReadImageTool inspects an image file in the session sandbox and reports
// its format and dimensions. Unlike a vision-model call, this is a
// deterministic, local decode — useful when the model needs to confirm an
// image exists and is well-formed before handing its path to another tool.
type ReadImageTool struct {
	sandbox sandbox.Manager
}

func NewReadImageTool(sb sandbox.Manager) *ReadImageTool { return &ReadImageTool{sandbox: sb} }

func (t *ReadImageTool) Descriptor() Descriptor {
	return NewDescriptor("read_image", "Inspect an image file in the session sandbox and report its format and dimensions").
		WithCapabilities("image:read", "file:read").
		WithFilesystem().
		WithAlternatives("thumbnail").
		WithParameter(ParameterSpec{Name: "path", Type: "string", Required: true, Description: "Path to the image file, relative to the session's current directory"})
}

func (t *ReadImageTool) Execute(ctx context.Context, tc *Context) *Result {
	path, ok := tc.Param("path")
	if !ok || path == "" {
		return Fail("path is required")
	}
	data, err := t.sandbox.Read(tc.SessionID, path)
	if err != nil {
		return sandboxFailure(err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Fail(fmt.Sprintf("not a decodable image: %v", err))
	}
	return OK(map[string]any{
		"path":   path,
		"format": format,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}

// AlternativeMethod "thumbnail" produces a small preview copy alongside the
// original when the model asked to "view" an image it cannot decode
// metadata-only — delegates to ResizeImageTool's logic at a fixed size.
func (t *ReadImageTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	if name != "thumbnail" {
		return nil, false
	}
	path, ok := tc.Param("path")
	if !ok || path == "" {
		return Fail("path is required"), true
	}
	resizer := &ResizeImageTool{sandbox: t.sandbox}
	thumbTc := &Context{
		SessionID: tc.SessionID,
		Parameters: map[string]any{
			"source":      path,
			"destination": thumbnailPath(path),
			"width":       float64(256),
			"height":      float64(0),
		},
	}
	return resizer.Execute(ctx, thumbTc), true
}

func thumbnailPath(path string) string {
	return path + ".thumb.png"
}
