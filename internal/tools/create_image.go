package tools

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/disintegration/imaging"
)

// ResizeImageTool decodes an image from the session sandbox, resizes it,
// and writes the result back to the sandbox. It replaces the teacher's
// provider-backed image generation tool: this orchestrator's backends
// (Ollama, LM Studio) are text completion APIs with no image generation
// endpoint, so the deterministic transform the domain stack can actually
// support is resize/thumbnail, not synthesis from a prompt.
type ResizeImageTool struct {
	sandbox sandbox.Manager
}

func NewResizeImageTool(sb sandbox.Manager) *ResizeImageTool { return &ResizeImageTool{sandbox: sb} }

func (t *ResizeImageTool) Descriptor() Descriptor {
	return NewDescriptor("resize_image", "Resize an image file in the session sandbox, preserving aspect ratio when only one dimension is given").
		WithCapabilities("image:write", "file:write").
		WithFilesystem().
		WithParameter(ParameterSpec{Name: "source", Type: "string", Required: true, Description: "Source image path, relative to current directory"}).
		WithParameter(ParameterSpec{Name: "destination", Type: "string", Required: true, Description: "Destination image path, relative to current directory"}).
		WithParameter(ParameterSpec{Name: "width", Type: "number", Required: false, Description: "Target width in pixels; 0 to derive from height"}).
		WithParameter(ParameterSpec{Name: "height", Type: "number", Required: false, Description: "Target height in pixels; 0 to derive from width"})
}

func (t *ResizeImageTool) Execute(ctx context.Context, tc *Context) *Result {
	src, ok := tc.Param("source")
	if !ok || src == "" {
		return Fail("source is required")
	}
	dst, ok := tc.Param("destination")
	if !ok || dst == "" {
		return Fail("destination is required")
	}
	width := intParam(tc, "width")
	height := intParam(tc, "height")
	if width == 0 && height == 0 {
		return Fail("at least one of width or height must be non-zero")
	}

	data, err := t.sandbox.Read(tc.SessionID, src)
	if err != nil {
		return sandboxFailure(err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Fail(fmt.Sprintf("not a decodable image: %v", err))
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	format, err := formatFromExt(dst)
	if err != nil {
		return Fail(err.Error())
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return Fail(fmt.Sprintf("encode %s: %v", dst, err))
	}

	if err := t.sandbox.Write(tc.SessionID, dst, buf.Bytes()); err != nil {
		return sandboxFailure(err)
	}
	bounds := resized.Bounds()
	return OK(map[string]any{
		"path":   dst,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})
}

// AlternativeMethod "center_crop" is used when a straight resize would
// distort an image the caller actually wanted cropped to an exact size
// (e.g. a square thumbnail from a wide source).
func (t *ResizeImageTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	if name != "center_crop" {
		return nil, false
	}
	src, ok := tc.Param("source")
	if !ok || src == "" {
		return Fail("source is required"), true
	}
	dst, ok := tc.Param("destination")
	if !ok || dst == "" {
		return Fail("destination is required"), true
	}
	width := intParam(tc, "width")
	height := intParam(tc, "height")
	if width == 0 || height == 0 {
		return Fail("both width and height are required for center_crop"), true
	}

	data, err := t.sandbox.Read(tc.SessionID, src)
	if err != nil {
		return sandboxFailure(err), true
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Fail(fmt.Sprintf("not a decodable image: %v", err)), true
	}

	cropped := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	format, err := formatFromExt(dst)
	if err != nil {
		return Fail(err.Error()), true
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, format); err != nil {
		return Fail(fmt.Sprintf("encode %s: %v", dst, err)), true
	}
	if err := t.sandbox.Write(tc.SessionID, dst, buf.Bytes()); err != nil {
		return sandboxFailure(err), true
	}
	return OK(map[string]any{"path": dst, "width": width, "height": height}), true
}

func intParam(tc *Context, name string) int {
	v, ok := tc.Parameters[name]
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return int(f)
}

func formatFromExt(path string) (imaging.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return imaging.PNG, nil
	case ".jpg", ".jpeg":
		return imaging.JPEG, nil
	case ".gif":
		return imaging.GIF, nil
	case ".bmp":
		return imaging.BMP, nil
	case ".tif", ".tiff":
		return imaging.TIFF, nil
	default:
		return 0, fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}
}
