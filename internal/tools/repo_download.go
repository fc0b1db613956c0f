package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/google/uuid"
)

// RepoDownloadTool downloads a zip archive (e.g. a GitHub codeload URL) into
// the session sandbox and extracts it, so a later tool in the same
// iteration sequence can analyze the files under a well-known path. This is
// the "repoPath" producer side of the shared Context.State convention.
type RepoDownloadTool struct {
	sandbox sandbox.Manager
	client  *http.Client
}

func NewRepoDownloadTool(sb sandbox.Manager) *RepoDownloadTool {
	return &RepoDownloadTool{sandbox: sb, client: &http.Client{Timeout: 2 * time.Minute}}
}

func (t *RepoDownloadTool) Descriptor() Descriptor {
	return NewDescriptor("download_repo", "Download a zip archive from a URL and extract it into a new directory in the session sandbox").
		WithCapabilities("repo:download", "net:http", "file:write").
		WithNetwork().
		WithFilesystem().
		WithParameter(ParameterSpec{Name: "url", Type: "string", Required: true, Description: "URL of a zip archive to download"}).
		WithParameter(ParameterSpec{Name: "destination", Type: "string", Required: false, Description: "Directory to extract into, relative to current directory; a unique name is generated if omitted"})
}

func (t *RepoDownloadTool) Execute(ctx context.Context, tc *Context) *Result {
	rawURL, ok := tc.Param("url")
	if !ok || rawURL == "" {
		return Fail("url is required")
	}
	if err := checkSSRF(rawURL); err != nil {
		return Fail(fmt.Sprintf("SSRF protection: %v", err))
	}

	dest, ok := tc.Param("destination")
	if !ok || dest == "" {
		dest = "repo-" + uuid.NewString()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return Fail(fmt.Sprintf("create request: %v", err))
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return Fail(fmt.Sprintf("download failed: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Fail(fmt.Sprintf("download failed: status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256<<20))
	if err != nil {
		return Fail(fmt.Sprintf("read response: %v", err))
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return Fail(fmt.Sprintf("not a zip archive: %v", err))
	}

	count := 0
	for _, f := range zr.File {
		cleaned := filepath.Clean(f.Name)
		if strings.HasPrefix(cleaned, "..") {
			continue // zip-slip guard; sandbox.Write would reject it anyway
		}
		target := filepath.Join(dest, cleaned)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Fail(fmt.Sprintf("open %s in archive: %v", f.Name, err))
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return Fail(fmt.Sprintf("read %s in archive: %v", f.Name, err))
		}
		if err := t.sandbox.Write(tc.SessionID, target, data); err != nil {
			return sandboxFailure(err)
		}
		count++
	}

	if tc.State != nil {
		tc.State["repoPath"] = dest
	}
	return OK(map[string]any{"path": dest, "files_extracted": count})
}

func (t *RepoDownloadTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}
