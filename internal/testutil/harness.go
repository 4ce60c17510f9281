// Package testutil provides the shared integration-test harness: it lays a
// descriptor tree and a web root out in a temp directory, boots an App over
// them and exposes it through an httptest server.
package testutil

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/bundlego/internal/app"
	"github.com/vk/bundlego/internal/hcl"
	"github.com/vk/bundlego/internal/processor"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of a pipeline test run.
type HarnessResult struct {
	App       *app.App
	Server    *httptest.Server
	Logs      *SafeBuffer
	PanicErr  any
	WebRoot   string
	BundleDir string
}

// Options tweaks the harness.
type Options struct {
	// Mode defaults to "prod".
	Mode string
	// Registry defaults to the built-in processor set.
	Registry *processor.Registry
	// MountPath defaults to empty.
	MountPath string
}

// RunPipelineTest boots an App over the given file tree. Keys are paths
// relative to the temp root; files under "webroot/" form the serving root
// and files under "bundles/" the descriptor set.
func RunPipelineTest(t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	webRoot := filepath.Join(tmpDir, "webroot")
	bundleDir := filepath.Join(tmpDir, "bundles")
	require.NoError(t, os.MkdirAll(webRoot, 0755))
	require.NoError(t, os.MkdirAll(bundleDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	mode := opts.Mode
	if mode == "" {
		mode = "prod"
	}
	appConfig, err := app.NewConfig(app.Config{
		BundlesPath: bundleDir,
		WebRoot:     webRoot,
		Mode:        mode,
		MountPath:   opts.MountPath,
		LogFormat:   "text",
		LogLevel:    "debug",
		WorkerCount: 4,
	})
	require.NoError(t, err)

	logs := &SafeBuffer{}
	result := &HarnessResult{Logs: logs, WebRoot: webRoot, BundleDir: bundleDir}

	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("BUNDLEGO_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				result.PanicErr = r
			}
		}()
		result.App = app.NewApp(logs, appConfig, hcl.NewLoader(), opts.Registry)
	}()

	if result.App != nil {
		result.Server = httptest.NewServer(result.App.Handler())
		t.Cleanup(result.Server.Close)
	}
	return result
}
