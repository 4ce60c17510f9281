package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/bundlego/internal/livereload"
	"github.com/vk/bundlego/internal/testutil"
)

// connect dials the harness server's live-reload endpoint and blocks until
// the connection is established.
func connect(t *testing.T, baseURL string) *socket.Socket {
	t.Helper()

	opts := socket.DefaultOptions()
	opts.SetPath(livereload.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)
	t.Cleanup(func() { io.Disconnect() })

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		connected <- errs[0].(error)
	})
	io.Connect()

	select {
	case err := <-connected:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the live-reload connection")
	}
	return io
}

func TestLiveReload_BroadcastsOnModelInvalidation(t *testing.T) {
	h := testutil.RunPipelineTest(t, map[string]string{
		"bundles/site.hcl": `
group "libs" {
  resources = ["/js/jquery.js"]
}
`,
		"webroot/js/jquery.js": "jquery();",
	}, testutil.Options{Mode: "dev"})
	require.Nil(t, h.PanicErr, "startup must not panic, logs:\n%s", h.Logs)
	require.NotNil(t, h.App.Hub(), "development mode mounts the live-reload hub")

	io := connect(t, h.Server.URL)

	received := make(chan any, 1)
	io.On(types.EventName(livereload.Event), func(data ...any) {
		if len(data) > 0 {
			received <- data[0]
		} else {
			received <- nil
		}
	})

	h.App.Hub().NotifyReload("js/jquery.js")

	select {
	case payload := <-received:
		require.NotNil(t, payload)
		m, ok := payload.(map[string]any)
		require.True(t, ok, "reload payload should be an object, got %T", payload)
		require.Equal(t, "js/jquery.js", m["reason"])
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the reload event")
	}
}

func TestLiveReload_NotMountedInProduction(t *testing.T) {
	h := testutil.RunPipelineTest(t, map[string]string{
		"bundles/site.hcl": "\n",
	}, testutil.Options{Mode: "prod"})
	require.Nil(t, h.PanicErr)
	require.Nil(t, h.App.Hub(), "production never exposes the live-reload endpoint")
}
