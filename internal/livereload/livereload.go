// Package livereload pushes a reload event to connected browsers whenever
// the model is rebuilt in development mode, over a socket.io endpoint
// mounted on the serving mux.
package livereload

import (
	"log/slog"
	"net/http"

	"github.com/zishang520/socket.io/v2/socket"
)

// Event is the event name emitted to clients on every rebuild.
const Event = "reload"

// Path is where the hub's handler is mounted on the serving mux.
const Path = "/__bundlego__/socket.io/"

// Hub broadcasts rebuild notifications to every connected client.
type Hub struct {
	io     *socket.Server
	logger *slog.Logger
}

// NewHub creates a hub and starts accepting connections.
func NewHub(logger *slog.Logger) *Hub {
	opts := socket.DefaultServerOptions()
	opts.SetPath(Path)
	io := socket.NewServer(nil, opts)
	h := &Hub{io: io, logger: logger}
	io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		h.logger.Debug("Live-reload client connected.", "sid", client.Id())
	})
	return h
}

// Handler returns the HTTP handler to mount at Path.
func (h *Hub) Handler() http.Handler {
	return h.io.ServeHandler(nil)
}

// NotifyReload broadcasts a reload event with the reason ("descriptor
// change", "asset change", ...).
func (h *Hub) NotifyReload(reason string) {
	h.logger.Debug("Broadcasting reload event.", "reason", reason)
	if err := h.io.Emit(Event, map[string]any{"reason": reason}); err != nil {
		h.logger.Warn("Failed to broadcast reload event.", "error", err)
	}
}

// Close disconnects every client and stops the hub.
func (h *Hub) Close() {
	h.io.Close(nil)
}
