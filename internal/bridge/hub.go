package bridge

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-tutorial/internal/view"
)

const (
	clientBuffer = 8
	writeTimeout = 5 * time.Second
)

// hub fans view models out to connected websocket clients. A slow client only
// ever loses stale frames: the newest view always replaces the oldest queued one.
type hub struct {
	mu      sync.Mutex
	clients map[chan view.ViewModel]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[chan view.ViewModel]struct{})}
}

func (h *hub) add() chan view.ViewModel {
	ch := make(chan view.ViewModel, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) remove(ch chan view.ViewModel) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(vm view.ViewModel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- vm:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- vm:
			default:
			}
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	// Registered before the first frame so no transition is missed.
	ch := s.hub.add()
	defer s.hub.remove(ch)

	ctx := c.CloseRead(r.Context())
	if err := writeView(ctx, c, s.View()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case vm := <-ch:
			if err := writeView(ctx, c, vm); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func writeView(ctx context.Context, c *websocket.Conn, vm view.ViewModel) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, vm)
}
