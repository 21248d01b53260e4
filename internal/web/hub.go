package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/diogo/cellchat/internal/session"
)

const writeWait = 10 * time.Second

// hub pushes a state snapshot to every connected page after each change
type hub struct {
	store    *session.Store
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	wg    sync.WaitGroup
}

func newHub(store *session.Store) *hub {
	return &hub{
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		conns: map[*websocket.Conn]struct{}{},
	}
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("[web] websocket upgrade failed")
		return
	}

	updates, unsubscribe := h.store.Subscribe()

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	log.Info().Int("pages", h.count()).Msg("[web] page connected")

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(newStateView(h.store.Snapshot())); err != nil {
		unsubscribe()
		h.remove(conn)
		return
	}

	// The page never sends anything; reading only notices the close.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				unsubscribe()
				return
			}
		}
	}()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.remove(conn)

		for snap := range updates {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newStateView(snap)); err != nil {
				log.Debug().Err(err).Msg("[web] websocket write failed")
				unsubscribe()
				return
			}
		}
	}()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
	log.Info().Int("pages", h.count()).Msg("[web] page disconnected")
}

// count returns the number of connected pages
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// closeAll tells every page the server is going away
func (h *hub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"), deadline)
		_ = c.Close()
	}
}

// wait blocks until all websocket writers have finished
func (h *hub) wait() {
	h.wg.Wait()
}
