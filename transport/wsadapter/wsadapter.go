// Package wsadapter implements transport.Adapter for panel pages that connect
// back to the host over a WebSocket, e.g. a system browser or an external
// webview process.
package wsadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/transport"
)

// Frame kinds. show, hide, load and event go to the page; ready, closed and
// message come from it.
const (
	KindShow    = "show"
	KindHide    = "hide"
	KindLoad    = "load"
	KindEvent   = "event"
	KindReady   = "ready"
	KindClosed  = "closed"
	KindMessage = "message"
)

const (
	DefaultPath         = "/ws"
	DefaultWriteTimeout = 5 * time.Second
)

// Frame is one JSON message on the socket.
type Frame struct {
	Kind      string          `json:"kind"`
	URL       string          `json:"url,omitempty"`
	EventType string          `json:"eventType,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	Raw       string          `json:"raw,omitempty"`
}

type Config struct {
	// Addr is the listen address used by Start.
	Addr string
	// AllowedOrigins restricts page origins. Empty allows any origin.
	AllowedOrigins []string
	Path           string
	WriteTimeout   time.Duration
}

// Adapter serves one page connection at a time. A newer connection replaces the older one.
type Adapter struct {
	cfg      Config
	log      logger.Logger
	upgrader websocket.Upgrader
	srv      *http.Server
	ln       net.Listener

	writeMu sync.Mutex

	mu       sync.Mutex
	listener transport.Listener
	conn     *websocket.Conn
	ready    bool
	visible  bool
	closed   bool
	url      string
}

var _ transport.Adapter = (*Adapter)(nil)

func New(cfg Config, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	a := &Adapter{
		cfg: cfg,
		log: logger.WithComponent(log, "wsadapter"),
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     a.checkOrigin,
	}
	return a
}

// Handler routes the socket endpoint and /healthz behind CORS.
func (a *Adapter) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(a.cfg.Path, a.serveWS).Methods(http.MethodGet)
	router.HandleFunc("/healthz", a.serveHealth).Methods(http.MethodGet, http.MethodHead)

	origins := a.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
	)(router)
}

// Start listens on cfg.Addr and serves in the background until Close.
func (a *Adapter) Start() error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Addr, err)
	}
	a.mu.Lock()
	a.ln = ln
	a.srv = &http.Server{Handler: a.Handler(), ReadHeaderTimeout: 10 * time.Second}
	srv := a.srv
	a.mu.Unlock()

	a.log.Info("panel socket listening", map[string]any{"addr": ln.Addr().String(), "path": a.cfg.Path})
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("panel socket server stopped", map[string]any{"error": err.Error()})
		}
	}()
	return nil
}

// Addr is the bound address once Start succeeded.
func (a *Adapter) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return a.cfg.Addr
	}
	return a.ln.Addr().String()
}

func (a *Adapter) SetListener(l transport.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *Adapter) Open() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return transport.ErrUnavailable
	}
	a.visible = true
	conn := a.conn
	a.mu.Unlock()

	if conn == nil {
		// shown once a page connects
		return nil
	}
	return a.write(conn, Frame{Kind: KindShow})
}

func (a *Adapter) Load(url string) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return transport.ErrUnavailable
	}
	a.url = url
	conn := a.conn
	if conn != nil {
		a.ready = false
	}
	a.mu.Unlock()

	if conn == nil {
		return nil
	}
	return a.write(conn, Frame{Kind: KindLoad, URL: url})
}

func (a *Adapter) Send(payload string) error {
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return transport.ErrUnavailable
	case a.conn == nil || !a.ready:
		a.mu.Unlock()
		return transport.ErrNotReady
	}
	conn := a.conn
	a.mu.Unlock()

	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("payload is not valid JSON")
	}
	return a.write(conn, Frame{
		Kind:      KindEvent,
		EventType: transport.EventTypeFor(payload),
		Detail:    json.RawMessage(payload),
	})
}

// Hide asks the page to hide. Without a page there is nothing to wait for, so
// the close is reported straight away.
func (a *Adapter) Hide() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return transport.ErrUnavailable
	}
	a.visible = false
	conn, l := a.conn, a.listener
	a.mu.Unlock()

	if conn != nil {
		if err := a.write(conn, Frame{Kind: KindHide}); err == nil {
			return nil
		}
	}
	if l != nil {
		l.OnClosed()
	}
	return nil
}

// Close stops the server and reports the adapter unavailable.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.ready = false
	conn, srv, l := a.conn, a.srv, a.listener
	a.conn = nil
	a.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	var err error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.WriteTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)
	}
	if l != nil {
		l.OnUnavailable(transport.ErrUnavailable)
	}
	return err
}

func (a *Adapter) checkOrigin(r *http.Request) bool {
	if len(a.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range a.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	a.log.Warn("rejected panel origin", map[string]any{"origin": origin})
	return false
}

func (a *Adapter) write(conn *websocket.Conn, f Frame) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteTimeout))
	if err := conn.WriteJSON(f); err != nil {
		a.log.Warn("frame write failed", map[string]any{"kind": f.Kind, "error": err.Error()})
		return err
	}
	return nil
}

func (a *Adapter) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("websocket upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = conn.Close()
		return
	}
	prev := a.conn
	a.conn = conn
	a.ready = false
	visible := a.visible
	a.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	a.log.Info("panel connected", map[string]any{"remote": r.RemoteAddr})
	if visible {
		_ = a.write(conn, Frame{Kind: KindShow})
	}

	a.readLoop(conn)
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	defer a.disconnected(conn)
	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.log.Warn("panel connection lost", map[string]any{"error": err.Error()})
			}
			return
		}

		a.mu.Lock()
		if a.conn != conn {
			a.mu.Unlock()
			return
		}
		l := a.listener
		switch f.Kind {
		case KindReady:
			a.ready = true
		case KindClosed:
			a.visible = false
		}
		a.mu.Unlock()

		if l == nil {
			continue
		}
		switch f.Kind {
		case KindReady:
			l.OnReady()
		case KindClosed:
			l.OnClosed()
		case KindMessage:
			l.OnMessageReceived(f.Raw)
		default:
			a.log.Debug("ignoring frame", map[string]any{"kind": f.Kind})
		}
	}
}

// disconnected forgets conn. A page lost while visible counts as a close.
func (a *Adapter) disconnected(conn *websocket.Conn) {
	_ = conn.Close()

	a.mu.Lock()
	if a.conn != conn {
		a.mu.Unlock()
		return
	}
	a.conn = nil
	a.ready = false
	wasVisible := a.visible
	a.visible = false
	l := a.listener
	a.mu.Unlock()

	a.log.Info("panel disconnected", nil)
	if wasVisible && l != nil {
		l.OnClosed()
	}
}

type health struct {
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready"`
	Visible   bool   `json:"visible"`
	URL       string `json:"url,omitempty"`
}

func (a *Adapter) serveHealth(w http.ResponseWriter, _ *http.Request) {
	a.mu.Lock()
	h := health{Connected: a.conn != nil, Ready: a.ready, Visible: a.visible, URL: a.url}
	closed := a.closed
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if closed {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(h)
}
