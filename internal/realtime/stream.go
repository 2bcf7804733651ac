// Package realtime pushes probe progress to WebSocket clients.
package realtime

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/chatgate/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10

	defaultBufferSize = 16
)

// Message is one JSON frame delivered to a watcher.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     sameOriginOrLoopback,
}

// Stream is a server-push WebSocket connection. Messages are queued and written
// by a single goroutine; a slow client is disconnected rather than blocking the sender.
type Stream struct {
	socket *websocket.Conn
	send   chan Message
	done   chan struct{}
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Accept upgrades the request and starts the read and write pumps.
func Accept(w http.ResponseWriter, r *http.Request) (*Stream, error) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		socket: socket,
		send:   make(chan Message, defaultBufferSize),
		done:   make(chan struct{}),
		log:    logger.WithModule("realtime"),
	}
	go s.writeLoop()
	go s.readLoop()
	return s, nil
}

// Done is closed once the connection is gone.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Send queues message; it reports false when the stream is closed or backed up.
func (s *Stream) Send(message Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.send <- message:
		return true
	default:
		s.log.Warn("dropping backpressure client")
		s.closeLocked()
		return false
	}
}

// Close flushes queued messages, sends a close frame and releases the socket.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Stream) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// readLoop only services control frames; watchers are not expected to talk.
func (s *Stream) readLoop() {
	defer s.Close()

	s.socket.SetReadLimit(maxMessageSize)
	_ = s.socket.SetReadDeadline(time.Now().Add(pongWait))
	s.socket.SetPongHandler(func(string) error {
		return s.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.socket.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (s *Stream) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.socket.Close()
		close(s.done)
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.socket.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.socket.WriteJSON(message); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		}
	}
}

func sameOriginOrLoopback(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originHost := hostWithoutPort(origin)
	return originHost == hostWithoutPort(r.Host) || isLoopback(originHost)
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			host = u.Host
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
