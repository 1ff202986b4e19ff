package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/protocol"
)

// closeAckGrace bounds how long Close may spend writing the WebSocket close
// frame (code 1000) (§4.2.4). Close does not wait for the peer's
// acknowledging close frame: it closes the connection as soon as its own
// frame is written or the deadline passes.
const closeAckGrace = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSServer hosts the /ws upgrade endpoint (§6), grounded on
// other_examples' acadiaai-tns gorilla/websocket JSON-RPC transport.
// Each accepted connection becomes a *WSSession.
type WSServer struct {
	engine *gin.Engine
	srv    *http.Server
	accept chan *WSSession
}

func NewWSServer(addr string) *WSServer {
	gin.SetMode(gin.ReleaseMode)
	s := &WSServer{engine: gin.New(), accept: make(chan *WSSession, 16)}
	s.engine.GET("/ws", s.handleUpgrade)
	s.srv = &http.Server{Addr: addr, Handler: s.engine}
	return s
}

func (s *WSServer) Sessions() <-chan *WSSession { return s.accept }

func (s *WSServer) Serve() error {
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *WSServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *WSServer) handleUpgrade(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket transport: upgrade failed", err)
		return
	}
	session := newWSSession(conn)
	go session.readLoop()
	select {
	case s.accept <- session:
	case <-c.Request.Context().Done():
		_ = session.Close(context.Background())
	}
}

// WSSession wraps one full-duplex connection. Inbound frames are fanned
// out to a broadcast of subscriber channels (the server-half requirement
// that multiple observers, e.g. logging, can see traffic alongside the
// dispatcher) in addition to the primary Transport.Receive consumer.
type WSSession struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu          sync.Mutex
	subscribers []chan *protocol.Message
	primary     chan *protocol.Message
	closed      chan struct{}
	closeOnce   sync.Once
}

func newWSSession(conn *websocket.Conn) *WSSession {
	return &WSSession{
		conn:    conn,
		primary: make(chan *protocol.Message, DefaultQueueCapacity),
		closed:  make(chan struct{}),
	}
}

// Subscribe registers an additional observer of inbound messages,
// independent of the primary Transport consumer (§4.2.4 broadcast
// fan-out). The returned channel is closed when the session closes.
func (s *WSSession) Subscribe() <-chan *protocol.Message {
	ch := make(chan *protocol.Message, DefaultQueueCapacity)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *WSSession) readLoop() {
	defer func() {
		s.mu.Lock()
		close(s.primary)
		for _, ch := range s.subscribers {
			close(ch)
		}
		s.mu.Unlock()
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			logger.Warn("websocket transport: discarding unparseable frame", err)
			continue
		}

		select {
		case s.primary <- msg:
		case <-s.closed:
			return
		}

		s.mu.Lock()
		for _, ch := range s.subscribers {
			select {
			case ch <- msg:
			default:
			}
		}
		s.mu.Unlock()
	}
}

func (s *WSSession) Open(ctx context.Context) error { return nil }

func (s *WSSession) Send(ctx context.Context, msg *protocol.Message) error {
	select {
	case <-s.closed:
		return protocol.ErrTransportClosed
	default:
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &protocol.TransportError{Op: "write frame", Err: err}
	}
	return nil
}

func (s *WSSession) Receive(ctx context.Context) (*protocol.Message, error) {
	select {
	case msg, ok := <-s.primary:
		if !ok {
			return nil, nil
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *WSSession) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closed)
		deadline := time.Now().Add(closeAckGrace)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.SetReadDeadline(deadline)
		_ = s.conn.Close()
	})
	return nil
}

// WSClientTransport dials a remote /ws endpoint. A single reader owns the
// socket (no broadcast fan-out on the client half, per §4.2.4). Custom
// headers may be attached for authentication at handshake time.
type WSClientTransport struct {
	url    string
	header http.Header

	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func NewWSClientTransport(url string, header http.Header) *WSClientTransport {
	return &WSClientTransport{url: url, header: header}
}

func (t *WSClientTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return protocol.ErrTransportAlreadyOpen
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return &protocol.TransportError{Op: "dial", Err: err}
	}
	t.conn = conn
	return nil
}

func (t *WSClientTransport) Send(ctx context.Context, msg *protocol.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return protocol.ErrTransportClosed
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &protocol.TransportError{Op: "write frame", Err: err}
	}
	return nil
}

func (t *WSClientTransport) Receive(ctx context.Context) (*protocol.Message, error) {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()
	if closed || conn == nil {
		return nil, nil
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, nil
		}
		return nil, &protocol.TransportError{Op: "read frame", Err: err}
	}
	return protocol.Decode(data)
}

func (t *WSClientTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	deadline := time.Now().Add(closeAckGrace)
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return t.conn.Close()
}
