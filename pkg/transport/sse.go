package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/protocol"
)

// keepaliveInterval is how often the SSE stream sends a ": ping" comment
// to keep intermediaries from timing out the connection (§4.2.3, §6).
const keepaliveInterval = 15 * time.Second

// SSEServer hosts the HTTP side of the SSE transport: GET /sse opens the
// event stream, POST /message delivers client→server envelopes. Grounded
// on other_examples' SetiabudiResearch mcp-go-sdk SSE transport (endpoint
// event + per-client channel + flusher loop), re-expressed with gin
// routing and uuid session ids in place of raw net/http + r.RemoteAddr.
type SSEServer struct {
	engine *gin.Engine
	srv    *http.Server

	mu       sync.Mutex
	sessions map[string]*SSESession

	accept chan *SSESession
}

// NewSSEServer builds (but does not start) an SSE server listening at
// addr. Call Serve to run it; new sessions arrive on Sessions().
func NewSSEServer(addr string) *SSEServer {
	gin.SetMode(gin.ReleaseMode)
	s := &SSEServer{
		engine:   gin.New(),
		sessions: make(map[string]*SSESession),
		accept:   make(chan *SSESession, 16),
	}
	s.engine.GET("/sse", s.handleSSE)
	s.engine.POST("/message", s.handleMessage)
	s.srv = &http.Server{Addr: addr, Handler: s.engine}
	return s
}

// Sessions yields one *SSESession (itself a Transport) per client that
// opens the event stream — the accept-loop idiom, since one HTTP server
// multiplexes many logical connections.
func (s *SSEServer) Sessions() <-chan *SSESession {
	return s.accept
}

// Serve blocks running the HTTP listener until Shutdown is called.
func (s *SSEServer) Serve() error {
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *SSEServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *SSEServer) handleSSE(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := uuid.NewString()
	session := &SSESession{
		id:     sessionID,
		out:    make(chan *protocol.Message, DefaultQueueCapacity),
		in:     make(chan *protocol.Message, DefaultQueueCapacity),
		closed: make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
	}()

	select {
	case s.accept <- session:
	case <-c.Request.Context().Done():
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	endpoint := fmt.Sprintf("/message?sessionId=%s", sessionID)
	fmt.Fprintf(c.Writer, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			_ = session.Close(context.Background())
			return
		case <-session.closed:
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-session.out:
			if !ok {
				return
			}
			data, err := protocol.Encode(msg)
			if err != nil {
				logger.Warn("sse transport: failed to encode outbound message", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *SSEServer) handleMessage(c *gin.Context) {
	sessionID := c.Query("sessionId")
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := protocol.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	select {
	case session.in <- msg:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case <-session.closed:
		c.JSON(http.StatusGone, gin.H{"error": "session closed"})
	}
}

// SSESession is one accepted SSE connection: a Transport whose Send feeds
// the event stream and whose Receive drains envelopes the client POSTed.
type SSESession struct {
	id  string
	out chan *protocol.Message
	in  chan *protocol.Message

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *SSESession) ID() string { return s.id }

func (s *SSESession) Open(ctx context.Context) error { return nil }

func (s *SSESession) Send(ctx context.Context, msg *protocol.Message) error {
	select {
	case <-s.closed:
		return protocol.ErrTransportClosed
	default:
	}
	select {
	case s.out <- msg:
		return nil
	case <-s.closed:
		return protocol.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SSESession) Receive(ctx context.Context) (*protocol.Message, error) {
	select {
	case msg, ok := <-s.in:
		if !ok {
			return nil, nil
		}
		return msg, nil
	case <-s.closed:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SSESession) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.out)
	})
	return nil
}

// SSEClientTransport is the client half: it opens the GET /sse stream,
// reads the synthetic endpoint event to learn the POST URL, and frames
// Send as individual POSTs. Reconnection on stream drop is the caller's
// responsibility — this transport does not retry (§4.2.3).
type SSEClientTransport struct {
	baseURL string
	client  *http.Client

	mu          sync.Mutex
	postURL     string
	resp        *http.Response
	scan        *bufio.Scanner
	closed      bool
}

func NewSSEClientTransport(baseURL string) *SSEClientTransport {
	return &SSEClientTransport{baseURL: strings.TrimRight(baseURL, "/"), client: http.DefaultClient}
}

func (t *SSEClientTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.resp != nil {
		return protocol.ErrTransportAlreadyOpen
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/sse", nil)
	if err != nil {
		return &protocol.TransportError{Op: "build sse request", Err: err}
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return &protocol.TransportError{Op: "connect sse", Err: err}
	}
	t.resp = resp
	t.scan = bufio.NewScanner(resp.Body)

	// The first event must be the synthetic endpoint event.
	event, data, err := t.readEvent()
	if err != nil {
		return err
	}
	if event != "endpoint" {
		return &protocol.TransportError{Op: "sse handshake", Err: fmt.Errorf("expected endpoint event, got %q", event)}
	}
	if strings.HasPrefix(data, "http") {
		t.postURL = data
	} else {
		t.postURL = t.baseURL + data
	}
	return nil
}

// readEvent reads one "event: X\ndata: Y\n\n" block, skipping keepalive
// comments. Must be called with t.mu held.
func (t *SSEClientTransport) readEvent() (event, data string, err error) {
	for {
		if !t.scan.Scan() {
			if serr := t.scan.Err(); serr != nil {
				return "", "", &protocol.TransportError{Op: "read sse", Err: serr}
			}
			return "", "", io.EOF
		}
		line := t.scan.Text()
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			continue // keepalive comment
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			return event, data, nil
		}
	}
}

func (t *SSEClientTransport) Send(ctx context.Context, msg *protocol.Message) error {
	t.mu.Lock()
	postURL := t.postURL
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return protocol.ErrTransportClosed
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewReader(data))
	if err != nil {
		return &protocol.TransportError{Op: "build post", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return &protocol.TransportError{Op: "post message", Err: err}
	}
	defer resp.Body.Close()
	return nil
}

func (t *SSEClientTransport) Receive(ctx context.Context) (*protocol.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, nil
	}

	for {
		event, data, err := t.readEvent()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if event != "message" {
			continue
		}
		return protocol.Decode([]byte(data))
	}
}

func (t *SSEClientTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.resp != nil {
		return t.resp.Body.Close()
	}
	return nil
}
