package transport

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/mcpgo/mcp/internal/logger"
	"github.com/mcpgo/mcp/pkg/protocol"
)

// maxLineBytes is the stdio framing limit (§4.2.1): lines longer than
// 10 MiB are rejected rather than buffered without bound.
const maxLineBytes = 10 * 1024 * 1024

// StdioTransport frames one JSON object per '\n'-terminated line over a
// pair of io.Reader/io.Writer, the shape the teacher's own stdio transport
// uses for talking to an LLM host over the process's own stdin/stdout.
type StdioTransport struct {
	r io.Reader
	w io.Writer

	mu     sync.Mutex
	scan   *bufio.Scanner
	closed bool

	// cmd is set only by the client variant (NewStdioClientTransport),
	// which spawns a child process and treats its exit as a transport
	// failure.
	cmd *exec.Cmd
}

// NewStdioTransport frames messages over the given reader/writer pair —
// typically os.Stdin/os.Stdout when serving, as the teacher's own
// transport.NewStdioTransport() does.
func NewStdioTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{r: r, w: w}
}

// NewStdioClientTransport spawns name with args and frames messages over
// its stdin/stdout, treating the child's exit as a transport failure. This
// is the client half the teacher's server-only transport never needed.
func NewStdioClientTransport(name string, args ...string) (*StdioTransport, error) {
	cmd := exec.Command(name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &protocol.TransportError{Op: "stdin pipe", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &protocol.TransportError{Op: "stdout pipe", Err: err}
	}
	return &StdioTransport{r: stdout, w: stdin, cmd: cmd}, nil
}

func (t *StdioTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scan != nil {
		return protocol.ErrTransportAlreadyOpen
	}
	if t.cmd != nil {
		if err := t.cmd.Start(); err != nil {
			return &protocol.TransportError{Op: "spawn child", Err: err}
		}
	}
	scanner := bufio.NewScanner(t.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	t.scan = scanner
	return nil
}

func (t *StdioTransport) Send(ctx context.Context, msg *protocol.Message) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return protocol.ErrTransportClosed
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.w.Write(append(data, '\n')); err != nil {
		return &protocol.TransportError{Op: "write", Err: err}
	}
	return nil
}

func (t *StdioTransport) Receive(ctx context.Context) (*protocol.Message, error) {
	t.mu.Lock()
	scanner := t.scan
	t.mu.Unlock()
	if scanner == nil {
		return nil, &protocol.TransportError{Op: "receive before open"}
	}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			if isLineTooLong(err) {
				return nil, protocol.ErrMessageTooLarge
			}
			return nil, &protocol.TransportError{Op: "read", Err: err}
		}
		// End of stream on a spawned child's stdout means the child exited,
		// which is a transport failure; otherwise it is a graceful shutdown.
		if t.cmd != nil {
			return nil, &protocol.TransportError{Op: "child process exited"}
		}
		return nil, nil
	}

	line := scanner.Bytes()
	if len(line) == 0 {
		return t.Receive(ctx)
	}
	msg, err := protocol.Decode(line)
	if err != nil {
		logger.Warn("stdio transport: discarding unparseable line", err)
		return t.Receive(ctx)
	}
	return msg, nil
}

func (t *StdioTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if closer, ok := t.w.(io.Closer); ok {
		_ = closer.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return nil
}

func isLineTooLong(err error) bool {
	return err == bufio.ErrTooLong
}
