package driver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const recvBuffer = 32

// WebSocketTransport carries RPC frames over a websocket connection.
// Writes are serialized through a mutex; the underlying connection
// allows only one concurrent writer.
type WebSocketTransport struct {
	conn   *websocket.Conn
	binary bool

	writeMu      sync.Mutex
	writeTimeout time.Duration

	recv chan []byte

	closeOnce sync.Once
	closed    chan struct{}

	errMu sync.Mutex
	err   error
}

// DialWebSocket connects to a ws:// or wss:// endpoint, offering the
// codec's name as the websocket subprotocol.
func DialWebSocket(ctx context.Context, endpoint string, codec Codec, opts *Options) (Transport, error) {
	if opts == nil {
		opts = NewOptions()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: opts.handshakeTimeout,
		Subprotocols:     []string{codec.Name()},
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (handshake status %s)", err, resp.Status)
		}
		return nil, &ConnectionError{Op: "dial " + endpoint, Cause: err}
	}
	t := &WebSocketTransport{
		conn:         conn,
		binary:       codec.Binary(),
		writeTimeout: opts.writeTimeout,
		recv:         make(chan []byte, recvBuffer),
		closed:       make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *WebSocketTransport) readLoop() {
	defer close(t.recv)
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.closed:
				// Deliberate close, not a failure.
			default:
				t.setErr(err)
			}
			return
		}
		select {
		case t.recv <- data:
		case <-t.closed:
			return
		}
	}
}

// Send writes one frame. The context's deadline, when earlier than the
// configured write timeout, bounds the write.
func (t *WebSocketTransport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Time{}
	if t.writeTimeout > 0 {
		deadline = time.Now().Add(t.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	messageType := websocket.TextMessage
	if t.binary {
		messageType = websocket.BinaryMessage
	}
	return t.conn.WriteMessage(messageType, data)
}

// Recv returns the inbound frame channel. It is closed when the
// connection ends.
func (t *WebSocketTransport) Recv() <-chan []byte {
	return t.recv
}

// Close tears the connection down. A close frame is sent best-effort so
// the server sees a clean shutdown.
func (t *WebSocketTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		t.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		t.conn.SetWriteDeadline(deadline)
		t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMu.Unlock()
		t.conn.Close()
	})
	return nil
}

// Err reports the failure that ended the connection, or nil after a
// deliberate Close.
func (t *WebSocketTransport) Err() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}

func (t *WebSocketTransport) setErr(err error) {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	if t.err == nil {
		t.err = err
	}
}
