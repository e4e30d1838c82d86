package supervisor

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/meshboot/internal/ctxlog"
)

// ErrSinkDisconnected is returned by Publish while the socket is down.
var ErrSinkDisconnected = errors.New("socket.io sink is not connected")

// SocketIOOptions configures DialSocketIO.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// SocketIOSink emits every event to a socket.io server, for live dashboards.
type SocketIOSink struct {
	io    *socket.Socket
	event string
}

// DialSocketIO connects to a socket.io server and waits for the handshake.
func DialSocketIO(ctx context.Context, o SocketIOOptions) (*SocketIOSink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", o.URL)
	logger.Info("Connecting event sink...")

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if o.Event == "" {
		o.Event = "node_event"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Event sink connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIOSink{io: io, event: o.Event}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(o.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", o.Timeout)
	}
}

// Name implements Sink.
func (s *SocketIOSink) Name() string { return "socketio" }

// Publish implements Sink.
func (s *SocketIOSink) Publish(_ context.Context, ev Event) error {
	if !s.io.Connected() {
		return ErrSinkDisconnected
	}
	s.io.Emit(s.event, ev.Payload())
	return nil
}

// Close implements Sink.
func (s *SocketIOSink) Close() error {
	s.io.Disconnect()
	return nil
}
