package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ballpit/bridge/internal/net/proto"
	"ballpit/bridge/internal/scene"
	"ballpit/bridge/internal/telemetry"
)

const metricRemoteRequests = "ws_requests"

var (
	// ErrClosed reports a call against a closed client.
	ErrClosed = errors.New("websocket client closed")
	// ErrRemote reports an error frame returned by the scene host.
	ErrRemote = errors.New("remote error")
)

// Options configures a scene host connection.
type Options struct {
	URL     string
	Token   string
	Dialer  *websocket.Dialer
	Logger  telemetry.Logger
	Metrics telemetry.Metrics
}

// Client is a synchronous request/response websocket client for the scene
// host. At most one request is in flight at a time; calls from multiple
// goroutines serialize. Calls carry no implicit timeout, only the deadline
// of the supplied context.
type Client struct {
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu      sync.Mutex
	conn    *websocket.Conn
	seq     uint64
	session string
}

// Dial connects to the scene host and completes the session handshake. A
// failed handshake closes the socket; no session state exists at that point.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("missing websocket url")
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}

	client := &Client{
		logger:  opts.Logger,
		metrics: opts.Metrics,
		conn:    conn,
	}
	if err := client.handshake(ctx, opts.Token); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	if client.logger != nil {
		client.logger.Printf("[ws] session %s established with %s", client.session, opts.URL)
	}
	return client, nil
}

// SessionID reports the identifier assigned by the scene host.
func (c *Client) SessionID() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// FetchSlot requests a snapshot of the identified slot subtree. A nil
// snapshot without error means the slot does not exist on the host.
func (c *Client) FetchSlot(ctx context.Context, id string, depth int, includeComponents bool) (*scene.SlotSnapshot, error) {
	env, err := c.call(ctx, proto.TypeSlotResult, func(seq uint64) ([]byte, error) {
		return proto.EncodeFetchSlot(proto.FetchSlotRequest{
			Seq:               seq,
			SlotID:            id,
			Depth:             depth,
			IncludeComponents: includeComponents,
		})
	})
	if err != nil {
		return nil, err
	}
	return env.Slot, nil
}

// SubmitBatch delivers one ordered chunk of operations and returns the
// per-operation outcome reported by the host.
func (c *Client) SubmitBatch(ctx context.Context, operations []scene.Operation) (scene.BatchOutcome, error) {
	env, err := c.call(ctx, proto.TypeBatchResult, func(seq uint64) ([]byte, error) {
		return proto.EncodeSubmitBatch(proto.SubmitBatchRequest{Seq: seq, Operations: operations})
	})
	if err != nil {
		return scene.BatchOutcome{}, err
	}
	return scene.BatchOutcome{Results: env.Results}, nil
}

// Close sends a normal-closure frame and releases the socket. Further calls
// report ErrClosed.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bridge shutting down")
	c.conn.WriteMessage(websocket.CloseMessage, message)
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) handshake(ctx context.Context, token string) error {
	payload, err := proto.EncodeHello(proto.Hello{Token: token})
	if err != nil {
		return err
	}
	c.applyDeadline(ctx)
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read welcome: %w", err)
	}
	env, err := proto.DecodeEnvelope(data)
	if err != nil {
		return err
	}
	if env.Type == proto.TypeError {
		return fmt.Errorf("%w: %s", ErrRemote, env.Message)
	}
	if env.Type != proto.TypeWelcome || env.SessionID == "" {
		return fmt.Errorf("unexpected handshake frame %q", env.Type)
	}
	c.session = env.SessionID
	return nil
}

func (c *Client) call(ctx context.Context, want string, encode func(seq uint64) ([]byte, error)) (proto.Envelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return proto.Envelope{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return proto.Envelope{}, err
	}

	c.seq++
	seq := c.seq
	payload, err := encode(seq)
	if err != nil {
		return proto.Envelope{}, err
	}

	c.applyDeadline(ctx)
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return proto.Envelope{}, fmt.Errorf("write %s: %w", want, err)
	}
	if c.metrics != nil {
		c.metrics.Add(metricRemoteRequests, 1)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return proto.Envelope{}, fmt.Errorf("read %s: %w", want, err)
		}
		env, err := proto.DecodeEnvelope(data)
		if err != nil {
			return proto.Envelope{}, err
		}
		// Frames for other sequences are stale leftovers; drop them.
		if env.Seq != 0 && env.Seq != seq {
			continue
		}
		if env.Type == proto.TypeError {
			return env, fmt.Errorf("%w: %s", ErrRemote, env.Message)
		}
		if env.Type != want {
			return env, fmt.Errorf("unexpected %q frame for %s request", env.Type, want)
		}
		return env, nil
	}
}

// applyDeadline mirrors the context deadline onto the socket; without one
// the socket blocks indefinitely.
func (c *Client) applyDeadline(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	c.conn.SetReadDeadline(deadline)
	c.conn.SetWriteDeadline(deadline)
}
