// Package realtime manages one websocket connection to the messaging
// backend: heartbeat while open, inbound frames dispatched by type to
// caller-supplied handlers, sends dropped (not queued) when the connection
// is not open. The handle never reconnects on its own — see Reconnector.
package realtime

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	writeWait                = 10 * time.Second
	maxFrameSize             = 4096
)

// State of a connection handle. Errored is reachable from Connecting or Open;
// the underlying transport's own close sequence still runs afterwards.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Options configures a channel handle.
type Options struct {
	// OnMessage receives the payload of every new_message frame. Required for
	// any caller that wants inbound messages; may be nil.
	OnMessage func(Message)
	// OnDeliveryReceipt receives the message ID of every delivery_receipt
	// frame. Optional.
	OnDeliveryReceipt func(messageID string)
	// HeartbeatInterval overrides the 30s default. Values <= 0 keep the default.
	HeartbeatInterval time.Duration
	// Dialer overrides the websocket dialer (tests, proxies).
	Dialer *websocket.Dialer
}

// Channel is one realtime connection handle, identified by the
// (connectionID, userID) pair the caller supplies.
//
// A nil *Channel is a valid no-op handle: Dial returns one when either
// identifier is missing, mirroring the contract that absence of an identifier
// is a no-op rather than an error.
type Channel struct {
	conn         *websocket.Conn
	connectionID string
	userID       string
	opts         Options

	writeLock sync.Mutex
	state     atomic.Int32

	heartbeatStop chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Dial opens a connection to baseURL with connectionId and userId query
// parameters. Both identifiers are required; if either is missing the dial is
// a no-op and the returned handle is nil (safe to use).
//
// On a successful handshake the handle sends one ping frame immediately and
// starts the recurring heartbeat.
func Dial(ctx context.Context, baseURL, connectionID, userID string, opts Options) (*Channel, error) {
	if connectionID == "" || userID == "" {
		log.Debug().Str("connection_id", connectionID).Str("user_id", userID).
			Msg("realtime dial skipped, missing identifier")
		return nil, nil
	}

	endpoint, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[realtime.Dial] parse base URL")
	}
	query := endpoint.Query()
	query.Set("connectionId", connectionID)
	query.Set("userId", userID)
	endpoint.RawQuery = query.Encode()

	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	c := &Channel{
		connectionID:  connectionID,
		userID:        userID,
		opts:          opts,
		heartbeatStop: make(chan struct{}),
		done:          make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))

	conn, resp, err := dialer.DialContext(ctx, endpoint.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.state.Store(int32(StateErrored))
		return nil, errors.Wrap(err, "[realtime.Dial] websocket dial")
	}
	conn.SetReadLimit(maxFrameSize)

	c.conn = conn
	c.state.Store(int32(StateOpen))
	log.Debug().Str("connection_id", connectionID).Msg("realtime channel open")

	// One ping right away, before any heartbeat interval elapses.
	if err := c.writeFrame(frame{Type: TypePing}); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "[realtime.Dial] initial ping")
	}

	go c.heartbeat()
	go c.readLoop()
	return c, nil
}

// State reports the handle's current state. A nil handle is Closed.
func (c *Channel) State() State {
	if c == nil {
		return StateClosed
	}
	return State(c.state.Load())
}

// Done is closed once the read loop has exited and the handle will deliver no
// further frames.
func (c *Channel) Done() <-chan struct{} {
	if c == nil {
		return closedDone
	}
	return c.done
}

// SendMessage sends a chat message. If the connection is not open the send is
// dropped with a warning — there is no queue.
func (c *Channel) SendMessage(text string) error {
	return c.send(frame{Type: TypeNewMessage, Text: text})
}

// SendDeliveryReceipt acknowledges receipt of a message. Dropped with a
// warning when the connection is not open.
func (c *Channel) SendDeliveryReceipt(messageID string) error {
	return c.send(frame{Type: TypeDeliveryReceipt, MessageID: messageID})
}

func (c *Channel) send(f frame) error {
	if c == nil {
		return nil
	}
	if c.State() != StateOpen {
		log.Warn().Str("type", f.Type).Str("state", c.State().String()).
			Msg("realtime send dropped, connection not open")
		return nil
	}
	return c.writeFrame(f)
}

// Close tears the handle down: heartbeat stops, a close frame is sent, and
// the socket is closed. Safe to call more than once and on a nil handle.
func (c *Channel) Close() error {
	if c == nil {
		return nil
	}
	c.state.Store(int32(StateClosing))
	c.stopHeartbeat()

	c.writeLock.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeLock.Unlock()

	return c.conn.Close()
}

func (c *Channel) stopHeartbeat() {
	c.stopOnce.Do(func() {
		close(c.heartbeatStop)
	})
}

// heartbeat sends a ping every interval while the connection stays open.
// stopHeartbeat is always called before or alongside socket close, so at most
// one ticker exists per handle and it never outlives the connection.
func (c *Channel) heartbeat() {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.heartbeatStop:
			return
		case <-ticker.C:
			if c.State() != StateOpen {
				return
			}
			if err := c.writeFrame(frame{Type: TypePing}); err != nil {
				log.Warn().Err(err).Str("connection_id", c.connectionID).
					Msg("heartbeat write failed")
				return
			}
		}
	}
}

func (c *Channel) readLoop() {
	defer func() {
		c.stopHeartbeat()
		c.state.Store(int32(StateClosed))
		c.conn.Close()
		close(c.done)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if c.State() != StateClosing {
				c.state.Store(int32(StateErrored))
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("connection_id", c.connectionID).
						Msg("realtime connection errored")
				}
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch parses one inbound frame and routes it by type. Malformed frames
// and handler panics are logged and dropped; the read loop must keep going.
func (c *Channel) dispatch(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("connection_id", c.connectionID).
				Msg("realtime handler panicked")
		}
	}()

	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Warn().Err(err).Str("connection_id", c.connectionID).Msg("malformed realtime frame dropped")
		return
	}

	switch f.Type {
	case TypeNewMessage:
		if f.Message != nil && c.opts.OnMessage != nil {
			c.opts.OnMessage(*f.Message)
		}
	case TypeDeliveryReceipt:
		if c.opts.OnDeliveryReceipt != nil {
			c.opts.OnDeliveryReceipt(f.MessageID)
		}
	case TypePong:
		// Heartbeat acknowledgment.
	default:
		log.Warn().Str("type", f.Type).Str("connection_id", c.connectionID).
			Msg("unknown realtime frame type dropped")
	}
}

// writeFrame marshals and writes one frame. gorilla/websocket allows a single
// concurrent writer, so every write goes through writeLock.
func (c *Channel) writeFrame(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "[Channel.writeFrame] marshal")
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return errors.Wrap(err, "[Channel.writeFrame] set deadline")
	}
	return errors.Wrap(c.conn.WriteMessage(websocket.TextMessage, data), "[Channel.writeFrame] write")
}
