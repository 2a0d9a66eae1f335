// Package transport keeps the session channel between the page and the
// controller alive.
//
// A Transport owns at most one channel. It opens it on Connect, announces
// the page with a handshake the first time and with a reconnect message
// afterwards, hands inbound payloads to its Handler in arrival order, and
// re-dials after an unclean close. Re-dialing only happens while the window
// has focus: losing focus pauses the session and defers reconnection until
// focus returns.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/codewiresh/uibridge/internal/clock"
	"github.com/codewiresh/uibridge/internal/journal"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// ErrClosed is returned by Connect and Resume after Close.
var ErrClosed = errors.New("transport closed")

// DefaultReconnectDelay is the wait before re-dialing a lost channel.
const DefaultReconnectDelay = 10 * time.Second

// DefaultSessionID identifies the session until the controller assigns one.
const DefaultSessionID = "0"

// State is the lifecycle state of the transport.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	Paused
	Reconnecting
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Paused:
		return "paused"
	case Reconnecting:
		return "reconnecting"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Handler executes inbound payloads. Calls are sequential, in arrival
// order, from the channel's read goroutine.
type Handler interface {
	HandlePayload(payload string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(payload string)

// HandlePayload calls f.
func (f HandlerFunc) HandlePayload(payload string) { f(payload) }

// Recorder journals channel traffic.
type Recorder interface {
	Record(dir journal.Direction, payload string)
}

// Environment is announced once in the handshake.
type Environment struct {
	Touch      bool
	Direction  string // text direction, "ltr" or "rtl"
	Languages  string // comma separated preference list
	Dark       bool
	PixelRatio float64
}

// Options configure a Transport. URL, Dialer and Handler are required.
type Options struct {
	URL     string
	Dialer  Dialer
	Handler Handler

	Environment Environment

	// SessionID restores a session assigned by the controller earlier. A
	// restored session announces itself with the reconnect message.
	SessionID string
	// OnSessionID is called after the controller assigns a session id.
	OnSessionID func(id string)

	ReconnectDelay time.Duration
	WriteTimeout   time.Duration
	Clock          clock.Clock
	Logger         *slog.Logger
	Recorder       Recorder
}

// Stats counts channel traffic.
type Stats struct {
	Sent       int
	Dropped    int
	Received   int
	Dials      int
	Reconnects int
}

// Transport is the session transport. It is safe for concurrent use; it
// never calls the Handler while holding its lock.
type Transport struct {
	opts   Options
	clock  clock.Clock
	logger *slog.Logger

	mu          sync.Mutex
	conn        Conn
	dialing     bool
	closed      bool
	focused     bool
	established bool
	sessionID   string
	state       State
	timer       *clock.Timer
	stats       Stats

	wg sync.WaitGroup
}

// New returns a disconnected transport. The window starts focused.
func New(opts Options) *Transport {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	t := &Transport{
		opts:      opts,
		clock:     opts.Clock,
		logger:    opts.Logger.With("url", opts.URL),
		focused:   true,
		sessionID: DefaultSessionID,
	}
	if opts.SessionID != "" && opts.SessionID != DefaultSessionID {
		t.sessionID = opts.SessionID
		t.established = true
	}
	return t
}

// Connect opens the channel unless one exists, a dial is in flight or the
// transport is closed. The first frame on a new channel is the handshake,
// or the reconnect message once a session exists.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.conn != nil || t.dialing {
		t.mu.Unlock()
		return nil
	}
	t.dialing = true
	t.stopTimerLocked()
	t.stats.Dials++
	if t.established {
		t.stats.Reconnects++
		t.state = Reconnecting
	} else {
		t.state = Connecting
	}
	t.mu.Unlock()

	conn, err := t.opts.Dialer.Dial(ctx, t.opts.URL)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialing = false
	if err != nil {
		t.logger.Warn("channel dial failed", "err", err)
		if !t.closed {
			t.state = Disconnected
			t.scheduleReconnectLocked()
		}
		return fmt.Errorf("dialing %s: %w", t.opts.URL, err)
	}
	if t.closed {
		conn.Close(websocket.StatusGoingAway, "")
		return ErrClosed
	}

	t.conn = conn
	first := t.handshakeLocked()
	if err := t.writeLocked(first); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusInternalError, "")
		t.state = Disconnected
		t.scheduleReconnectLocked()
		return fmt.Errorf("sending %s: %w", first.Tag, err)
	}
	t.established = true
	t.state = Open
	if !t.focused {
		t.state = Paused
	}
	t.logger.Info("channel open", "greeting", first.Tag, "session", t.sessionID)

	t.wg.Add(1)
	go t.readLoop(conn)
	return nil
}

func (t *Transport) handshakeLocked() *protocol.Message {
	if t.established {
		return protocol.New("reconnect").Put("session", protocol.Text(t.sessionID))
	}
	env := t.opts.Environment
	return protocol.New("startSession").
		Put("touch", protocol.Flag(env.Touch)).
		Add("direction", protocol.Text(env.Direction)).
		Add("languages", protocol.Quoted(env.Languages)).
		Add("dark", protocol.Flag(env.Dark)).
		Add("pixel-ratio", protocol.Float(env.PixelRatio))
}

func (t *Transport) readLoop(conn Conn) {
	defer t.wg.Done()
	for {
		typ, data, err := conn.Read(context.Background())
		if err != nil {
			t.handleClose(conn, err)
			return
		}
		if typ != websocket.MessageText {
			t.logger.Warn("ignoring binary frame", "bytes", len(data))
			continue
		}
		payload := string(data)
		t.mu.Lock()
		t.stats.Received++
		t.mu.Unlock()
		t.record(journal.In, payload)
		t.opts.Handler.HandlePayload(payload)
	}
}

// handleClose reacts to the end of conn. A close with normal closure or
// going away is clean and final; anything else re-dials after the delay
// while the window has focus.
func (t *Transport) handleClose(conn Conn, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != conn {
		return
	}
	t.conn = nil
	if t.closed {
		return
	}
	t.state = Disconnected
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		t.logger.Info("channel closed")
		return
	}
	t.logger.Warn("channel lost", "err", err, "focused", t.focused)
	conn.Close(websocket.StatusInternalError, "")
	t.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer. Without focus
// nothing is armed; Resume reconnects.
func (t *Transport) scheduleReconnectLocked() {
	if !t.focused || t.closed || t.timer != nil {
		return
	}
	var tm *clock.Timer
	tm = t.clock.AfterFunc(t.opts.ReconnectDelay, func() {
		t.mu.Lock()
		if t.timer == tm {
			t.timer = nil
		}
		t.mu.Unlock()
		if err := t.Connect(context.Background()); err != nil {
			t.logger.Debug("reconnect failed", "err", err)
		}
	})
	t.timer = tm
	t.logger.Debug("reconnect scheduled", "in", t.opts.ReconnectDelay)
}

func (t *Transport) stopTimerLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Pause marks the window unfocused: the controller is told the session is
// paused and no reconnect is attempted until Resume.
func (t *Transport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.focused = false
	t.stopTimerLocked()
	if t.conn != nil {
		t.sendLocked(t.sessionMessage("session-pause"))
	}
	t.state = Paused
}

// Resume marks the window focused. Without a channel it reconnects,
// otherwise it tells the controller the session resumed.
func (t *Transport) Resume(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.focused = true
	if t.conn == nil {
		t.mu.Unlock()
		return t.Connect(ctx)
	}
	t.sendLocked(t.sessionMessage("session-resume"))
	t.state = Open
	t.mu.Unlock()
	return nil
}

// Close sends session-close without waiting for any answer and shuts the
// channel. It is idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.stopTimerLocked()
	conn := t.conn
	if conn != nil {
		t.sendLocked(t.sessionMessage("session-close"))
	}
	t.conn = nil
	t.state = Closed
	t.mu.Unlock()

	if conn != nil {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			conn.Close(websocket.StatusGoingAway, "")
		}()
	}
	return nil
}

// Wait blocks until the read goroutines and the closing handshake finish.
// Call it after Close, outside any Handler.
func (t *Transport) Wait() {
	t.wg.Wait()
}

// Send writes msg to the channel. Without a channel the message is dropped
// silently. It reports whether msg was handed to the channel.
func (t *Transport) Send(msg *protocol.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sendLocked(msg)
}

func (t *Transport) sendLocked(msg *protocol.Message) bool {
	if t.conn == nil {
		t.stats.Dropped++
		payload := msg.String()
		t.record(journal.Drop, payload)
		t.logger.Debug("message dropped, no channel", "tag", msg.Tag)
		return false
	}
	if err := t.writeLocked(msg); err != nil {
		t.stats.Dropped++
		t.record(journal.Drop, msg.String())
		t.logger.Warn("channel write failed", "tag", msg.Tag, "err", err)
		return false
	}
	return true
}

func (t *Transport) writeLocked(msg *protocol.Message) error {
	payload := msg.String()
	ctx, cancel := context.WithTimeout(context.Background(), t.opts.WriteTimeout)
	defer cancel()
	if err := t.conn.Write(ctx, websocket.MessageText, []byte(payload)); err != nil {
		return err
	}
	t.stats.Sent++
	t.record(journal.Out, payload)
	return nil
}

func (t *Transport) record(dir journal.Direction, payload string) {
	if t.opts.Recorder != nil {
		t.opts.Recorder.Record(dir, payload)
	}
}

func (t *Transport) sessionMessage(tag string) *protocol.Message {
	return protocol.New(tag).Put("session", protocol.Text(t.sessionID))
}

// SessionID returns the current session identifier.
func (t *Transport) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// SetSessionID stores the identifier assigned by the controller.
func (t *Transport) SetSessionID(id string) {
	t.mu.Lock()
	changed := t.sessionID != id
	t.sessionID = id
	t.established = true
	t.mu.Unlock()
	if changed && t.opts.OnSessionID != nil {
		t.opts.OnSessionID(id)
	}
}

// State returns the lifecycle state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Focused reports whether the window has focus.
func (t *Transport) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

// Connected reports whether a channel exists.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Stats returns the traffic counters.
func (t *Transport) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
