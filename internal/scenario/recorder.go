package scenario

import (
	"context"
	"sync"

	"github.com/codewiresh/uibridge/internal/bridge"
	"github.com/codewiresh/uibridge/internal/journal"
	"github.com/codewiresh/uibridge/internal/protocol"
	"github.com/codewiresh/uibridge/internal/transport"
)

// Recorder is a page channel that remembers what the page sent. With an
// Inner channel it forwards everything to it; without one the scenario
// runs offline and every message counts as sent.
type Recorder struct {
	Inner bridge.Channel
	// Journal receives offline traffic. A live Inner channel journals
	// its own traffic.
	Journal *journal.Journal

	mu        sync.Mutex
	sessionID string
	sent      []string
}

var _ bridge.Channel = (*Recorder)(nil)

// Sent returns the messages handed to the channel so far.
func (r *Recorder) Sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func (r *Recorder) SessionID() string {
	if r.Inner != nil {
		return r.Inner.SessionID()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessionID == "" {
		return transport.DefaultSessionID
	}
	return r.sessionID
}

func (r *Recorder) SetSessionID(id string) {
	if r.Inner != nil {
		r.Inner.SetSessionID(id)
		return
	}
	r.mu.Lock()
	r.sessionID = id
	r.mu.Unlock()
}

func (r *Recorder) Send(msg *protocol.Message) bool {
	if r.Inner != nil && !r.Inner.Send(msg) {
		return false
	}
	payload := msg.String()
	r.mu.Lock()
	r.sent = append(r.sent, payload)
	r.mu.Unlock()
	if r.Inner == nil && r.Journal != nil {
		r.Journal.Record(journal.Out, payload)
	}
	return true
}

func (r *Recorder) Connect(ctx context.Context) error {
	if r.Inner != nil {
		return r.Inner.Connect(ctx)
	}
	return nil
}

func (r *Recorder) Pause() {
	if r.Inner != nil {
		r.Inner.Pause()
	}
}

func (r *Recorder) Resume(ctx context.Context) error {
	if r.Inner != nil {
		return r.Inner.Resume(ctx)
	}
	return nil
}

func (r *Recorder) Close() error {
	if r.Inner != nil {
		return r.Inner.Close()
	}
	return nil
}
