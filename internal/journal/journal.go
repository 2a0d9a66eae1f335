// Package journal records channel traffic in an append-only JSONL file and
// fans it out to live subscribers.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Direction tells which way a payload travelled.
type Direction string

const (
	In   Direction = "in"   // controller to page
	Out  Direction = "out"  // page to controller
	Drop Direction = "drop" // outbound, no channel
)

// Entry is one journaled payload.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Payload   string    `json:"payload"`
}

// NewEntry stamps a payload with a time ordered id.
func NewEntry(dir Direction, payload string) Entry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Entry{ID: id.String(), Timestamp: time.Now().UTC(), Direction: dir, Payload: payload}
}

// Journal appends entries to a JSONL file and publishes them to
// subscribers. A Journal without a file only publishes.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
	subs *Subscriptions
}

// Open opens or creates the journal at path. An empty path journals to
// subscribers only.
func Open(path string) (*Journal, error) {
	j := &Journal{path: path, subs: NewSubscriptions()}
	if path == "" {
		return j, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j.file = f
	return j, nil
}

// Path returns the journal file path, or "".
func (j *Journal) Path() string { return j.path }

// Subscriptions returns the live fan-out of new entries.
func (j *Journal) Subscriptions() *Subscriptions { return j.subs }

// Append writes e to the file and publishes it.
func (j *Journal) Append(e Entry) error {
	j.subs.Publish(e)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = j.file.Write(data)
	return err
}

// Record journals a payload. Write failures are logged, never returned:
// journaling must not disturb the channel.
func (j *Journal) Record(dir Direction, payload string) {
	if err := j.Append(NewEntry(dir, payload)); err != nil {
		slog.Warn("journal append failed", "path", j.path, "err", err)
	}
}

// Close closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}

// Read returns every entry of the journal at path. A missing file yields
// no entries; corrupt lines are skipped.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // file payloads are large
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// Subscription receives entries matching its directions.
type Subscription struct {
	ID         uint64
	Directions []Direction
	Ch         chan Entry
}

func (s *Subscription) matches(dir Direction) bool {
	if len(s.Directions) == 0 {
		return true
	}
	for _, d := range s.Directions {
		if d == dir {
			return true
		}
	}
	return false
}

// Subscriptions tracks live subscribers.
type Subscriptions struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// NewSubscriptions returns an empty set.
func NewSubscriptions() *Subscriptions {
	return &Subscriptions{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a subscriber for the given directions, all when
// none are given.
func (m *Subscriptions) Subscribe(dirs ...Direction) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &Subscription{
		ID:         m.nextID,
		Directions: dirs,
		Ch:         make(chan Entry, 256),
	}
	m.nextID++
	m.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes and closes a subscription.
func (m *Subscriptions) Unsubscribe(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[id]; ok {
		close(sub.Ch)
		delete(m.subs, id)
	}
}

// Publish hands e to every matching subscriber. Slow subscribers miss
// entries.
func (m *Subscriptions) Publish(e Entry) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subs {
		if !sub.matches(e.Direction) {
			continue
		}
		select {
		case sub.Ch <- e:
		default:
		}
	}
}
