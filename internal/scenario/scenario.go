// Package scenario replays scripted UI sessions through a page.
//
// A scenario is a YAML file holding the initial document, the window size
// and a list of steps: UI events fired at elements, inbound controller
// payloads, window resize and focus changes, waits, and expectations on
// the outbound traffic.
package scenario

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codewiresh/uibridge/internal/bridge"
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/events"
)

// Scenario is a scripted session.
type Scenario struct {
	Name     string `yaml:"name"`
	Viewport Size   `yaml:"viewport"`
	Document string `yaml:"document"`
	Steps    []Step `yaml:"steps"`
}

// Size is a window size in CSS pixels.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	Fire    *Fire    `yaml:"fire,omitempty"`
	Input   *Input   `yaml:"input,omitempty"`
	Files   *Files   `yaml:"files,omitempty"`
	Payload string   `yaml:"payload,omitempty"`
	Resize  *Size    `yaml:"resize,omitempty"`
	Focus   bool     `yaml:"focus,omitempty"`
	Blur    bool     `yaml:"blur,omitempty"`
	Wait    Duration `yaml:"wait,omitempty"`
	// Expect names a message that must have been sent since the previous
	// expectation: an exact payload, or a prefix ending in "*".
	Expect string `yaml:"expect,omitempty"`
}

// Fire raises a UI event on an element.
type Fire struct {
	Target string `yaml:"target"`
	Event  string `yaml:"event"`

	TimeStamp float64 `yaml:"timestamp,omitempty"`

	Key     string `yaml:"key,omitempty"`
	KeyCode int    `yaml:"keycode,omitempty"`
	Code    string `yaml:"code,omitempty"`
	Repeat  bool   `yaml:"repeat,omitempty"`

	Button  int     `yaml:"button,omitempty"`
	Buttons int     `yaml:"buttons,omitempty"`
	ClientX float64 `yaml:"x,omitempty"`
	ClientY float64 `yaml:"y,omitempty"`

	PointerID   int     `yaml:"pointer_id,omitempty"`
	PointerType string  `yaml:"pointer_type,omitempty"`
	Pressure    float64 `yaml:"pressure,omitempty"`
	Primary     bool    `yaml:"primary,omitempty"`

	Touches []Touch `yaml:"touches,omitempty"`

	Property  string `yaml:"property,omitempty"`
	Animation string `yaml:"animation,omitempty"`

	Ctrl  bool `yaml:"ctrl,omitempty"`
	Shift bool `yaml:"shift,omitempty"`
	Alt   bool `yaml:"alt,omitempty"`
	Meta  bool `yaml:"meta,omitempty"`
}

// Touch is one contact point of a touch step.
type Touch struct {
	ID      int     `yaml:"id"`
	ClientX float64 `yaml:"x"`
	ClientY float64 `yaml:"y"`
	Force   float64 `yaml:"force,omitempty"`
}

// Input types into an edit field and raises its input event.
type Input struct {
	Target string `yaml:"target"`
	Value  string `yaml:"value"`
}

// Files picks local files in a file picker and raises its change event.
type Files struct {
	Target string   `yaml:"target"`
	Paths  []string `yaml:"paths"`
}

// Duration is a time.Duration written as "150ms" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario and validates its steps.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	for i, st := range s.Steps {
		if n := st.actions(); n != 1 {
			return nil, fmt.Errorf("step %d: expected exactly one action, got %d", i+1, n)
		}
		if st.Fire != nil && (st.Fire.Target == "" || st.Fire.Event == "") {
			return nil, fmt.Errorf("step %d: fire needs target and event", i+1)
		}
	}
	return &s, nil
}

func (st Step) actions() int {
	n := 0
	for _, set := range []bool{
		st.Fire != nil, st.Input != nil, st.Files != nil, st.Payload != "",
		st.Resize != nil, st.Focus, st.Blur, st.Wait != 0, st.Expect != "",
	} {
		if set {
			n++
		}
	}
	return n
}

// NewDocument parses the scenario's initial document.
func (s *Scenario) NewDocument() (*dom.Document, error) {
	doc, err := dom.Parse(s.Document)
	if err != nil {
		return nil, err
	}
	doc.Viewport = dom.Rect{Width: s.Viewport.Width, Height: s.Viewport.Height}
	return doc, nil
}

// Build returns the UI event a fire step raises.
func (f *Fire) Build() bridge.Event {
	mods := events.Modifiers{Ctrl: f.Ctrl, Shift: f.Shift, Alt: f.Alt, Meta: f.Meta}
	base := events.Event{TimeStamp: f.TimeStamp}
	mouse := events.MouseEvent{
		Event:     base,
		Button:    f.Button,
		Buttons:   f.Buttons,
		ClientX:   f.ClientX,
		ClientY:   f.ClientY,
		Modifiers: mods,
	}
	name := strings.ToLower(f.Event)
	switch {
	case strings.HasPrefix(name, "key"):
		return &events.KeyEvent{Event: base, Key: f.Key, KeyCode: f.KeyCode, Code: f.Code, Repeat: f.Repeat, Modifiers: mods}
	case strings.HasPrefix(name, "mouse"), name == "click", name == "dblclick", name == "contextmenu":
		return &mouse
	case strings.HasPrefix(name, "pointer"):
		return &events.PointerEvent{
			MouseEvent:  mouse,
			PointerID:   f.PointerID,
			PointerType: f.PointerType,
			Pressure:    f.Pressure,
			IsPrimary:   f.Primary,
		}
	case strings.HasPrefix(name, "touch"):
		ev := &events.TouchEvent{Event: base, Modifiers: mods}
		for _, t := range f.Touches {
			ev.Touches = append(ev.Touches, events.Touch{Identifier: t.ID, ClientX: t.ClientX, ClientY: t.ClientY, Force: t.Force})
		}
		return ev
	case strings.HasPrefix(name, "transition"):
		return &events.TransitionEvent{Event: base, PropertyName: f.Property}
	case strings.HasPrefix(name, "animation"):
		return &events.AnimationEvent{Event: base, AnimationName: f.Animation}
	}
	return &base
}

// Run plays every step against page. Expectations are checked against the
// messages rec has seen.
func (s *Scenario) Run(ctx context.Context, page *bridge.Page, rec *Recorder) error {
	mark := 0
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch {
		case st.Fire != nil:
			err = page.Fire(st.Fire.Target, st.Fire.Event, st.Fire.Build())
		case st.Input != nil:
			err = input(page, st.Input)
		case st.Files != nil:
			err = pickFiles(page, st.Files)
		case st.Payload != "":
			page.HandlePayload(st.Payload)
		case st.Resize != nil:
			page.Resize(st.Resize.Width, st.Resize.Height)
		case st.Focus:
			err = page.Focus(ctx)
		case st.Blur:
			page.Blur()
		case st.Wait != 0:
			page.Wait()
			select {
			case <-time.After(time.Duration(st.Wait)):
			case <-ctx.Done():
				return ctx.Err()
			}
		case st.Expect != "":
			page.Wait()
			sent := rec.Sent()
			if !matchAny(sent[mark:], st.Expect) {
				err = fmt.Errorf("expected %s, sent since last check: %v", st.Expect, sent[mark:])
			}
			mark = len(sent)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	page.Wait()
	return nil
}

func matchAny(sent []string, want string) bool {
	prefix, isPrefix := strings.CutSuffix(want, "*")
	for _, m := range sent {
		if m == want || (isPrefix && strings.HasPrefix(m, prefix)) {
			return true
		}
	}
	return false
}

func input(page *bridge.Page, in *Input) error {
	var target *dom.Element
	page.Do(func(doc *dom.Document) {
		if target = doc.ElementByID(in.Target); target != nil {
			target.Value = in.Value
		}
	})
	if target == nil {
		return fmt.Errorf("input: no element %q", in.Target)
	}
	return page.FireOn(target, "input", nil)
}

func pickFiles(page *bridge.Page, f *Files) error {
	var files []dom.File
	for _, p := range f.Paths {
		file, err := dom.FileFromPath(p)
		if err != nil {
			return err
		}
		files = append(files, file)
	}
	var target *dom.Element
	page.Do(func(doc *dom.Document) {
		if target = doc.ElementByID(f.Target); target != nil {
			target.Files = files
		}
	})
	if target == nil {
		return fmt.Errorf("files: no element %q", f.Target)
	}
	return page.FireOn(target, "change", nil)
}
