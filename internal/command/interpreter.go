// Package command executes controller instructions against the page.
//
// Instructions arrive as protocol messages. The vocabulary is closed: each
// tag maps to one Go handler and anything else is rejected without being
// executed. Handlers whose target element does not exist do nothing.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/events"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Session receives the identifier assigned by the controller.
type Session interface {
	SetSessionID(id string)
}

// Scanner re-runs layout change detection.
type Scanner interface {
	Scan() int
}

// Config wires an Interpreter.
type Config struct {
	Document   *dom.Document
	Session    Session
	Translator *events.Translator
	Scanner    Scanner
	Logger     *slog.Logger
}

// Interpreter runs command payloads. Like the document it mutates, it must
// be driven from one goroutine at a time.
type Interpreter struct {
	doc     *dom.Document
	session Session
	events  *events.Translator
	scanner Scanner
	logger  *slog.Logger
}

// New returns an Interpreter.
func New(cfg Config) *Interpreter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interpreter{
		doc:     cfg.Document,
		session: cfg.Session,
		events:  cfg.Translator,
		scanner: cfg.Scanner,
		logger:  logger,
	}
}

// UnknownCommandError reports a tag outside the vocabulary.
type UnknownCommandError struct {
	Tag string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Tag)
}

type handler func(in *Interpreter, m *protocol.Message) error

var handlers = map[string]handler{
	"setSessionID":           setSessionID,
	"updateCSSRule":          updateCSSRule,
	"updateCSSStyle":         updateCSSStyle,
	"updateCSSProperty":      updateCSSProperty,
	"updateProperty":         updateProperty,
	"removeProperty":         removeProperty,
	"updateInnerHTML":        updateInnerHTML,
	"appendToInnerHTML":      appendToInnerHTML,
	"setDisabled":            setDisabled,
	"activateTab":            activateTab,
	"selectDropDownListItem": selectDropDownListItem,
	"selectListItem":         selectListItem,
	"selectRadioButton":      selectRadioButton,
	"unselectRadioButtons":   unselectRadioButtons,
	"setInputValue":          setInputValue,
	"loadSelectedFile":       loadSelectedFile,
	"loadImage":              loadImage,
	"scrollTo":               scrollTo,
	"scrollToStart":          scrollToStart,
	"scrollToEnd":            scrollToEnd,
	"focus":                  focus,
	"setMediaMuted":          setMediaMuted,
	"mediaPlay":              mediaPlay,
	"mediaPause":             mediaPause,
	"mediaSetCurrentTime":    mediaSetCurrentTime,
	"mediaSetPlaybackRate":   mediaSetPlaybackRate,
	"mediaSetVolume":         mediaSetVolume,
}

// Commands returns the vocabulary, sorted.
func Commands() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute parses payload and runs every command in it, in order. A failing
// command does not stop the ones after it; all failures are joined into
// the returned error.
func (in *Interpreter) Execute(payload string) error {
	msgs, err := protocol.Parse(payload)
	if err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}
	var errs []error
	for _, m := range msgs {
		if err := in.Run(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run executes one command.
func (in *Interpreter) Run(m *protocol.Message) error {
	h, ok := handlers[m.Tag]
	if !ok {
		return &UnknownCommandError{Tag: m.Tag}
	}
	if err := h(in, m); err != nil {
		return fmt.Errorf("%s: %w", m.Tag, err)
	}
	in.logger.Debug("command executed", "tag", m.Tag)
	return nil
}

func (in *Interpreter) scan() {
	if in.scanner != nil {
		in.scanner.Scan()
	}
}

// target returns the element named by the id field, nil when absent.
func (in *Interpreter) target(m *protocol.Message) (*dom.Element, error) {
	id, ok := m.StringField("id")
	if !ok || id == "" {
		return nil, fmt.Errorf("missing field %q", "id")
	}
	return in.doc.ElementByID(id), nil
}

func required(m *protocol.Message, key string) (string, error) {
	s, ok := m.StringField(key)
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	return s, nil
}

func setSessionID(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	if in.session != nil {
		in.session.SetSessionID(id)
	}
	return nil
}

func updateCSSRule(in *Interpreter, m *protocol.Message) error {
	selector, err := required(m, "selector")
	if err != nil {
		return err
	}
	rule, _ := m.StringField("rule")
	in.doc.SetRule("."+strings.TrimPrefix(selector, "."), rule)
	in.scan()
	return nil
}

func updateCSSStyle(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	style, _ := m.StringField("style")
	el.SetStyleText(style)
	in.scan()
	return nil
}

func updateCSSProperty(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	prop, err := required(m, "property")
	if err != nil {
		return err
	}
	value, _ := m.StringField("value")
	el.SetStyle(prop, value)
	in.scan()
	return nil
}

func updateProperty(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	prop, err := required(m, "property")
	if err != nil {
		return err
	}
	value, _ := m.StringField("value")
	if strings.HasPrefix(strings.ToLower(prop), "on") && !dom.HandlerPattern.MatchString(value) {
		return fmt.Errorf("refusing handler %s=%q", prop, value)
	}
	el.SetAttr(prop, value)
	in.scan()
	return nil
}

func removeProperty(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	prop, err := required(m, "property")
	if err != nil {
		return err
	}
	if el.HasAttr(prop) {
		el.RemoveAttr(prop)
		in.scan()
	}
	return nil
}

func updateInnerHTML(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	content, _ := m.StringField("content")
	if err := el.SetInnerHTML(content); err != nil {
		return err
	}
	in.scan()
	return nil
}

func appendToInnerHTML(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	content, _ := m.StringField("content")
	if err := el.AppendInnerHTML(content); err != nil {
		return err
	}
	in.scan()
	return nil
}

func setDisabled(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	disabled, err := m.BoolField("disabled")
	if err != nil {
		return err
	}
	if el.IsFormControl() {
		el.Disabled = disabled
	} else if disabled {
		el.SetAttr("data-disabled", "1")
	} else {
		el.SetAttr("data-disabled", "0")
	}
	in.scan()
	return nil
}

func activateTab(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	n, err := m.IntField("number")
	if err != nil {
		return err
	}
	in.events.ActivateTab(id, n)
	return nil
}

func selectDropDownListItem(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	n, err := m.IntField("number")
	if err != nil {
		return err
	}
	in.events.SelectDropDownItem(id, n)
	return nil
}

func selectListItem(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	item, err := required(m, "item")
	if err != nil {
		return err
	}
	in.events.SelectListItemByID(id, item, false)
	return nil
}

func selectRadioButton(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	in.events.SelectRadioButton(id)
	return nil
}

func unselectRadioButtons(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	in.events.UnselectRadioButtons(id)
	return nil
}

func setInputValue(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	text, _ := m.StringField("text")
	in.events.SetInputValue(id, text)
	return nil
}

func loadSelectedFile(in *Interpreter, m *protocol.Message) error {
	id, err := required(m, "id")
	if err != nil {
		return err
	}
	index, err := m.IntField("index")
	if err != nil {
		return err
	}
	in.events.LoadSelectedFile(id, index)
	return nil
}

func loadImage(in *Interpreter, m *protocol.Message) error {
	url, err := required(m, "url")
	if err != nil {
		return err
	}
	in.events.LoadImage(url)
	return nil
}

func scrollTo(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	x, err := m.FloatField("x")
	if err != nil {
		return err
	}
	y, err := m.FloatField("y")
	if err != nil {
		return err
	}
	el.ScrollTo(x, y)
	return nil
}

func scrollToStart(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	el.ScrollTo(0, 0)
	return nil
}

func scrollToEnd(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	el.ScrollTo(0, el.Scroll.Height-el.Offset.Height)
	return nil
}

func focus(in *Interpreter, m *protocol.Message) error {
	el, err := in.target(m)
	if el == nil {
		return err
	}
	in.doc.SetActiveElement(el)
	return nil
}

// media returns the playback state of the target, nil when the target is
// missing or is not a media element.
func (in *Interpreter) media(m *protocol.Message) (*dom.Media, error) {
	el, err := in.target(m)
	if el == nil {
		return nil, err
	}
	return el.Media, nil
}

func mediaValue(in *Interpreter, m *protocol.Message, set func(*dom.Media, float64)) error {
	md, err := in.media(m)
	if md == nil {
		return err
	}
	v, err := m.FloatField("value")
	if err != nil {
		return err
	}
	set(md, v)
	return nil
}

func setMediaMuted(in *Interpreter, m *protocol.Message) error {
	md, err := in.media(m)
	if md == nil {
		return err
	}
	muted, err := m.BoolField("value")
	if err != nil {
		return err
	}
	md.Muted = muted
	return nil
}

func mediaPlay(in *Interpreter, m *protocol.Message) error {
	md, err := in.media(m)
	if md == nil {
		return err
	}
	md.Paused = false
	return nil
}

func mediaPause(in *Interpreter, m *protocol.Message) error {
	md, err := in.media(m)
	if md == nil {
		return err
	}
	md.Paused = true
	return nil
}

func mediaSetCurrentTime(in *Interpreter, m *protocol.Message) error {
	return mediaValue(in, m, func(md *dom.Media, v float64) {
		if v < 0 {
			v = 0
		}
		if md.Duration > 0 && v > md.Duration {
			v = md.Duration
		}
		md.CurrentTime = v
	})
}

func mediaSetPlaybackRate(in *Interpreter, m *protocol.Message) error {
	return mediaValue(in, m, func(md *dom.Media, v float64) { md.PlaybackRate = v })
}

func mediaSetVolume(in *Interpreter, m *protocol.Message) error {
	var rangeErr error
	err := mediaValue(in, m, func(md *dom.Media, v float64) {
		if v < 0 || v > 1 {
			rangeErr = fmt.Errorf("volume %g outside [0, 1]", v)
			return
		}
		md.Volume = v
	})
	if err != nil {
		return err
	}
	return rangeErr
}
