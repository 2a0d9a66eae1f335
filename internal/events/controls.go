package events

import (
	"strconv"

	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Focus moves focus to el and reports focus-event.
func (t *Translator) Focus(el *dom.Element, ev *Event) {
	ev.StopPropagation()
	t.doc.SetActiveElement(el)
	t.send(t.elementMessage("focus-event", el))
}

// Blur takes focus away from el and reports lost-focus-event.
func (t *Translator) Blur(el *dom.Element, ev *Event) {
	ev.StopPropagation()
	if t.doc.ActiveElement() == el {
		t.doc.SetActiveElement(nil)
	}
	t.send(t.elementMessage("lost-focus-event", el))
}

// Scroll reports the scroll position and extents of el.
func (t *Translator) Scroll(el *dom.Element) {
	t.send(t.elementMessage("scroll", el).
		Put("x", protocol.Float(el.Scroll.X)).
		Put("y", protocol.Float(el.Scroll.Y)).
		Put("width", protocol.Float(el.Scroll.Width)).
		Put("height", protocol.Float(el.Scroll.Height)))
}

// TextChanged reports the value of an edit field.
func (t *Translator) TextChanged(el *dom.Element) {
	t.send(t.elementMessage("textChanged", el).Put("text", protocol.Quoted(el.Value)))
}

// SetInputValue replaces the value of an edit field.
func (t *Translator) SetInputValue(id, text string) {
	el := t.doc.ElementByID(id)
	if el == nil {
		return
	}
	el.Value = text
	t.Scan()
}

// ActivateTab shows page n of a tabs layout and hides the current one.
// Tab ids are <layout>-<n>; each tab names its page in data-view.
func (t *Translator) ActivateTab(layoutID string, n int) {
	layout := t.doc.ElementByID(layoutID)
	if layout == nil {
		return
	}
	currentID, _ := layout.Attr("data-current")
	newID := layoutID + "-" + strconv.Itoa(n)
	if currentID == newID {
		return
	}
	setTab := func(tabID, styleAttr, display string) {
		tab := t.doc.ElementByID(tabID)
		if tab == nil {
			return
		}
		style, _ := layout.Attr(styleAttr)
		tab.SetClassName(style)
		view, _ := tab.Attr("data-view")
		if page := t.doc.ElementByID(view); page != nil {
			page.SetStyle("display", display)
		}
	}
	setTab(currentID, "data-inactiveTabStyle", "none")
	setTab(newID, "data-activeTabStyle", "")
	layout.SetAttr("data-current", newID)
	t.Scan()
}

// TabClick activates tab n and reports tabClick.
func (t *Translator) TabClick(layoutID string, n int, ev *Event) {
	ev.StopPropagation()
	ev.PreventDefault()
	t.ActivateTab(layoutID, n)
	t.send(t.message("tabClick").
		Add("id", protocol.Text(layoutID)).
		Put("number", protocol.Int(n)))
}

// TabKeyClick treats Enter and Space on a tab as a click.
func (t *Translator) TabKeyClick(layoutID string, n int, ev *KeyEvent) {
	if ev.enterOrSpace() {
		t.TabClick(layoutID, n, &ev.Event)
	}
}

// DropDownChanged reports the selected index of a drop-down list.
func (t *Translator) DropDownChanged(el *dom.Element, ev *Event) {
	ev.StopPropagation()
	t.send(t.elementMessage("itemSelected", el).Put("number", protocol.Int(el.SelectedIndex)))
}

// SelectDropDownItem selects entry n of a drop-down list.
func (t *Translator) SelectDropDownItem(id string, n int) {
	el := t.doc.ElementByID(id)
	if el == nil {
		return
	}
	el.SelectedIndex = n
	t.Scan()
}

func setVisibility(el *dom.Element, v string) {
	if el != nil {
		el.SetStyle("visibility", v)
	}
}

// SelectRadioButton checks a radio button: the previous button's mark is
// hidden, the new one shown, and the group's data-current updated.
func (t *Translator) SelectRadioButton(id string) {
	el := t.doc.ElementByID(id)
	if el == nil || el.Parent() == nil {
		return
	}
	group := el.Parent()
	if current, ok := group.Attr("data-current"); ok && current != "" {
		if current == id {
			return
		}
		setVisibility(t.doc.ElementByID(current+"mark"), "hidden")
	}
	setVisibility(t.doc.ElementByID(id+"mark"), "visible")
	group.SetAttr("data-current", id)
	t.send(t.elementMessage("radioButtonSelected", group).Add("radioButton", protocol.Text(id)))
	t.Scan()
}

// UnselectRadioButtons clears the checked button of a group.
func (t *Translator) UnselectRadioButtons(groupID string) {
	group := t.doc.ElementByID(groupID)
	if group == nil {
		return
	}
	if current, ok := group.Attr("data-current"); ok && current != "" {
		setVisibility(t.doc.ElementByID(current+"mark"), "hidden")
		group.RemoveAttr("data-current")
	}
	t.send(t.elementMessage("radioButtonUnselected", group))
	t.Scan()
}

// RadioButtonClick checks the clicked radio button.
func (t *Translator) RadioButtonClick(el *dom.Element, ev *Event) {
	ev.StopPropagation()
	ev.PreventDefault()
	t.SelectRadioButton(el.ID())
}

// RadioButtonKeyClick treats Enter and Space on a radio button as a click.
func (t *Translator) RadioButtonKeyClick(el *dom.Element, ev *KeyEvent) {
	if ev.enterOrSpace() {
		t.RadioButtonClick(el, &ev.Event)
	}
}

// ClickOutsidePopup reports a click on the popup backdrop.
func (t *Translator) ClickOutsidePopup(ev *Event) {
	t.send(t.message("clickOutsidePopup"))
	ev.StopPropagation()
}

// ClickClosePopup reports a click on a popup's close button, which names
// its popup in data-popupId.
func (t *Translator) ClickClosePopup(el *dom.Element, ev *Event) {
	popup, _ := el.Attr("data-popupId")
	t.send(t.message("clickClosePopup").Add("id", protocol.Text(popup)))
	ev.StopPropagation()
}
