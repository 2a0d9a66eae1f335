package events

import (
	"github.com/codewiresh/uibridge/internal/dom"
	"github.com/codewiresh/uibridge/internal/navigator"
	"github.com/codewiresh/uibridge/internal/protocol"
)

// Default item classes of a list view.
const (
	FocusedItemClass  = "ruiListItemFocused"
	SelectedItemClass = "ruiListItemSelected"
)

func itemStyles(list *dom.Element) (focus, blur string) {
	focus, _ = list.Attr("data-focusitemstyle")
	blur, _ = list.Attr("data-bluritemstyle")
	if focus == "" {
		focus = FocusedItemClass
	}
	if blur == "" {
		blur = SelectedItemClass
	}
	return focus, blur
}

func (t *Translator) currentItem(list *dom.Element) *dom.Element {
	id, _ := list.Attr("data-current")
	return t.doc.ElementByID(id)
}

// SelectListItem makes item the current item of list. The previous item
// loses its selection class, the new one gets the focused class when the
// list has focus and the blurred class otherwise, and the list scrolls the
// least amount needed to show the whole item. With notify set the change
// is reported to the controller.
func (t *Translator) SelectListItem(list, item *dom.Element, notify bool) {
	focus, blur := itemStyles(list)
	var msg *protocol.Message

	if current := t.currentItem(list); current != nil {
		current.RemoveClass(focus, blur)
		if notify {
			msg = t.elementMessage("itemUnselected", list)
		}
	}

	if item != nil {
		if t.doc.ActiveElement() == list {
			item.AddClass(focus)
		} else {
			item.AddClass(blur)
		}
		list.SetAttr("data-current", item.ID())
		if notify {
			if n, ok := itemNumber(item.ID()); ok {
				msg = t.elementMessage("itemSelected", list).Put("number", protocol.Int(n))
			}
		}
		x, y := navigator.ScrollIntoView(navigator.Viewport{
			ScrollLeft:   list.Scroll.X,
			ScrollTop:    list.Scroll.Y,
			ClientWidth:  list.Scroll.ClientWidth,
			ClientHeight: list.Scroll.ClientHeight,
		}, boxOf(item))
		list.ScrollTo(x, y)
	}

	if msg != nil {
		t.send(msg)
	}
	t.Scan()
}

// SelectListItemByID selects the element itemID as the current item of
// the list listID.
func (t *Translator) SelectListItemByID(listID, itemID string, notify bool) {
	list := t.doc.ElementByID(listID)
	if list == nil {
		return
	}
	t.SelectListItem(list, t.doc.ElementByID(itemID), notify)
}

func boxOf(el *dom.Element) navigator.Box {
	return navigator.Box{
		Left:   el.Offset.Left,
		Top:    el.Offset.Top,
		Width:  el.Offset.Width,
		Height: el.Offset.Height,
	}
}

func selected(item *dom.Element) bool {
	return item.HasClass(FocusedItemClass) || item.HasClass(SelectedItemClass)
}

// ListItemClick selects a clicked item if needed and reports itemClick.
func (t *Translator) ListItemClick(item *dom.Element, ev *Event) {
	ev.StopPropagation()
	list := item.Parent()
	if list == nil {
		return
	}
	if !selected(item) {
		t.SelectListItem(list, item, true)
	}
	t.send(t.elementMessage("itemClick", list))
}

// ListKeyDown moves the selection of a list view with the arrow keys, Home
// and End, and reports Enter or Space as itemClick. Keys the list does not
// handle are left to propagate.
func (t *Translator) ListKeyDown(list *dom.Element, ev *KeyEvent) {
	key := ev.key()
	if key != "" {
		if current := t.currentItem(list); current != nil {
			switch key {
			case " ", "Enter":
				t.send(t.elementMessage("itemClick", list))
			case "PageUp", "PageDown":
			default:
				dir := navigator.DirectionForKey(key)
				if dir == navigator.None {
					return
				}
				if current.Parent() != list {
					break
				}
				items := list.Children()
				boxes := make([]navigator.Box, len(items))
				for i, it := range items {
					boxes[i] = boxOf(it)
				}
				if i := navigator.Find(boxes, current.Index(), dir); i >= 0 {
					t.SelectListItem(list, items[i], true)
				}
			}
		}
	}
	ev.StopPropagation()
	ev.PreventDefault()
}

// ListFocus switches the current item to the focused class.
func (t *Translator) ListFocus(list *dom.Element) {
	if current := t.currentItem(list); current != nil {
		focus, blur := itemStyles(list)
		current.RemoveClass(blur)
		current.AddClass(focus)
	}
}

// ListBlur switches the current item to the blurred class.
func (t *Translator) ListBlur(list *dom.Element) {
	if current := t.currentItem(list); current != nil {
		focus, blur := itemStyles(list)
		current.RemoveClass(focus)
		current.AddClass(blur)
	}
}
