// Package navigator resolves directional keyboard movement over items laid
// out freely in two dimensions.
//
// The search is a linear nearest-neighbour scan over the item boxes in
// document order; the item set is rebuilt by the caller on every keypress.
package navigator

import "math"

// Direction is a keyboard movement.
type Direction int

const (
	None Direction = iota
	Right
	Left
	Down
	Up
	Home
	End
)

func (d Direction) String() string {
	switch d {
	case Right:
		return "right"
	case Left:
		return "left"
	case Down:
		return "down"
	case Up:
		return "up"
	case Home:
		return "home"
	case End:
		return "end"
	}
	return "none"
}

// Box is an item's offset box relative to its list.
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// DirectionForKey maps a KeyboardEvent.key value to a movement.
func DirectionForKey(key string) Direction {
	switch key {
	case "ArrowRight":
		return Right
	case "ArrowLeft":
		return Left
	case "ArrowDown":
		return Down
	case "ArrowUp":
		return Up
	case "Home":
		return Home
	case "End":
		return End
	}
	return None
}

// KeyForCode translates a legacy keyCode into a key value. Unknown codes
// yield "".
func KeyForCode(code int) string {
	switch code {
	case 13:
		return "Enter"
	case 32:
		return " "
	case 33:
		return "PageUp"
	case 34:
		return "PageDown"
	case 35:
		return "End"
	case 36:
		return "Home"
	case 37:
		return "ArrowLeft"
	case 38:
		return "ArrowUp"
	case 39:
		return "ArrowRight"
	case 40:
		return "ArrowDown"
	}
	return ""
}

// Find returns the index of the item reached from items[current] by
// moving in dir, or -1 when there is none. The current item is never
// returned.
//
// Moving right considers items whose left edge is at or past the current
// item's right edge and picks the one closest vertically to its top,
// breaking ties by horizontal distance. Left takes items strictly before
// the current left edge. Down and Up are the same search along the other
// axis, measured from the bottom and top edges.
func Find(items []Box, current int, dir Direction) int {
	if current < 0 || current >= len(items) {
		return -1
	}
	switch dir {
	case Home:
		if current == 0 {
			return -1
		}
		return 0
	case End:
		if current == len(items)-1 {
			return -1
		}
		return len(items) - 1
	}

	cur := items[current]
	var x, y float64
	switch dir {
	case Right:
		x, y = cur.Left+cur.Width, cur.Top
	case Left, Up:
		x, y = cur.Left, cur.Top
	case Down:
		x, y = cur.Left, cur.Top+cur.Height
	default:
		return -1
	}

	best := -1
	var bestMain, bestCross float64
	for i, it := range items {
		if i == current {
			continue
		}
		var ok bool
		var main, cross float64
		switch dir {
		case Right:
			ok = it.Left >= x
			main, cross = math.Abs(it.Top-y), it.Left-x
		case Left:
			ok = it.Left < x
			main, cross = math.Abs(it.Top-y), x-it.Left
		case Down:
			ok = it.Top >= y
			main, cross = math.Abs(it.Left-x), it.Top-y
		case Up:
			ok = it.Top < y
			main, cross = math.Abs(it.Left-x), y-it.Top
		}
		if !ok {
			continue
		}
		if best < 0 || main < bestMain || (main == bestMain && cross < bestCross) {
			best, bestMain, bestCross = i, main, cross
		}
	}
	return best
}

// Viewport is the visible window of a scrollable list.
type Viewport struct {
	ScrollLeft   float64
	ScrollTop    float64
	ClientWidth  float64
	ClientHeight float64
}

// ScrollIntoView returns the scroll position that brings item (in the
// list's content coordinates) fully into view with the smallest change.
// When the item is larger than the viewport its right and bottom edges win.
func ScrollIntoView(v Viewport, item Box) (x, y float64) {
	x, y = v.ScrollLeft, v.ScrollTop
	if item.Left < x {
		x = item.Left
	}
	if item.Top < y {
		y = item.Top
	}
	if right := item.Left + item.Width; right > x+v.ClientWidth {
		x = right - v.ClientWidth
	}
	if bottom := item.Top + item.Height; bottom > y+v.ClientHeight {
		y = bottom - v.ClientHeight
	}
	return x, y
}
