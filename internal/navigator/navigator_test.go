package navigator

import (
	"math"
	"testing"
)

func grid2x2() []Box {
	return []Box{
		{Left: 0, Top: 0, Width: 100, Height: 100},
		{Left: 100, Top: 0, Width: 100, Height: 100},
		{Left: 0, Top: 100, Width: 100, Height: 100},
		{Left: 100, Top: 100, Width: 100, Height: 100},
	}
}

func TestFindGrid(t *testing.T) {
	items := grid2x2()
	tests := []struct {
		name    string
		current int
		dir     Direction
		want    int
	}{
		{"down from top left", 0, Down, 2},
		{"right from top left", 0, Right, 1},
		{"left from top right", 1, Left, 0},
		{"up from bottom right", 3, Up, 1},
		{"down from bottom row", 2, Down, -1},
		{"right from right column", 1, Right, -1},
		{"left from left column", 2, Left, -1},
		{"up from top row", 0, Up, -1},
		{"home", 3, Home, 0},
		{"end", 0, End, 3},
		{"home on first", 0, Home, -1},
		{"end on last", 3, End, -1},
		{"none", 0, None, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Find(items, tt.current, tt.dir); got != tt.want {
				t.Fatalf("Find(%d, %s) = %d, want %d", tt.current, tt.dir, got, tt.want)
			}
		})
	}
}

func TestFindTieBreaks(t *testing.T) {
	// Two candidates on the same row to the right: the nearer one wins.
	items := []Box{
		{Left: 0, Top: 0, Width: 50, Height: 20},
		{Left: 200, Top: 0, Width: 50, Height: 20},
		{Left: 60, Top: 0, Width: 50, Height: 20},
		{Left: 60, Top: 30, Width: 50, Height: 20},
	}
	if got := Find(items, 0, Right); got != 2 {
		t.Fatalf("Right = %d, want 2", got)
	}
	// Vertical distance dominates horizontal distance.
	items = []Box{
		{Left: 0, Top: 50, Width: 50, Height: 20},
		{Left: 60, Top: 0, Width: 50, Height: 20},
		{Left: 300, Top: 50, Width: 50, Height: 20},
	}
	if got := Find(items, 0, Right); got != 2 {
		t.Fatalf("Right = %d, want 2", got)
	}
}

func TestFindOutOfRange(t *testing.T) {
	if got := Find(grid2x2(), 7, Down); got != -1 {
		t.Fatalf("Find = %d, want -1", got)
	}
	if got := Find(nil, 0, Home); got != -1 {
		t.Fatalf("Find = %d, want -1", got)
	}
}

func TestRightThenLeftDoesNotDrift(t *testing.T) {
	layouts := [][]Box{
		grid2x2(),
		{
			{Left: 0, Top: 0, Width: 80, Height: 40},
			{Left: 90, Top: 10, Width: 80, Height: 40},
			{Left: 180, Top: 0, Width: 80, Height: 40},
			{Left: 0, Top: 60, Width: 80, Height: 40},
			{Left: 90, Top: 55, Width: 80, Height: 40},
			{Left: 180, Top: 70, Width: 80, Height: 40},
		},
	}
	for li, items := range layouts {
		for start := range items {
			right := Find(items, start, Right)
			if right < 0 {
				continue
			}
			back := Find(items, right, Left)
			if back < 0 {
				t.Fatalf("layout %d: no way back from %d", li, right)
			}
			origDY := math.Abs(items[start].Top - items[right].Top)
			backDY := math.Abs(items[back].Top - items[right].Top)
			if backDY > origDY {
				t.Fatalf("layout %d: %d -> %d -> %d drifted vertically (%v > %v)", li, start, right, back, backDY, origDY)
			}
		}
	}
}

func TestKeys(t *testing.T) {
	if DirectionForKey("ArrowDown") != Down || DirectionForKey("Enter") != None {
		t.Fatal("DirectionForKey mapping wrong")
	}
	codes := map[int]string{13: "Enter", 32: " ", 33: "PageUp", 34: "PageDown", 35: "End", 36: "Home", 37: "ArrowLeft", 38: "ArrowUp", 39: "ArrowRight", 40: "ArrowDown", 65: ""}
	for code, want := range codes {
		if got := KeyForCode(code); got != want {
			t.Errorf("KeyForCode(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestScrollIntoView(t *testing.T) {
	v := Viewport{ScrollLeft: 0, ScrollTop: 100, ClientWidth: 200, ClientHeight: 100}
	tests := []struct {
		name  string
		item  Box
		wantX float64
		wantY float64
	}{
		{"visible", Box{Left: 10, Top: 120, Width: 50, Height: 50}, 0, 100},
		{"above", Box{Left: 10, Top: 40, Width: 50, Height: 20}, 0, 40},
		{"below", Box{Left: 10, Top: 250, Width: 50, Height: 30}, 0, 180},
		{"right", Box{Left: 190, Top: 120, Width: 50, Height: 20}, 40, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ScrollIntoView(v, tt.item)
			if x != tt.wantX || y != tt.wantY {
				t.Fatalf("ScrollIntoView = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}
