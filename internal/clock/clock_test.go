package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	fired := 0
	c.AfterFunc(10*time.Second, func() { fired++ })

	c.Advance(9 * time.Second)
	if fired != 0 {
		t.Fatalf("fired early: %d", fired)
	}
	if c.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", c.Pending())
	}
	c.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	c.Advance(time.Hour)
	if fired != 1 {
		t.Fatalf("timer fired twice")
	}
}

func TestFakeStop(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	timer := c.AfterFunc(time.Second, func() { t.Fatal("stopped timer fired") })
	if !timer.Stop() {
		t.Fatal("Stop() = false for pending timer")
	}
	if timer.Stop() {
		t.Fatal("second Stop() = true")
	}
	c.Advance(time.Minute)
	if c.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", c.Pending())
	}
}

func TestFakeCallbackCanRearm(t *testing.T) {
	c := Fake(time.Unix(0, 0))
	var order []string
	c.AfterFunc(time.Second, func() {
		order = append(order, "first")
		c.AfterFunc(0, func() { order = append(order, "second") })
	})
	c.Advance(time.Second)
	if len(order) != 2 || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}
