package journal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJournalWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	j.Record(Out, "startSession{touch=0}")
	j.Record(In, "setSessionID{id=12}")
	j.Record(Drop, "scroll{session=12,id=a,x=0,y=0,width=1,height=1}")
	j.Close()

	entries, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Direction != Out || entries[1].Direction != In || entries[2].Direction != Drop {
		t.Fatalf("directions = %s %s %s", entries[0].Direction, entries[1].Direction, entries[2].Direction)
	}
	if entries[1].Payload != "setSessionID{id=12}" {
		t.Fatalf("payload = %q", entries[1].Payload)
	}
	if entries[0].ID == "" || entries[0].ID >= entries[1].ID {
		t.Fatalf("ids not time ordered: %s, %s", entries[0].ID, entries[1].ID)
	}
}

func TestReadSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	data := `{"id":"a","direction":"out","payload":"x{}"}` + "\nnot json\n" + `{"id":"b","direction":"in","payload":"y{}"}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestReadNonExistent(t *testing.T) {
	entries, err := Read(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("expected nil, got %v", entries)
	}
}

func TestSubscriptionsFilterByDirection(t *testing.T) {
	j, err := Open("")
	if err != nil {
		t.Fatal(err)
	}
	all := j.Subscriptions().Subscribe()
	drops := j.Subscriptions().Subscribe(Drop)

	j.Record(Out, "a{}")
	j.Record(Drop, "b{}")

	if e := <-all.Ch; e.Payload != "a{}" {
		t.Fatalf("first entry = %q", e.Payload)
	}
	if e := <-all.Ch; e.Payload != "b{}" {
		t.Fatalf("second entry = %q", e.Payload)
	}
	if e := <-drops.Ch; e.Payload != "b{}" {
		t.Fatalf("drop entry = %q", e.Payload)
	}
	select {
	case e := <-drops.Ch:
		t.Fatalf("unexpected entry %v", e)
	default:
	}

	j.Subscriptions().Unsubscribe(all.ID)
	if _, ok := <-all.Ch; ok {
		t.Fatal("channel not closed after unsubscribe")
	}
}
