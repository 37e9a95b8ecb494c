package state

import (
	"sync"
	"testing"
	"time"

	"github.com/rescale/pdfmerge/internal/events"
	"github.com/rescale/pdfmerge/internal/models"
)

func collection(names ...string) models.FileCollection {
	c := make(models.FileCollection, len(names))
	for i, n := range names {
		c[i] = models.FileDescriptor{StoredName: "s_" + n, OriginalName: n, Size: int64(i + 1)}
	}
	return c
}

func TestStoreReplaceSnapshot(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventStoreChanged)

	s := NewStore(bus)
	if got := s.Snapshot(); got == nil || len(got) != 0 {
		t.Fatalf("Expected empty non-nil snapshot, got %#v", got)
	}

	in := collection("a.pdf", "b.pdf")
	s.Replace(in)
	in[0].OriginalName = "mutated"

	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].OriginalName != "a.pdf" {
		t.Errorf("Store shares memory with caller: %+v", snap)
	}
	snap[1].OriginalName = "mutated"
	if s.Snapshot()[1].OriginalName != "b.pdf" {
		t.Error("Snapshot shares memory with store")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	select {
	case ev := <-ch:
		if got := ev.(*events.StoreChangedEvent).Files; len(got) != 2 {
			t.Errorf("Event carried %d files, want 2", len(got))
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for store event")
	}
}

func TestStoreOrderPreserved(t *testing.T) {
	s := NewStore(nil)
	s.Replace(collection("z.pdf", "a.pdf", "m.pdf"))
	snap := s.Snapshot()
	want := []string{"z.pdf", "a.pdf", "m.pdf"}
	for i, w := range want {
		if snap[i].OriginalName != w {
			t.Errorf("position %d = %s, want %s", i, snap[i].OriginalName, w)
		}
	}
}

func TestStoreReplaceAtDiscardsStale(t *testing.T) {
	s := NewStore(nil)

	if !s.ReplaceAt(2, collection("a.pdf", "b.pdf")) {
		t.Fatal("first update should apply")
	}
	if s.ReplaceAt(1, collection("a.pdf")) {
		t.Error("older sequence should be discarded")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if s.ReplaceAt(2, collection()) {
		t.Error("same sequence should be discarded")
	}
	if !s.ReplaceAt(3, collection()) {
		t.Error("newer sequence should apply")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestBusyAcquireRelease(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventBusyChanged)

	b := NewBusy(bus)
	if b.State().Active {
		t.Fatal("new Busy should be inactive")
	}

	release := b.Acquire("Merging your PDFs...")
	st := b.State()
	if !st.Active || st.Label != "Merging your PDFs..." {
		t.Errorf("State() = %+v", st)
	}

	release()
	release() // idempotent
	if b.State().Active {
		t.Error("Busy should be inactive after release")
	}

	var got []models.BusyState
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			got = append(got, ev.(*events.BusyChangedEvent).State)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("Timeout waiting for busy event")
		}
	}
	if !got[0].Active || got[1].Active {
		t.Errorf("Events = %+v, want active then inactive", got)
	}

	select {
	case ev := <-ch:
		t.Errorf("Unexpected extra event from double release: %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBusyReferenceCounted(t *testing.T) {
	b := NewBusy(nil)

	r1 := b.Acquire("Processing your PDFs...")
	r2 := b.Acquire("Merging your PDFs...")

	if got := b.State().Label; got != "Merging your PDFs..." {
		t.Errorf("Label = %q, want most recent acquirer's", got)
	}

	r2()
	r2()
	if !b.State().Active {
		t.Error("Busy should stay active while a holder remains")
	}

	r1()
	if b.State().Active {
		t.Error("Busy should be inactive after all holders released")
	}
}

func TestBusyConcurrent(t *testing.T) {
	b := NewBusy(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := b.Acquire("Processing your PDFs...")
			defer release()
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()

	if b.State().Active {
		t.Error("Busy should be inactive after all goroutines released")
	}
}
