package watch

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := newDebouncer(100 * time.Millisecond)
	defer d.stop()

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.trigger("/case/evidence_index.json", func() { fired.Add(1) })
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("Callback fired %d times for one burst, want 1", n)
	}
}

func TestDebouncer_SeparateKeysFireSeparately(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	defer d.stop()

	var fired atomic.Int32
	d.trigger("/case/evidence_index.json", func() { fired.Add(1) })
	d.trigger("/case/chain_of_custody.json", func() { fired.Add(1) })

	time.Sleep(150 * time.Millisecond)
	if n := fired.Load(); n != 2 {
		t.Errorf("Callback fired %d times for two paths, want 2", n)
	}
}

func TestDebouncer_LastCallbackWins(t *testing.T) {
	d := newDebouncer(60 * time.Millisecond)
	defer d.stop()

	var first, second atomic.Int32
	d.trigger("key", func() { first.Add(1) })
	time.Sleep(10 * time.Millisecond)
	d.trigger("key", func() { second.Add(1) })

	time.Sleep(150 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("Replaced callback still fired")
	}
	if second.Load() != 1 {
		t.Errorf("Latest callback fired %d times, want 1", second.Load())
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)

	var fired atomic.Int32
	d.trigger("key", func() { fired.Add(1) })
	d.stop()

	time.Sleep(150 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("Callback fired %d times after stop, want 0", n)
	}
}

func TestDebouncer_TriggerAfterStopIsNoop(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	d.stop()

	var fired atomic.Int32
	d.trigger("key", func() { fired.Add(1) })

	time.Sleep(80 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("Callback fired %d times after stop, want 0", n)
	}
}
