package watch

import "testing"

func TestEnterInExit(t *testing.T) {
	w := New(10, 20, 1)

	// Below the range: out of range from the initial state, no event.
	if ev, ok := w.SetValue(5); ok {
		t.Fatalf("unexpected event %v below range", ev)
	}

	// Into the range from below.
	ev, ok := w.SetValue(15)
	if !ok || ev.Type != Enter {
		t.Fatalf("got %v, %v; want enter", ev, ok)
	}
	if !ev.FromBelow {
		t.Error("enter fromBelow == false, want true")
	}
	if ev.Value != 15 {
		t.Errorf("enter value == %v, want 15", ev.Value)
	}

	// Moving within the range.
	ev, ok = w.SetValue(18)
	if !ok || ev.Type != In {
		t.Fatalf("got %v, %v; want in", ev, ok)
	}

	// Out above the range.
	ev, ok = w.SetValue(25)
	if !ok || ev.Type != Exit {
		t.Fatalf("got %v, %v; want exit", ev, ok)
	}
	if ev.IsBelow {
		t.Error("exit isBelow == true, want false")
	}

	// Still out of range: silence.
	if ev, ok := w.SetValue(30); ok {
		t.Fatalf("unexpected event %v out of range", ev)
	}
}

func TestMonotonicSweep(t *testing.T) {
	w := New(10, 20, 1)

	var events []Event
	for _, v := range []float64{1, 4, 8, 11, 14, 17, 19, 22, 28} {
		if ev, ok := w.SetValue(v); ok {
			events = append(events, ev)
		}
	}

	var enters, exits int
	for _, ev := range events {
		switch ev.Type {
		case Enter:
			enters++
			if !ev.FromBelow {
				t.Error("sweep enter fromBelow == false, want true")
			}
		case Exit:
			exits++
			if ev.IsBelow {
				t.Error("sweep exit isBelow == true, want false")
			}
		}
	}
	if enters != 1 || exits != 1 {
		t.Errorf("sweep produced %d enters and %d exits, want 1 and 1", enters, exits)
	}
}

func TestRepeatedValueNoEvent(t *testing.T) {
	w := New(10, 20, 1)

	if _, ok := w.SetValue(15); !ok {
		t.Fatal("expected enter")
	}
	if ev, ok := w.SetValue(15); ok {
		t.Fatalf("identical value produced %v", ev)
	}
	if ev, ok := w.SetValue(15); ok {
		t.Fatalf("identical value produced %v", ev)
	}
}

func TestEnterFromAbove(t *testing.T) {
	w := New(10, 20, 1)

	w.SetValue(50)
	ev, ok := w.SetValue(15)
	if !ok || ev.Type != Enter {
		t.Fatalf("got %v, %v; want enter", ev, ok)
	}
	if ev.FromBelow {
		t.Error("enter fromBelow == true coming from above")
	}
}

func TestExitBelow(t *testing.T) {
	w := New(10, 20, 1)

	w.SetValue(15)
	ev, ok := w.SetValue(5)
	if !ok || ev.Type != Exit {
		t.Fatalf("got %v, %v; want exit", ev, ok)
	}
	if !ev.IsBelow {
		t.Error("exit isBelow == false, want true")
	}
}

func TestSampleDebouncing(t *testing.T) {
	w := New(10, 20, 3)

	// Two distinct samples are not enough to evaluate.
	if ev, ok := w.SetValue(12); ok {
		t.Fatalf("evaluated after one sample: %v", ev)
	}
	if ev, ok := w.SetValue(13); ok {
		t.Fatalf("evaluated after two samples: %v", ev)
	}

	// Repeats do not count toward the sample size.
	if ev, ok := w.SetValue(13); ok {
		t.Fatalf("repeat counted as a sample: %v", ev)
	}

	// The third distinct sample triggers evaluation.
	ev, ok := w.SetValue(14)
	if !ok || ev.Type != Enter {
		t.Fatalf("got %v, %v; want enter on third sample", ev, ok)
	}

	// Counter was reset; the next evaluation needs three again.
	if ev, ok := w.SetValue(15); ok {
		t.Fatalf("evaluated without a full sample window: %v", ev)
	}
}

func TestRangeRedefinition(t *testing.T) {
	w := New(10, 20, 1)
	w.SetValue(15)

	// Shrinking the range past the current value exits it.
	ev, ok := w.SetRangeMax(14)
	if !ok || ev.Type != Exit {
		t.Fatalf("got %v, %v; want exit on range shrink", ev, ok)
	}
	if ev.IsBelow {
		t.Error("shrink exit isBelow == true, want false")
	}

	// Growing it back re-enters, from above since 15 > 10.
	ev, ok = w.SetRangeMax(20)
	if !ok || ev.Type != Enter {
		t.Fatalf("got %v, %v; want enter on range grow", ev, ok)
	}
	if ev.FromBelow {
		t.Error("grow enter fromBelow == true, want false")
	}

	// Raising the minimum above the value exits below.
	ev, ok = w.SetRangeMin(16)
	if !ok || ev.Type != Exit {
		t.Fatalf("got %v, %v; want exit on min raise", ev, ok)
	}
	if !ev.IsBelow {
		t.Error("min-raise exit isBelow == false, want true")
	}
}

func TestRangeNoOpChange(t *testing.T) {
	w := New(10, 20, 1)
	w.SetValue(15)

	if ev, ok := w.SetRangeMin(10); ok {
		t.Fatalf("unchanged min produced %v", ev)
	}
	if ev, ok := w.SetRangeMax(20); ok {
		t.Fatalf("unchanged max produced %v", ev)
	}
}

func TestRangeChangeBeforeFirstSample(t *testing.T) {
	w := New(10, 20, 1)

	// The initial stored value −1 stays out of range, so nothing fires.
	if ev, ok := w.SetRangeMax(30); ok {
		t.Fatalf("range change before first sample produced %v", ev)
	}

	// But a range covering the initial value is an entry like any other.
	ev, ok := w.SetRangeMin(-5)
	if !ok || ev.Type != Enter {
		t.Fatalf("got %v, %v; want enter", ev, ok)
	}
}

func TestReset(t *testing.T) {
	w := New(10, 20, 1)
	w.SetValue(15)

	if !w.InRange() {
		t.Fatal("not in range after entering")
	}

	w.Reset()
	if w.InRange() || w.Value() != -1 {
		t.Errorf("after reset: value %v inRange %v, want -1 false", w.Value(), w.InRange())
	}

	// Entering again after a reset behaves like the first time.
	ev, ok := w.SetValue(15)
	if !ok || ev.Type != Enter || !ev.FromBelow {
		t.Fatalf("got %v, %v; want enter fromBelow after reset", ev, ok)
	}
}
