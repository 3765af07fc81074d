package gesture

import "testing"

func TestDebouncer_InitialState(t *testing.T) {
	d := NewDebouncer(8, 6)
	if d.Mode() != ModeAssemble {
		t.Errorf("expected initial mode ASSEMBLE, got %s", d.Mode())
	}
	if len(d.History()) != 0 {
		t.Errorf("expected empty history, got %v", d.History())
	}
}

func TestDebouncer_TransitionsOnSeventhVote(t *testing.T) {
	d := NewDebouncer(8, 6)

	changes := 0
	for frame := 1; frame <= 8; frame++ {
		mode, changed := d.Observe(ModeDisperse)
		if changed {
			changes++
			if frame != 7 {
				t.Errorf("transition on frame %d, want 7", frame)
			}
		}
		if frame < 7 && mode != ModeAssemble {
			t.Errorf("frame %d: mode %s before the seventh vote", frame, mode)
		}
		if frame >= 7 && mode != ModeDisperse {
			t.Errorf("frame %d: mode %s, want DISPERSE", frame, mode)
		}
	}

	if changes != 1 {
		t.Errorf("expected exactly one transition, got %d", changes)
	}
}

func TestDebouncer_SixVotesNeverTransition(t *testing.T) {
	d := NewDebouncer(8, 6)

	// Repeating 6 DISPERSE + 2 ASSEMBLE keeps every window at 6 or fewer of each.
	pattern := []Mode{
		ModeDisperse, ModeDisperse, ModeDisperse, ModeAssemble,
		ModeDisperse, ModeDisperse, ModeDisperse, ModeAssemble,
	}
	for round := 0; round < 5; round++ {
		for _, vote := range pattern {
			if _, changed := d.Observe(vote); changed {
				t.Fatalf("round %d: unexpected transition with history %v", round, d.History())
			}
		}
	}
	if d.Mode() != ModeAssemble {
		t.Errorf("expected mode to stay ASSEMBLE, got %s", d.Mode())
	}
}

func TestDebouncer_HistoryIsBounded(t *testing.T) {
	d := NewDebouncer(8, 6)
	for i := 0; i < 20; i++ {
		d.Observe(ModeAssemble)
	}
	if got := len(d.History()); got != 8 {
		t.Errorf("expected history length 8, got %d", got)
	}
}

func TestDebouncer_FIFOEviction(t *testing.T) {
	d := NewDebouncer(8, 6)
	d.Observe(ModeDisperse)
	for i := 0; i < 8; i++ {
		d.Observe(ModeAssemble)
	}
	for _, m := range d.History() {
		if m != ModeAssemble {
			t.Fatalf("expected the oldest DISPERSE vote to be evicted, history %v", d.History())
		}
	}
}

func TestDebouncer_ResetClearsHistory(t *testing.T) {
	d := NewDebouncer(8, 6)
	for i := 0; i < 6; i++ {
		d.Observe(ModeDisperse)
	}

	d.Reset()

	if len(d.History()) != 0 {
		t.Fatalf("expected empty history after reset, got %v", d.History())
	}
	// One more vote must not confirm: history restarts from empty.
	if _, changed := d.Observe(ModeDisperse); changed {
		t.Error("a single vote after reset must not transition")
	}
	if d.Mode() != ModeAssemble {
		t.Errorf("expected mode ASSEMBLE, got %s", d.Mode())
	}
}

func TestDebouncer_ResetKeepsMode(t *testing.T) {
	d := NewDebouncer(8, 6)
	for i := 0; i < 7; i++ {
		d.Observe(ModeDisperse)
	}
	d.Reset()
	if d.Mode() != ModeDisperse {
		t.Errorf("expected reset to keep DISPERSE, got %s", d.Mode())
	}
}

func TestDebouncer_BackToAssemble(t *testing.T) {
	d := NewDebouncer(8, 6)
	for i := 0; i < 8; i++ {
		d.Observe(ModeDisperse)
	}

	var transitions []int
	for i := 1; i <= 8; i++ {
		if _, changed := d.Observe(ModeAssemble); changed {
			transitions = append(transitions, i)
		}
	}

	if len(transitions) != 1 || transitions[0] != 7 {
		t.Errorf("expected a single transition on the 7th ASSEMBLE vote, got %v", transitions)
	}
	if d.Mode() != ModeAssemble {
		t.Errorf("expected ASSEMBLE, got %s", d.Mode())
	}
}

func TestDebouncer_CopiesAreIndependent(t *testing.T) {
	a := NewDebouncer(8, 6)
	a.Observe(ModeDisperse)

	b := a
	b.Observe(ModeAssemble)

	if got := len(a.History()); got != 1 {
		t.Errorf("original history changed through a copy: %v", a.History())
	}
	if got := len(b.History()); got != 2 {
		t.Errorf("expected copy to hold 2 votes, got %d", got)
	}
}
