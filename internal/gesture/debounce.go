package gesture

// Debouncer is a trailing-window vote filter over raw mode classifications.
// A mode only flips once it holds more than Votes of the last Size votes.
//
// Observe always builds a fresh history slice, so copying a Debouncer value
// yields an independent filter.
type Debouncer struct {
	size    int
	votes   int
	mode    Mode
	history []Mode
}

// NewDebouncer creates a debouncer in ASSEMBLE mode with an empty history.
func NewDebouncer(size, votes int) Debouncer {
	return Debouncer{
		size:  size,
		votes: votes,
		mode:  ModeAssemble,
	}
}

// Observe records one vote and returns the confirmed mode and whether it changed.
func (d *Debouncer) Observe(vote Mode) (Mode, bool) {
	next := make([]Mode, 0, d.size+1)
	next = append(next, d.history...)
	next = append(next, vote)
	if len(next) > d.size {
		next = next[len(next)-d.size:]
	}
	d.history = next

	var disperse, assemble int
	for _, m := range d.history {
		switch m {
		case ModeDisperse:
			disperse++
		case ModeAssemble:
			assemble++
		}
	}

	switch {
	case disperse > d.votes && d.mode != ModeDisperse:
		d.mode = ModeDisperse
		return d.mode, true
	case assemble > d.votes && d.mode != ModeAssemble:
		d.mode = ModeAssemble
		return d.mode, true
	}
	return d.mode, false
}

// Reset drops every recorded vote. The confirmed mode is kept.
func (d *Debouncer) Reset() {
	d.history = nil
}

// Mode returns the last confirmed mode.
func (d *Debouncer) Mode() Mode {
	return d.mode
}

// History returns a copy of the recorded votes, oldest first.
func (d *Debouncer) History() []Mode {
	out := make([]Mode, len(d.history))
	copy(out, d.history)
	return out
}
