package gesture

// LockController binds interaction focus to at most one object.
//
// UNLOCKED -> LOCKED(id) happens on the frame a pinch starts while a hover
// target is known. LOCKED -> UNLOCKED happens on the first frame without a
// pinch. While locked, the hover input is ignored and the published hover is
// the locked id.
type LockController struct {
	locked      *int
	wasPinching bool
}

// Update advances the controller by one frame and returns the locked id, or nil.
func (c *LockController) Update(pinching bool, hover *int) *int {
	started := pinching && !c.wasPinching
	c.wasPinching = pinching

	switch {
	case !pinching:
		c.locked = nil
	case c.locked == nil && started && hover != nil:
		id := *hover
		c.locked = &id
	}
	return c.Locked()
}

// Locked returns a copy of the locked id, or nil when unlocked.
func (c *LockController) Locked() *int {
	if c.locked == nil {
		return nil
	}
	id := *c.locked
	return &id
}

// Hover resolves the hover id to publish this frame: the locked id while
// locked, otherwise the hit-test result.
func (c *LockController) Hover(hitTest *int) *int {
	if c.locked != nil {
		return c.Locked()
	}
	if hitTest == nil {
		return nil
	}
	id := *hitTest
	return &id
}
