package tasklist

// Class is a logical operation whose progress is tracked independently.
type Class int

const (
	ClassList Class = iota
	ClassMutate
	numClasses
)

func (c Class) String() string {
	switch c {
	case ClassList:
		return "list"
	case ClassMutate:
		return "mutate"
	}
	return "unknown"
}

// Slot is the observable load state of one class.
type Slot struct {
	Loading bool
	Err     error
}

type slotState struct {
	inflight int
	err      error
}

// Tracker records loading and last-error status per class. It is not safe
// for concurrent use; the store serialises access.
type Tracker struct {
	slots [numClasses]slotState
}

// Begin marks a call as outstanding and clears the previous error.
func (t *Tracker) Begin(c Class) {
	s := &t.slots[c]
	s.inflight++
	s.err = nil
}

// Succeed resolves one outstanding call without error.
func (t *Tracker) Succeed(c Class) {
	s := &t.slots[c]
	s.release()
	s.err = nil
}

// Fail resolves one outstanding call and records its error.
func (t *Tracker) Fail(c Class, err error) {
	s := &t.slots[c]
	s.release()
	s.err = err
}

// Drop resolves one outstanding call whose outcome was discarded.
func (t *Tracker) Drop(c Class) {
	t.slots[c].release()
}

// Slot returns the current state of class c.
func (t *Tracker) Slot(c Class) Slot {
	s := t.slots[c]
	return Slot{Loading: s.inflight > 0, Err: s.err}
}

func (s *slotState) release() {
	if s.inflight > 0 {
		s.inflight--
	}
}
