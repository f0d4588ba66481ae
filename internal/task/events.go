package task

// Op identifies what changed the collection.
type Op string

const (
	OpLoaded           Op = "loaded"
	OpCreated          Op = "created"
	OpUpdated          Op = "updated"
	OpToggled          Op = "toggled"
	OpDeleted          Op = "deleted"
	OpClearedCompleted Op = "cleared_completed"
)

// Event is delivered to observers after a successful mutation.
type Event struct {
	Op Op

	// TaskID is empty for OpLoaded and OpClearedCompleted.
	TaskID string

	// Stats are the counts after the mutation.
	Stats Stats
}

// Observer receives store events. Observers run synchronously on the
// goroutine that performed the mutation, after the store lock is released.
type Observer func(Event)

type subscription struct {
	id int
	fn Observer
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.observers = append(s.observers, subscription{id: id, fn: fn})

	return func() {
		s.unsubscribe(id)
	}
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.observers {
		if sub.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// notify delivers ev to every observer registered when it is called.
// Must be called without s.mu held.
func (s *Store) notify(ev Event) {
	s.mu.Lock()
	subs := make([]subscription, len(s.observers))
	copy(subs, s.observers)
	s.mu.Unlock()

	for _, sub := range subs {
		s.dispatch(sub.fn, ev)
	}
}

func (s *Store) dispatch(fn Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observer panicked", "op", ev.Op, "panic", r)
		}
	}()
	fn(ev)
}
