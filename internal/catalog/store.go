package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ChangeKind identifies the mutation reported to subscribers.
type ChangeKind string

const (
	ChangeProgramRegistered ChangeKind = "program.registered"
	ChangeEventRSVPed       ChangeKind = "event.rsvped"
)

// Change describes a single store mutation.
type Change struct {
	Kind   ChangeKind
	ID     string
	Viewer string
}

// RSVPResult reports the outcome of an RSVP call.
type RSVPResult struct {
	Event   Event
	Ticket  string
	Already bool
}

// Store holds the catalog for the lifetime of the process. Program registrations and
// RSVPs are tracked per viewer; event seat counts are shared.
type Store struct {
	mu            sync.Mutex
	programs      []Program
	events        []Event
	programIndex  map[string]int
	eventIndex    map[string]int
	registrations map[string]map[string]struct{} // program id -> viewers
	tickets       map[string]map[string]string   // event id -> viewer -> ticket code
	subs          map[uint64]func(Change)
	nextSub       uint64
	newTicket     func() string
}

// NewStore validates the seed data and builds a store.
func NewStore(programs []Program, events []Event) (*Store, error) {
	s := &Store{
		programIndex:  make(map[string]int, len(programs)),
		eventIndex:    make(map[string]int, len(events)),
		registrations: map[string]map[string]struct{}{},
		tickets:       map[string]map[string]string{},
		subs:          map[uint64]func(Change){},
		newTicket:     func() string { return ulid.Make().String() },
	}
	for i, p := range programs {
		if err := validateProgram(p); err != nil {
			return nil, err
		}
		if _, dup := s.programIndex[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate program id %q", p.ID)
		}
		s.programIndex[p.ID] = i
		p = cloneProgram(p)
		p.Registered = false
		s.programs = append(s.programs, p)
	}
	for i, e := range events {
		if err := validateEvent(e); err != nil {
			return nil, err
		}
		if _, dup := s.eventIndex[e.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate event id %q", e.ID)
		}
		s.eventIndex[e.ID] = i
		e.RSVPed = false
		s.events = append(s.events, e)
	}
	return s, nil
}

// Programs returns every program projected for viewer, in seed order.
func (s *Store) Programs(viewer string) []Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Program, 0, len(s.programs))
	for _, p := range s.programs {
		out = append(out, s.projectProgram(viewer, p))
	}
	return out
}

// VisiblePrograms returns the programs matched by f, projected for viewer.
func (s *Store) VisiblePrograms(viewer string, f Filter) []Program {
	return VisiblePrograms(s.Programs(viewer), f)
}

// Program returns a single program projected for viewer.
func (s *Store) Program(viewer, id string) (Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.programIndex[strings.TrimSpace(id)]
	if !ok {
		return Program{}, ErrProgramNotFound
	}
	return s.projectProgram(viewer, s.programs[i]), nil
}

// Events returns every event projected for viewer, in seed order.
func (s *Store) Events(viewer string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, s.projectEvent(viewer, e))
	}
	return out
}

// Event returns a single event projected for viewer.
func (s *Store) Event(viewer, id string) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.eventIndex[strings.TrimSpace(id)]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return s.projectEvent(viewer, s.events[i]), nil
}

// RegisterProgram marks the program as registered for viewer. It is idempotent:
// already reports whether the viewer had registered before the call.
func (s *Store) RegisterProgram(viewer, id string) (already bool, err error) {
	if viewer == "" {
		return false, ErrNoViewer
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	if _, ok := s.programIndex[id]; !ok {
		s.mu.Unlock()
		return false, ErrProgramNotFound
	}
	viewers := s.registrations[id]
	if viewers == nil {
		viewers = map[string]struct{}{}
		s.registrations[id] = viewers
	}
	if _, ok := viewers[viewer]; ok {
		s.mu.Unlock()
		return true, nil
	}
	viewers[viewer] = struct{}{}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeProgramRegistered, ID: id, Viewer: viewer})
	return false, nil
}

// RSVP reserves a seat for viewer. A viewer who already holds a seat gets the existing
// ticket back without another increment. A full event returns ErrCapacityExceeded and
// leaves state untouched.
func (s *Store) RSVP(viewer, id string) (RSVPResult, error) {
	if viewer == "" {
		return RSVPResult{}, ErrNoViewer
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	i, ok := s.eventIndex[id]
	if !ok {
		s.mu.Unlock()
		return RSVPResult{}, ErrEventNotFound
	}
	holders := s.tickets[id]
	if code, ok := holders[viewer]; ok {
		res := RSVPResult{Event: s.projectEvent(viewer, s.events[i]), Ticket: code, Already: true}
		s.mu.Unlock()
		return res, nil
	}
	if s.events[i].Full() {
		s.mu.Unlock()
		return RSVPResult{}, ErrCapacityExceeded
	}
	if holders == nil {
		holders = map[string]string{}
		s.tickets[id] = holders
	}
	code := s.newTicket()
	holders[viewer] = code
	s.events[i].Registered++
	res := RSVPResult{Event: s.projectEvent(viewer, s.events[i]), Ticket: code}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeEventRSVPed, ID: id, Viewer: viewer})
	return res, nil
}

// Ticket returns the ticket code issued to viewer for the event.
func (s *Store) Ticket(viewer, eventID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.tickets[eventID][viewer]
	return code, ok
}

// Subscribe registers fn for every subsequent mutation. fn runs outside the store lock.
// The returned cancel func is safe to call more than once.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) projectProgram(viewer string, p Program) Program {
	cp := cloneProgram(p)
	_, cp.Registered = s.registrations[p.ID][viewer]
	return cp
}

func (s *Store) projectEvent(viewer string, e Event) Event {
	_, e.RSVPed = s.tickets[e.ID][viewer]
	return e
}

// snapshotSubs must be called with s.mu held.
func (s *Store) snapshotSubs() []func(Change) {
	out := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Change), c Change) {
	for _, fn := range subs {
		fn(c)
	}
}

func validateProgram(p Program) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("catalog: program %q has no id", p.Name)
	}
	if !ValidAgeRange(p.AgeRange) {
		return fmt.Errorf("catalog: program %s: unknown age range %q", p.ID, p.AgeRange)
	}
	for _, t := range p.Topics {
		if !ValidTopic(t) {
			return fmt.Errorf("catalog: program %s: unknown topic %q", p.ID, t)
		}
	}
	if p.Format == FormatAll || !ValidFormat(p.Format) {
		return fmt.Errorf("catalog: program %s: invalid format %q", p.ID, p.Format)
	}
	return nil
}

func validateEvent(e Event) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("catalog: event %q has no id", e.Title)
	}
	if e.Capacity < 0 || e.Registered < 0 || e.Registered > e.Capacity {
		return fmt.Errorf("catalog: event %s: registered %d outside 0..%d", e.ID, e.Registered, e.Capacity)
	}
	return nil
}
