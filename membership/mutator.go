// Package membership implements the two step "change a membership set, then
// move the target's counter" operation behind likes, joins, registrations and
// climbs.
//
// The two steps are separate single document writes. A crash between them
// can leave the counter one off from the set; no transaction is used.
package membership

import (
	"context"

	"github.com/princinho/cragbase/apperr"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Set is the membership relation between users and one kind of entity.
// Add and Remove must be atomic and report whether the relation changed.
type Set interface {
	Add(ctx context.Context, userID, entityID bson.ObjectID) (bool, error)
	Remove(ctx context.Context, userID, entityID bson.ObjectID) (bool, error)
}

// Counter is a numeric field on the target entity.
type Counter interface {
	Exists(ctx context.Context, entityID bson.ObjectID) (bool, error)
	// Increment adds delta and reports whether the entity was matched.
	Increment(ctx context.Context, entityID bson.ObjectID, delta int) (bool, error)
}

// Reserver is a Counter with a capacity. Reserve increments the counter only
// while the target still accepts members and reports whether it did.
type Reserver interface {
	Counter
	Reserve(ctx context.Context, entityID bson.ObjectID) (bool, error)
}

// Recorder receives one event per mutation attempt.
type Recorder interface {
	RecordMembership(kind, op, outcome string)
}

type Messages struct {
	TargetNotFound string
	AlreadyMember  string
	NotMember      string
	// Rejected is returned when a Reserver refuses the slot.
	Rejected       string
}

type Mutator struct {
	kind     string
	set      Set
	counter  Counter
	msgs     Messages
	recorder Recorder
}

func NewMutator(kind string, set Set, counter Counter, msgs Messages, rec Recorder) *Mutator {
	if msgs.TargetNotFound == "" {
		msgs.TargetNotFound = "Not found."
	}
	if msgs.AlreadyMember == "" {
		msgs.AlreadyMember = "Already added."
	}
	if msgs.NotMember == "" {
		msgs.NotMember = "Nothing to remove."
	}
	if msgs.Rejected == "" {
		msgs.Rejected = "No room left."
	}
	return &Mutator{kind: kind, set: set, counter: counter, msgs: msgs, recorder: rec}
}

// Add puts userID in the set of entityID and increments the counter only if
// the set actually changed. With a Reserver the slot is taken first and
// handed back when the set does not change.
func (m *Mutator) Add(ctx context.Context, userID, entityID bson.ObjectID) error {
	var err error
	if r, ok := m.counter.(Reserver); ok {
		err = m.reserveAndAdd(ctx, r, userID, entityID)
	} else {
		err = m.apply(ctx, userID, entityID, true)
	}
	m.record("add", err)
	return err
}

// Remove takes userID out of the set and decrements the counter only if
// something was removed.
func (m *Mutator) Remove(ctx context.Context, userID, entityID bson.ObjectID) error {
	err := m.apply(ctx, userID, entityID, false)
	m.record("remove", err)
	return err
}

func (m *Mutator) apply(ctx context.Context, userID, entityID bson.ObjectID, add bool) error {
	ok, err := m.counter.Exists(ctx, entityID)
	if err != nil {
		return apperr.Internal("check "+m.kind+" target", err)
	}
	if !ok {
		return apperr.NotFound(m.msgs.TargetNotFound)
	}

	var changed bool
	delta := 1
	if add {
		changed, err = m.set.Add(ctx, userID, entityID)
	} else {
		changed, err = m.set.Remove(ctx, userID, entityID)
		delta = -1
	}
	if err != nil {
		return apperr.Internal("update "+m.kind+" set", err)
	}
	if !changed {
		if add {
			return apperr.Conflict(m.msgs.AlreadyMember)
		}
		return apperr.NotFound(m.msgs.NotMember)
	}

	matched, err := m.counter.Increment(ctx, entityID, delta)
	if err != nil {
		return apperr.Internal("update "+m.kind+" counter", err)
	}
	if !matched {
		// target removed between the two writes
		return apperr.NotFound(m.msgs.TargetNotFound)
	}
	return nil
}

func (m *Mutator) reserveAndAdd(ctx context.Context, r Reserver, userID, entityID bson.ObjectID) error {
	reserved, err := r.Reserve(ctx, entityID)
	if err != nil {
		return apperr.Internal("reserve "+m.kind+" slot", err)
	}
	if !reserved {
		ok, err := r.Exists(ctx, entityID)
		if err != nil {
			return apperr.Internal("check "+m.kind+" target", err)
		}
		if !ok {
			return apperr.NotFound(m.msgs.TargetNotFound)
		}
		return apperr.Forbidden(m.msgs.Rejected)
	}

	changed, addErr := m.set.Add(ctx, userID, entityID)
	if addErr == nil && changed {
		return nil
	}
	if _, err := r.Increment(ctx, entityID, -1); err != nil {
		return apperr.Internal("release "+m.kind+" slot", err)
	}
	if addErr != nil {
		return apperr.Internal("update "+m.kind+" set", addErr)
	}
	return apperr.Conflict(m.msgs.AlreadyMember)
}

func (m *Mutator) record(op string, err error) {
	if m.recorder == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	m.recorder.RecordMembership(m.kind, op, outcome)
}
