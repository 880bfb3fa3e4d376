// Package accumulator holds, per user, the most recent audio and image
// attachment waiting for a follow-up question.
package accumulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/aiftbot/core/artifact"
	"github.com/m3rciful/aiftbot/core/logger"
)

// Releaser frees the storage behind an artifact.
type Releaser interface {
	Release(artifact.Artifact) error
}

type slot struct {
	art artifact.Artifact
	at  time.Time
}

// Accumulator keeps at most one artifact per modality per user. A newer push
// replaces the older artifact, which is released. Artifacts handed out by
// Acquire are pinned: evicting one defers its release until the last holder
// calls done.
type Accumulator struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	rel   Releaser
	slots map[string]map[artifact.Modality]slot

	pins   map[string]int
	doomed map[string]artifact.Artifact
}

// Option customises an Accumulator.
type Option func(*Accumulator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) {
		if now != nil {
			a.now = now
		}
	}
}

// New returns an empty accumulator. rel may be nil when artifacts need no
// cleanup.
func New(ttl time.Duration, rel Releaser, opts ...Option) *Accumulator {
	a := &Accumulator{
		ttl:    ttl,
		now:    time.Now,
		rel:    rel,
		slots:  make(map[string]map[artifact.Modality]slot),
		pins:   make(map[string]int),
		doomed: make(map[string]artifact.Artifact),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Push stores art in the slot for its modality. Only audio and image are
// accepted.
func (a *Accumulator) Push(userID string, art artifact.Artifact) error {
	if art.Modality != artifact.Audio && art.Modality != artifact.Image {
		return fmt.Errorf("accumulator: unsupported modality %q", art.Modality)
	}
	a.mu.Lock()
	user := a.slots[userID]
	if user == nil {
		user = make(map[artifact.Modality]slot, 2)
		a.slots[userID] = user
	}
	old, replaced := user[art.Modality]
	user[art.Modality] = slot{art: art, at: a.now()}
	var evicted []artifact.Artifact
	if replaced && old.art.ID != art.ID {
		evicted = a.evictLocked(evicted, old.art)
	}
	a.mu.Unlock()

	a.releaseAll("accumulator.replaced", evicted)
	return nil
}

// Peek returns the live artifact for modality without removing it. A stale
// entry is removed and released.
func (a *Accumulator) Peek(userID string, modality artifact.Modality) (artifact.Artifact, bool) {
	a.mu.Lock()
	art, ok, evicted := a.liveLocked(userID, modality)
	a.mu.Unlock()

	a.releaseAll("accumulator.expired", evicted)
	return art, ok
}

// Acquire is Peek that also pins the artifact. done must be called once the
// artifact's file is no longer read; it is safe to call more than once.
func (a *Accumulator) Acquire(userID string, modality artifact.Modality) (artifact.Artifact, func(), bool) {
	a.mu.Lock()
	art, ok, evicted := a.liveLocked(userID, modality)
	if ok {
		a.pins[art.ID]++
	}
	a.mu.Unlock()

	a.releaseAll("accumulator.expired", evicted)
	if !ok {
		return artifact.Artifact{}, func() {}, false
	}
	var once sync.Once
	return art, func() { once.Do(func() { a.unpin(art.ID) }) }, true
}

// Forget removes arts from userID's slots, but only where the slot still
// holds that same artifact; anything pushed since stays. It returns how many
// slots were emptied.
func (a *Accumulator) Forget(userID string, arts ...artifact.Artifact) int {
	a.mu.Lock()
	var evicted []artifact.Artifact
	n := 0
	for _, art := range arts {
		s, ok := a.slots[userID][art.Modality]
		if !ok || s.art.ID != art.ID {
			continue
		}
		a.removeLocked(userID, art.Modality)
		evicted = a.evictLocked(evicted, s.art)
		n++
	}
	a.mu.Unlock()

	a.releaseAll("accumulator.consumed", evicted)
	return n
}

// ClearAll empties both slots for userID and releases their artifacts.
// It returns how many artifacts were dropped.
func (a *Accumulator) ClearAll(userID string) int {
	a.mu.Lock()
	user := a.slots[userID]
	delete(a.slots, userID)
	var evicted []artifact.Artifact
	for _, s := range user {
		evicted = a.evictLocked(evicted, s.art)
	}
	a.mu.Unlock()

	a.releaseAll("accumulator.cleared", evicted)
	return len(user)
}

// Len returns the number of occupied slots across all users.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, user := range a.slots {
		n += len(user)
	}
	return n
}

// Sweep drops and releases every stale slot.
func (a *Accumulator) Sweep() int {
	a.mu.Lock()
	now := a.now()
	var victims []artifact.Artifact
	n := 0
	for id, user := range a.slots {
		for m, s := range user {
			if a.staleAt(s, now) {
				victims = a.evictLocked(victims, s.art)
				delete(user, m)
				n++
			}
		}
		if len(user) == 0 {
			delete(a.slots, id)
		}
	}
	a.mu.Unlock()

	a.releaseAll("accumulator.expired", victims)
	return n
}

func (a *Accumulator) staleAt(s slot, now time.Time) bool {
	return now.Sub(s.at) > a.ttl
}

// liveLocked returns the live artifact for modality, evicting a stale one.
func (a *Accumulator) liveLocked(userID string, modality artifact.Modality) (artifact.Artifact, bool, []artifact.Artifact) {
	s, ok := a.slots[userID][modality]
	if !ok {
		return artifact.Artifact{}, false, nil
	}
	if !a.staleAt(s, a.now()) {
		return s.art, true, nil
	}
	a.removeLocked(userID, modality)
	return artifact.Artifact{}, false, a.evictLocked(nil, s.art)
}

func (a *Accumulator) removeLocked(userID string, modality artifact.Modality) {
	user := a.slots[userID]
	delete(user, modality)
	if len(user) == 0 {
		delete(a.slots, userID)
	}
}

// evictLocked appends art to out when it can be released now. A pinned
// artifact is parked until its last holder is done.
func (a *Accumulator) evictLocked(out []artifact.Artifact, art artifact.Artifact) []artifact.Artifact {
	if a.pins[art.ID] > 0 {
		a.doomed[art.ID] = art
		return out
	}
	return append(out, art)
}

func (a *Accumulator) unpin(id string) {
	a.mu.Lock()
	a.pins[id]--
	var evicted []artifact.Artifact
	if a.pins[id] <= 0 {
		delete(a.pins, id)
		if art, ok := a.doomed[id]; ok {
			delete(a.doomed, id)
			evicted = append(evicted, art)
		}
	}
	a.mu.Unlock()

	a.releaseAll("accumulator.unpinned", evicted)
}

func (a *Accumulator) releaseAll(event string, arts []artifact.Artifact) {
	for _, art := range arts {
		a.release(event, art)
	}
}

func (a *Accumulator) release(event string, art artifact.Artifact) {
	ctx := context.Background()
	if a.rel == nil {
		logger.Debug(ctx, "accumulator", event, slog.String("artifact_id", art.ID))
		return
	}
	err := a.rel.Release(art)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("artifact_id", art.ID),
		slog.String("modality", string(art.Modality)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "accumulator", event, attrs...)
		return
	}
	logger.Debug(ctx, "accumulator", event, attrs...)
}
