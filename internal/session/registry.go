package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/CodeAndHammer/rootword/internal/events"
	game "github.com/CodeAndHammer/rootword/internal/game"
	util "github.com/CodeAndHammer/rootword/internal/util"
)

// ErrSessionNotFound is a routing failure, distinct from a rejected word.
var ErrSessionNotFound = errors.New("session not found")

const DefaultShards = 32

type Options struct {
	Clock         clockwork.Clock
	RoundDuration time.Duration
	// AdvanceOnAccept issues a fresh target word after every accepted
	// submission, unless the submission already earned one via the bonus.
	AdvanceOnAccept bool
	Publisher       events.Publisher
	Shards          int
}

// Registry maps session ids to sessions. Unrelated sessions live on
// different shards; each entry carries its own mutex so submissions to one
// session never interleave.
type Registry struct {
	shards          []*shard
	words           game.WordSource
	clock           clockwork.Clock
	roundDuration   time.Duration
	advanceOnAccept bool
	publisher       events.Publisher
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu              sync.Mutex
	session         *game.Session
	expiredNotified bool

	lastAccess atomic.Int64
	removed    atomic.Bool
}

func NewRegistry(words game.WordSource, opts Options) (*Registry, error) {
	if words == nil {
		return nil, game.ErrNilWordSource
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.RoundDuration <= 0 {
		opts.RoundDuration = game.DefaultRoundDuration
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Discard{}
	}
	if opts.Shards <= 0 {
		opts.Shards = DefaultShards
	}

	r := &Registry{
		shards:          make([]*shard, opts.Shards),
		words:           words,
		clock:           opts.Clock,
		roundDuration:   opts.RoundDuration,
		advanceOnAccept: opts.AdvanceOnAccept,
		publisher:       opts.Publisher,
	}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return r, nil
}

func (r *Registry) shardFor(id string) *shard {
	return r.shards[xxhash.Sum64String(id)%uint64(len(r.shards))]
}

func (r *Registry) lookup(id string) (*entry, error) {
	sh := r.shardFor(id)
	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// acquire locks the entry for id. The caller must unlock e.mu.
func (r *Registry) acquire(id string) (*entry, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.removed.Load() {
		e.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	e.lastAccess.Store(r.clock.Now().UnixNano())
	return e, nil
}

func (r *Registry) freshID() string {
	for {
		id := uuid.NewString()
		if _, err := r.lookup(id); errors.Is(err, ErrSessionNotFound) {
			return id
		}
	}
}

// Create starts a session for playerName: the first word is issued and
// the round timer started before the id is returned.
func (r *Registry) Create(ctx context.Context, playerName string) (string, error) {
	for {
		id := r.freshID()
		s, err := game.New(ctx, id, playerName, r.words,
			game.WithClock(r.clock),
			game.WithRoundDuration(r.roundDuration))
		if err != nil {
			return "", err
		}

		e := &entry{session: s}
		e.lastAccess.Store(r.clock.Now().UnixNano())

		sh := r.shardFor(id)
		sh.mu.Lock()
		if _, taken := sh.entries[id]; taken {
			sh.mu.Unlock()
			continue
		}
		sh.entries[id] = e
		sh.mu.Unlock()

		util.Logger(ctx).Info().Str("session_id", id).Str("player", playerName).Msg("created session")
		r.publish(ctx, events.New(events.TypeSessionCreated, id, r.clock.Now(), map[string]any{
			"playerName": playerName,
			"word":       s.CurrentWord(),
		}))
		return id, nil
	}
}

func (r *Registry) Snapshot(id string) (game.Snapshot, error) {
	e, err := r.acquire(id)
	if err != nil {
		return game.Snapshot{}, err
	}
	defer e.mu.Unlock()
	return e.session.Snapshot(), nil
}

// Summary is the end-of-round report for id.
func (r *Registry) Summary(id string) (game.Summary, error) {
	e, err := r.acquire(id)
	if err != nil {
		return game.Summary{}, err
	}
	defer e.mu.Unlock()
	return e.session.EndRound(), nil
}

// Submit plays word in session id. accepted=false with a nil error is a
// legitimate game outcome; ErrSessionNotFound means id is unknown.
func (r *Registry) Submit(ctx context.Context, id, word string) (bool, game.Snapshot, error) {
	e, err := r.acquire(id)
	if err != nil {
		return false, game.Snapshot{}, err
	}

	s := e.session
	issuedBefore := s.WordsIssued()
	accepted := s.Submit(ctx, word)
	if accepted && r.advanceOnAccept && s.WordsIssued() == issuedBefore && !s.IsExpired() {
		_ = s.IssueNewWord(ctx)
	}
	newWords := s.GivenWords()[issuedBefore:]

	notifyExpired := false
	if s.RemainingTime() == 0 && !e.expiredNotified {
		e.expiredNotified = true
		notifyExpired = true
	}
	snap := s.Snapshot()
	e.mu.Unlock()

	now := r.clock.Now()
	if accepted {
		r.publish(ctx, events.New(events.TypeWordAccepted, id, now, map[string]any{"word": game.Normalize(word), "score": snap.Score}))
	} else {
		r.publish(ctx, events.New(events.TypeWordRejected, id, now, map[string]any{"word": game.Normalize(word), "status": snap.Status}))
	}
	for _, w := range newWords {
		r.publish(ctx, events.New(events.TypeWordIssued, id, now, map[string]any{"word": w}))
	}
	if notifyExpired {
		r.publish(ctx, events.New(events.TypeRoundExpired, id, now, map[string]any{"score": snap.Score}))
	}
	return accepted, snap, nil
}

// IssueWord retries word issuance, typically after the word source failed.
// The returned error wraps game.ErrWordUnavailable on collaborator failure.
func (r *Registry) IssueWord(ctx context.Context, id string) (game.Snapshot, error) {
	e, err := r.acquire(id)
	if err != nil {
		return game.Snapshot{}, err
	}
	err = e.session.IssueNewWord(ctx)
	snap := e.session.Snapshot()
	e.mu.Unlock()

	if err != nil {
		return snap, err
	}
	r.publish(ctx, events.New(events.TypeWordIssued, id, r.clock.Now(), map[string]any{"word": snap.CurrentWord}))
	return snap, nil
}

// Remove discards id. Removing an unknown id is a no-op.
func (r *Registry) Remove(ctx context.Context, id string) {
	r.removeIf(ctx, id, func(*entry) bool { return true })
}

func (r *Registry) removeIf(ctx context.Context, id string, match func(*entry) bool) bool {
	sh := r.shardFor(id)
	sh.mu.Lock()
	e, ok := sh.entries[id]
	if ok && !match(e) {
		ok = false
	}
	if ok {
		delete(sh.entries, id)
	}
	sh.mu.Unlock()
	if !ok {
		return false
	}
	e.removed.Store(true)

	util.Logger(ctx).Info().Str("session_id", id).Msg("removed session")
	r.publish(ctx, events.New(events.TypeSessionRemoved, id, r.clock.Now(), nil))
	return true
}

// SweepIdle removes every session not touched for longer than ttl and
// returns how many were removed.
func (r *Registry) SweepIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := r.clock.Now().Add(-ttl).UnixNano()
	var stale []string
	for _, sh := range r.shards {
		sh.mu.RLock()
		for id, e := range sh.entries {
			if e.lastAccess.Load() < cutoff {
				stale = append(stale, id)
			}
		}
		sh.mu.RUnlock()
	}
	removed := 0
	for _, id := range stale {
		if r.removeIf(ctx, id, func(e *entry) bool { return e.lastAccess.Load() < cutoff }) {
			removed++
		}
	}
	if removed > 0 {
		util.Logger(ctx).Info().Int("removed", removed).Msg("cleaned up idle sessions")
	}
	return removed
}

func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

func (r *Registry) publish(ctx context.Context, ev events.Event) {
	if err := r.publisher.Publish(ctx, ev); err != nil {
		util.Logger(ctx).Warn().Err(err).Str("event_type", ev.Type).Str("session_id", ev.SessionID).Msg("failed to publish event")
	}
}
