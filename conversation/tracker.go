// Copyright 2025 Seampoint Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seampoint/concierge/core"
	"github.com/seampoint/concierge/storage"
)

// celebrationMessage is emitted once per session, on the transition into
// the engaged stage. Presentation timing is the caller's concern.
const celebrationMessage = "Sounds like Crewbase could be a real fit for your team. " +
	"Pick whichever next step below feels most useful and we'll make it concrete."

// Tracker owns conversation session state. All turn mutations for one
// session id are serialized through a per-session lock, so concurrent
// requests never lose a turn count or history update. Distinct sessions
// proceed in parallel.
type Tracker struct {
	sessions     storage.SessionRepository
	logger       *slog.Logger
	historyTurns int

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes turns for one session id. Entries are
// reference-counted so the map shrinks back once no turn is in flight;
// without that the map would grow with every session id ever seen.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// WithHistoryTurns sets the bounded history window per session.
// Default is core.DefaultHistoryTurns.
func WithHistoryTurns(n int) Option {
	return func(t *Tracker) error {
		if n > 0 {
			t.historyTurns = n
		}
		return nil
	}
}

// NewTracker creates a new conversation state tracker.
func NewTracker(sessions storage.SessionRepository, opts ...Option) (*Tracker, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}

	t := &Tracker{
		sessions:     sessions,
		logger:       slog.Default(),
		historyTurns: core.DefaultHistoryTurns,
		locks:        make(map[string]*sessionLock),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// acquireLock blocks until the caller holds the session's lock.
// Every acquireLock must be paired with a releaseLock.
func (t *Tracker) acquireLock(id string) *sessionLock {
	t.mu.Lock()
	lock, ok := t.locks[id]
	if !ok {
		lock = &sessionLock{}
		t.locks[id] = lock
	}
	lock.refs++
	t.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// releaseLock unlocks the session and drops the map entry once no other
// turn is waiting on it.
func (t *Tracker) releaseLock(id string, lock *sessionLock) {
	lock.mu.Unlock()

	t.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(t.locks, id)
	}
	t.mu.Unlock()
}

// Turn is one in-flight conversation turn. The session lock is held from
// BeginTurn until Complete or Abort, so the read-modify-write spanning
// retrieval and synthesis is atomic per session.
type Turn struct {
	Session *core.Session

	tracker  *Tracker
	lock     *sessionLock
	finished bool
}

// Result is the state-machine output of a completed turn.
type Result struct {
	Stage core.Stage

	// Celebration carries the one-shot stage-transition message,
	// empty on every other turn.
	Celebration string
}

// BeginTurn acquires the session lock, loads or creates the session, and
// records the inbound question. An empty session id starts a fresh
// session with a generated id; an unknown id is treated the same way
// rather than erroring, so expired sessions restart transparently.
// The caller must finish the turn with Complete or Abort.
func (t *Tracker) BeginTurn(ctx context.Context, sessionId, question string) (*Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	lock := t.acquireLock(sessionId)

	session, err := t.sessions.GetSession(ctx, sessionId)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			t.releaseLock(sessionId, lock)
			return nil, err
		}
		session = &core.Session{
			Id:        sessionId,
			Stage:     core.StageDiscovery,
			CreatedAt: time.Now().UTC(),
		}
		t.logger.Debug("created session", "sessionId", sessionId)
	}

	session.TurnCount++
	session.AppendTurn(core.RoleUser, question, t.historyTurns)

	return &Turn{Session: session, tracker: t, lock: lock}, nil
}

// Complete records the answer and offered actions, advances the stage
// machine, persists the session, and releases the session lock.
func (turn *Turn) Complete(ctx context.Context, answer string, offered []core.ActionKind) (*Result, error) {
	if turn.finished {
		return nil, ErrTurnFinished
	}
	turn.finished = true
	defer turn.tracker.releaseLock(turn.Session.Id, turn.lock)

	session := turn.Session
	session.AppendTurn(core.RoleAssistant, answer, turn.tracker.historyTurns)
	session.RecordOffered(offered)

	celebration := advanceStage(session, offered)

	if err := turn.tracker.sessions.SaveSession(ctx, session); err != nil {
		turn.tracker.logger.Error("error saving session", "sessionId", session.Id, "err", err)
		return nil, err
	}

	result := &Result{Stage: session.Stage}
	if celebration {
		result.Celebration = celebrationMessage
	}
	return result, nil
}

// Abort releases the session lock without persisting anything.
// Used when retrieval or synthesis fails before an answer exists.
func (turn *Turn) Abort() {
	if turn.finished {
		return
	}
	turn.finished = true
	turn.tracker.releaseLock(turn.Session.Id, turn.lock)
}

// advanceStage runs the stage transitions for one completed turn and
// reports whether the one-shot celebration fires.
//
// Discovery covers turns 1-4. The discovery-to-engaged transition fires
// at turn five exactly, and only when the turn surfaced more than two
// actions and the session has seen at least three distinct action kinds;
// it carries the celebration, once per session. Turn six onward is
// deepened regardless.
//
// Runs after RecordOffered, so OfferedKinds already folds in this turn.
func advanceStage(session *core.Session, offered []core.ActionKind) bool {
	switch {
	case session.TurnCount >= 6:
		session.Stage = core.StageDeepened
		return false
	case session.TurnCount == 5 && len(offered) > 2 && len(session.OfferedKinds) > 2:
		celebrate := session.Stage == core.StageDiscovery && !session.CelebrationSent
		session.Stage = core.StageEngaged
		if celebrate {
			session.CelebrationSent = true
		}
		return celebrate
	default:
		return false
	}
}

// PurgeIdle removes sessions that have been idle longer than maxIdle.
// Returns the number of sessions removed.
func (t *Tracker) PurgeIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxIdle)
	removed, err := t.sessions.PurgeIdleSessions(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		t.logger.Info("purged idle sessions", "count", removed, "maxIdle", maxIdle)
	}
	return removed, nil
}
