// Package quest runs learners' study quests: it moves each session through
// UPLOADING, PLANNING and STUDYING, calls the AI gateway, applies
// gamification and persists the result.
//
// Sessions are keyed by identity. A session value is never modified once
// published; every operation computes a new value and swaps it in under the
// engine lock. No lock is held while the AI is working, so responses are
// checked against the session's epoch before they are applied.
package quest

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Tarunjit45/ExamGenius/internal/curriculum"
	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/notify"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
	"github.com/Tarunjit45/ExamGenius/internal/session"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

const (
	defaultAITimeout = 90 * time.Second
	persistTimeout   = 10 * time.Second
)

// Gateway is the AI surface the engine needs. *studyai.Gateway implements it.
type Gateway interface {
	ExtractTopics(ctx context.Context, doc studyai.Document) ([]plan.SyllabusTopic, error)
	SynthesizePlan(ctx context.Context, topics []plan.SyllabusTopic, days int, pace plan.Pace) (plan.Draft, error)
	GenerateAid(ctx context.Context, subject, topic string, kind studyai.AidKind) (string, error)
	GenerateQuiz(ctx context.Context, subject, topic string) ([]studyai.QuizQuestion, error)
}

// SessionStore persists sessions between sign-ins. *session.Store implements it.
type SessionStore interface {
	Save(ctx context.Context, identityID string, snap session.Snapshot) error
	Load(ctx context.Context, identityID string) (session.Snapshot, bool)
}

// Notifier pushes notifications to the learner. *notify.Gateway implements it.
type Notifier interface {
	Notify(ctx context.Context, identityID string, n notify.Notification) error
}

// Library looks up pre-extracted syllabi. *curriculum.Library implements it.
type Library interface {
	Syllabus(id string) (curriculum.Syllabus, bool)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, notify.Notification) error { return nil }

// EngineConfig holds dependencies for the quest engine.
type EngineConfig struct {
	Gateway      Gateway
	Store        SessionStore         // default: in-memory
	Events       EventLogger          // default: NopEventLogger
	Notifier     Notifier             // default: discard
	Library      Library              // optional
	Gamification *gamification.Engine // default: embedded badge catalog
	AITimeout    time.Duration        // per AI call (default 90s)
	NewID        plan.IDFunc          // mission IDs (default UUIDv4)
}

type action string

const (
	actionExtract action = "extract"
	actionPlan    action = "plan"
)

type inflightKey struct {
	identity string
	action   action
}

// saver serialises one learner's saves. saved is the sequence number of the
// newest state written; latest is the newest state published, which SignIn
// restores from while saves are still pending.
type saver struct {
	mu      sync.Mutex
	saved   uint64
	pending int
	latest  session.Snapshot
}

// pendingSave is a published state waiting to be written.
type pendingSave struct {
	identityID string
	seq        uint64
	snap       session.Snapshot
	saver      *saver
}

// Engine owns every live session in the process.
type Engine struct {
	gateway   Gateway
	store     SessionStore
	events    EventLogger
	notifier  Notifier
	library   Library
	game      *gamification.Engine
	aiTimeout time.Duration
	buildOpts []plan.BuildOption

	mu       sync.Mutex
	sessions map[string]state
	inflight map[inflightKey]uint64
	claims   uint64
	savers   map[string]*saver
	saveSeq  uint64
	epoch    uint64

	aidCalls singleflight.Group
}

// NewEngine creates a new quest engine.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		gateway:   cfg.Gateway,
		store:     cfg.Store,
		events:    cfg.Events,
		notifier:  cfg.Notifier,
		library:   cfg.Library,
		game:      cfg.Gamification,
		aiTimeout: cfg.AITimeout,
		sessions:  make(map[string]state),
		inflight:  make(map[inflightKey]uint64),
		savers:    make(map[string]*saver),
	}
	if e.store == nil {
		e.store = session.NewStore(session.NewMemoryKV())
	}
	if e.events == nil {
		e.events = NopEventLogger{}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.game == nil {
		e.game = gamification.NewEngine(nil)
	}
	if e.aiTimeout <= 0 {
		e.aiTimeout = defaultAITimeout
	}
	if cfg.NewID != nil {
		e.buildOpts = append(e.buildOpts, plan.WithIDFunc(cfg.NewID))
	}
	return e
}

// SignIn starts or resumes the learner's session. A persisted quest is
// restored; otherwise the learner starts at level 1 with nothing uploaded.
// Signing in again while a session is live keeps it and refreshes the identity.
func (e *Engine) SignIn(ctx context.Context, identity gamification.Identity) (Snapshot, error) {
	if strings.TrimSpace(identity.ID) == "" {
		return Snapshot{}, ErrNotSignedIn
	}

	e.mu.Lock()
	if cur, ok := e.sessions[identity.ID]; ok {
		cur.identity = identity
		e.sessions[identity.ID] = cur
		e.mu.Unlock()
		return cur.snapshot(), nil
	}
	e.mu.Unlock()

	saved, found := e.store.Load(ctx, identity.ID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.sessions[identity.ID]; ok {
		return cur.snapshot(), nil
	}

	// Saves still pending from the last session hold newer state than the store.
	if sv, ok := e.savers[identity.ID]; ok {
		saved, found = sv.latest, true
	}

	s := initialState(identity, e.nextEpoch())
	if found {
		s.topics = saved.Topics
		s.plan = saved.Plan
		s.profile = saved.Profile
		switch {
		case s.plan != nil:
			s.stage = StageStudying
		case len(s.topics) > 0:
			s.stage = StagePlanning
		}
	}
	e.sessions[identity.ID] = s

	slog.Info("learner signed in",
		"identity", identity.ID,
		"stage", s.stage,
		"restored", found,
	)
	return s.snapshot(), nil
}

// SignOut drops the learner's live session. The persisted record is kept,
// pending saves still complete, and AI responses still in flight for the
// session are discarded.
func (e *Engine) SignOut(_ context.Context, identityID string) {
	e.mu.Lock()
	_, ok := e.sessions[identityID]
	delete(e.sessions, identityID)
	for key := range e.inflight {
		if key.identity == identityID {
			delete(e.inflight, key)
		}
	}
	e.mu.Unlock()

	if ok {
		slog.Info("learner signed out", "identity", identityID)
	}
}

// Session returns the learner's current session.
func (e *Engine) Session(identityID string) (Snapshot, error) {
	s, err := e.current(identityID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// SubmitSyllabus extracts topics from a syllabus document. On success the
// topics replace any previous syllabus and plan and the learner moves to
// PLANNING. On failure the session is unchanged.
func (e *Engine) SubmitSyllabus(ctx context.Context, identityID string, doc studyai.Document) (Snapshot, error) {
	s, done, err := e.begin(identityID, actionExtract, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer done()

	aiCtx, cancel := e.aiContext(ctx, identityID)
	defer cancel()

	topics, err := e.gateway.ExtractTopics(aiCtx, doc)
	if err != nil {
		slog.Warn("syllabus extraction failed", "identity", identityID, "error", err)
		return Snapshot{}, err
	}
	return e.replaceTopics(ctx, identityID, s.epoch, topics)
}

// UseSyllabus starts from a library syllabus instead of an uploaded document.
func (e *Engine) UseSyllabus(ctx context.Context, identityID, syllabusID string) (Snapshot, error) {
	s, err := e.current(identityID)
	if err != nil {
		return Snapshot{}, err
	}
	if e.library == nil {
		return Snapshot{}, ErrSyllabusNotFound
	}
	syl, ok := e.library.Syllabus(syllabusID)
	if !ok {
		return Snapshot{}, ErrSyllabusNotFound
	}
	return e.replaceTopics(ctx, identityID, s.epoch, syl.Topics())
}

func (e *Engine) replaceTopics(ctx context.Context, identityID string, epoch uint64, topics []plan.SyllabusTopic) (Snapshot, error) {
	e.mu.Lock()
	cur, ok := e.sessions[identityID]
	if !ok || cur.epoch != epoch {
		e.mu.Unlock()
		return Snapshot{}, ErrStale
	}
	next := cur
	next.stage = StagePlanning
	next.topics = topics
	next.plan = nil
	next.aids = map[string]StudyAids{}
	next.epoch = e.nextEpoch()
	save := e.publish(identityID, next)
	e.mu.Unlock()

	slog.Info("syllabus accepted",
		"identity", identityID,
		"subjects", len(topics),
		"topics", len(plan.Flatten(topics)),
	)
	e.persist(ctx, save)
	return next.snapshot(), nil
}

// CreatePlan asks the planner for a day-by-day plan over the current topics.
// The request is validated before the AI is called. A plan that arrives
// after the topics changed is discarded with ErrStale.
func (e *Engine) CreatePlan(ctx context.Context, identityID string, days int, pace plan.Pace) (Snapshot, error) {
	s, done, err := e.begin(identityID, actionPlan, func(s state) error {
		if len(s.topics) == 0 {
			return ErrNoTopics
		}
		return plan.ValidateRequest(s.topics, days, pace)
	})
	if err != nil {
		return Snapshot{}, err
	}
	defer done()

	aiCtx, cancel := e.aiContext(ctx, identityID)
	defer cancel()

	draft, err := e.gateway.SynthesizePlan(aiCtx, s.topics, days, pace)
	if err != nil {
		slog.Warn("plan synthesis failed", "identity", identityID, "error", err)
		return Snapshot{}, err
	}

	built, err := plan.Build(s.topics, days, pace, draft, e.buildOpts...)
	if err != nil {
		slog.Warn("planner returned an unusable plan", "identity", identityID, "error", err)
		return Snapshot{}, &studyai.GatewayError{Op: studyai.OpSynthesizePlan, Err: err}
	}

	e.mu.Lock()
	cur, ok := e.sessions[identityID]
	if !ok || cur.epoch != s.epoch {
		e.mu.Unlock()
		slog.Info("discarding plan for a replaced syllabus", "identity", identityID)
		return Snapshot{}, ErrStale
	}
	outcome, err := e.game.Apply(cur.profile, gamification.PlanStarted{})
	if err != nil {
		e.mu.Unlock()
		return Snapshot{}, err
	}
	next := cur
	next.stage = StageStudying
	next.plan = &built
	next.profile = outcome.Profile
	next.aids = map[string]StudyAids{}
	next.epoch = e.nextEpoch()
	save := e.publish(identityID, next)
	e.mu.Unlock()

	missions := 0
	for _, d := range built.Days {
		missions += len(d.Missions)
	}
	slog.Info("study plan created",
		"identity", identityID,
		"days", days,
		"pace", pace,
		"missions", missions,
	)

	e.persist(ctx, save)

	e.journal(ctx, Event{IdentityID: identityID, EventType: EventPlanStarted, Data: map[string]any{
		"days":     days,
		"pace":     string(pace),
		"missions": missions,
	}})
	e.notify(ctx, identityID, notify.Notification{Kind: notify.KindPlanReady, Data: map[string]any{
		"days":     days,
		"missions": missions,
	}})
	e.publishOutcome(ctx, identityID, outcome)

	return next.snapshot(), nil
}

// current returns the live state of identityID.
func (e *Engine) current(identityID string) (state, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[identityID]
	if !ok {
		return state{}, ErrNotSignedIn
	}
	return s, nil
}

// begin claims act for identityID after check passes. The returned func
// releases the claim.
func (e *Engine) begin(identityID string, act action, check func(state) error) (state, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[identityID]
	if !ok {
		return state{}, nil, ErrNotSignedIn
	}
	if check != nil {
		if err := check(s); err != nil {
			return state{}, nil, err
		}
	}
	key := inflightKey{identity: identityID, action: act}
	if _, busy := e.inflight[key]; busy {
		return state{}, nil, ErrBusy
	}
	e.claims++
	claim := e.claims
	e.inflight[key] = claim

	return s, func() {
		e.mu.Lock()
		// SignOut may have dropped this claim and a new session taken the key.
		if e.inflight[key] == claim {
			delete(e.inflight, key)
		}
		e.mu.Unlock()
	}, nil
}

// nextEpoch must be called with e.mu held.
func (e *Engine) nextEpoch() uint64 {
	e.epoch++
	return e.epoch
}

func (e *Engine) aiContext(ctx context.Context, identityID string) (context.Context, context.CancelFunc) {
	return context.WithTimeout(studyai.WithLearner(ctx, identityID), e.aiTimeout)
}

// publish swaps in next as the learner's live state and queues it for
// saving. It must be called with e.mu held, and the result passed to persist.
func (e *Engine) publish(identityID string, next state) pendingSave {
	e.sessions[identityID] = next
	e.saveSeq++

	sv, ok := e.savers[identityID]
	if !ok {
		sv = &saver{}
		e.savers[identityID] = sv
	}
	snap := session.Snapshot{Topics: next.topics, Plan: next.plan, Profile: next.profile}
	sv.pending++
	sv.latest = snap

	return pendingSave{identityID: identityID, seq: e.saveSeq, snap: snap, saver: sv}
}

// persist writes a published state. Saves for one learner are serialised
// and a save older than one already written is skipped, so a slow save can
// never overwrite a newer one. Failures are logged.
func (e *Engine) persist(ctx context.Context, p pendingSave) {
	sv := p.saver
	sv.mu.Lock()
	if p.seq > sv.saved {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		if err := e.store.Save(ctx, p.identityID, p.snap); err != nil {
			slog.Warn("session not persisted", "identity", p.identityID, "error", err)
		}
		cancel()
		sv.saved = p.seq
	}
	sv.mu.Unlock()

	e.mu.Lock()
	sv.pending--
	if sv.pending == 0 && e.savers[p.identityID] == sv {
		delete(e.savers, p.identityID)
	}
	e.mu.Unlock()
}

func (e *Engine) journal(ctx context.Context, event Event) {
	if err := e.events.LogEvent(context.WithoutCancel(ctx), event); err != nil {
		slog.Warn("failed to log event", "type", event.EventType, "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, identityID string, n notify.Notification) {
	// Delivery failures are already logged by the notifier.
	_ = e.notifier.Notify(context.WithoutCancel(ctx), identityID, n)
}

// publishOutcome journals and announces level-ups and new badges.
func (e *Engine) publishOutcome(ctx context.Context, identityID string, outcome gamification.Outcome) {
	if outcome.LevelUp > 0 {
		data := map[string]any{"level": outcome.LevelUp, "xp": outcome.Profile.XP}
		e.journal(ctx, Event{IdentityID: identityID, EventType: EventLevelUp, Data: data})
		e.notify(ctx, identityID, notify.Notification{Kind: notify.KindLevelUp, Data: data})
	}
	for _, b := range outcome.Awarded {
		e.journal(ctx, Event{IdentityID: identityID, EventType: EventBadgeEarned, Data: map[string]any{
			"kind": string(b.Kind),
			"name": b.Name,
		}})
		e.notify(ctx, identityID, notify.Notification{Kind: notify.KindBadgeEarned, Data: b})
	}
}
