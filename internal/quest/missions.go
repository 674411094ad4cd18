package quest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/notify"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

// FetchAid returns the mission's study aids after making sure the aid of
// kind is loaded. Each aid is generated once per mission; concurrent requests
// for the same aid share one AI call. An aid that arrives after the plan was
// replaced is discarded with ErrStale.
func (e *Engine) FetchAid(ctx context.Context, identityID, missionID string, kind studyai.AidKind) (StudyAids, error) {
	if _, err := studyai.ParseAidKind(string(kind)); err != nil {
		return StudyAids{}, err
	}

	s, err := e.current(identityID)
	if err != nil {
		return StudyAids{}, err
	}
	if s.plan == nil {
		return StudyAids{}, ErrNoPlan
	}
	mission, ok := s.plan.Mission(missionID)
	if !ok {
		return StudyAids{}, ErrMissionNotFound
	}
	if aids := s.aids[missionID]; aids.Has(kind) {
		return aids.clone(), nil
	}

	key := fmt.Sprintf("%s|%d|%s|%s", identityID, s.epoch, missionID, kind)
	v, err, shared := e.aidCalls.Do(key, func() (any, error) {
		return e.generateAid(ctx, identityID, s.epoch, mission, kind)
	})
	if err != nil {
		return StudyAids{}, err
	}
	if shared {
		slog.Debug("study aid request joined", "identity", identityID, "mission_id", missionID, "kind", kind)
	}
	return v.(StudyAids).clone(), nil
}

func (e *Engine) generateAid(ctx context.Context, identityID string, epoch uint64, mission plan.Mission, kind studyai.AidKind) (StudyAids, error) {
	// A call that finished just before this one started may have loaded it.
	e.mu.Lock()
	cur, ok := e.sessions[identityID]
	e.mu.Unlock()
	if ok && cur.epoch == epoch && cur.aids[mission.ID].Has(kind) {
		return cur.aids[mission.ID], nil
	}

	// Joined callers share this call, so one of them going away must not fail the rest.
	aiCtx, cancel := e.aiContext(context.WithoutCancel(ctx), identityID)
	defer cancel()

	var (
		text string
		quiz []studyai.QuizQuestion
		err  error
	)
	if kind == studyai.AidQuiz {
		quiz, err = e.gateway.GenerateQuiz(aiCtx, mission.Subject, mission.Topic)
	} else {
		text, err = e.gateway.GenerateAid(aiCtx, mission.Subject, mission.Topic, kind)
	}
	if err != nil {
		slog.Warn("study aid generation failed",
			"identity", identityID,
			"mission_id", mission.ID,
			"kind", kind,
			"error", err,
		)
		return StudyAids{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok = e.sessions[identityID]
	if !ok || cur.epoch != epoch || cur.plan == nil {
		return StudyAids{}, ErrStale
	}
	if _, ok := cur.plan.Mission(mission.ID); !ok {
		return StudyAids{}, ErrStale
	}
	aids := cur.aids[mission.ID].with(kind, text, quiz)
	e.sessions[identityID] = cur.withAid(mission.ID, aids)
	return aids, nil
}

// QuizResult is the outcome of finishing a mission.
type QuizResult struct {
	MissionID string `json:"mission_id"`
	Score     int    `json:"score"`
	Total     int    `json:"total"`
	// Completed is false when the mission had already been completed;
	// nothing else changes in that case.
	Completed bool                 `json:"completed"`
	XPGained  int                  `json:"xp_gained"`
	LevelUp   int                  `json:"level_up,omitempty"`
	Awarded   []gamification.Badge `json:"awarded,omitempty"`
	Session   Snapshot             `json:"session"`
}

// SubmitQuiz scores answers against the mission's loaded quiz and completes
// the mission. Answers are matched to questions by position.
func (e *Engine) SubmitQuiz(ctx context.Context, identityID, missionID string, answers []string) (QuizResult, error) {
	s, err := e.current(identityID)
	if err != nil {
		return QuizResult{}, err
	}
	if s.plan == nil {
		return QuizResult{}, ErrNoPlan
	}
	if _, ok := s.plan.Mission(missionID); !ok {
		return QuizResult{}, ErrMissionNotFound
	}
	quiz := s.aids[missionID].Quiz
	if len(quiz) == 0 {
		return QuizResult{}, ErrQuizNotLoaded
	}
	if len(answers) != len(quiz) {
		return QuizResult{}, &plan.ValidationError{Field: "answers", Reason: fmt.Sprintf("want %d answers, got %d", len(quiz), len(answers))}
	}

	return e.CompleteMission(ctx, identityID, missionID, studyai.Score(quiz, answers))
}

// CompleteMission marks a mission completed with the given quiz score and
// applies the resulting XP, level and badges. Completing an already
// completed mission changes nothing and reports Completed false.
func (e *Engine) CompleteMission(ctx context.Context, identityID, missionID string, score int) (QuizResult, error) {
	e.mu.Lock()
	cur, ok := e.sessions[identityID]
	if !ok {
		e.mu.Unlock()
		return QuizResult{}, ErrNotSignedIn
	}
	if cur.plan == nil {
		e.mu.Unlock()
		return QuizResult{}, ErrNoPlan
	}

	result := QuizResult{MissionID: missionID, Score: score, Total: gamification.QuizLength}

	updated, completion, ok := plan.CompleteMission(*cur.plan, missionID)
	if !ok {
		e.mu.Unlock()
		if _, exists := cur.plan.Mission(missionID); !exists {
			return QuizResult{}, ErrMissionNotFound
		}
		result.Session = cur.snapshot()
		return result, nil
	}

	outcome, err := e.game.Apply(cur.profile, gamification.MissionCompleted{
		QuizScore:       score,
		Subject:         completion.Subject,
		SubjectFinished: completion.SubjectFinished,
	})
	if err != nil {
		e.mu.Unlock()
		return QuizResult{}, err
	}

	next := cur
	next.plan = &updated
	next.profile = outcome.Profile
	save := e.publish(identityID, next)
	e.mu.Unlock()

	result.Completed = true
	result.XPGained = outcome.Profile.XP - cur.profile.XP
	result.LevelUp = outcome.LevelUp
	result.Awarded = outcome.Awarded
	result.Session = next.snapshot()

	slog.Info("mission completed",
		"identity", identityID,
		"mission_id", missionID,
		"score", score,
		"xp", outcome.Profile.XP,
		"level", outcome.Profile.Level,
	)

	e.persist(ctx, save)

	e.journal(ctx, Event{IdentityID: identityID, EventType: EventMissionCompleted, Data: map[string]any{
		"mission_id":       missionID,
		"subject":          completion.Subject,
		"topic":            completion.Topic,
		"score":            score,
		"subject_finished": completion.SubjectFinished,
	}})
	e.notify(ctx, identityID, notify.Notification{Kind: notify.KindMissionCompleted, Data: map[string]any{
		"mission_id": missionID,
		"score":      score,
		"xp":         outcome.Profile.XP,
	}})
	e.publishOutcome(ctx, identityID, outcome)

	return result, nil
}
