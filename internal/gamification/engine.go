package gamification

import "fmt"

// Event is something that happened in the quest. Implemented by PlanStarted
// and MissionCompleted.
type Event interface {
	eventName() string
}

// PlanStarted is emitted once a new study plan has been built.
type PlanStarted struct{}

// MissionCompleted is emitted when a pending mission becomes completed.
type MissionCompleted struct {
	QuizScore       int
	Subject         string
	SubjectFinished bool
}

func (PlanStarted) eventName() string      { return "plan_started" }
func (MissionCompleted) eventName() string { return "mission_completed" }

// EventName returns the journal name of e.
func EventName(e Event) string {
	return e.eventName()
}

// Outcome is the result of applying one event.
type Outcome struct {
	Profile Profile
	// LevelUp is the new level, or 0 when the level did not change.
	LevelUp int
	// Awarded lists badges earned by this event, in award order.
	Awarded []Badge
}

// ValidationError reports an event the engine refuses to apply.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Engine applies events against a badge catalog.
type Engine struct {
	catalog *Catalog
}

// NewEngine returns an engine using catalog, or the embedded one when nil.
func NewEngine(catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{catalog: catalog}
}

// Apply computes the profile after e. The input profile is never modified.
func Apply(p Profile, e Event) (Outcome, error) {
	return NewEngine(nil).Apply(p, e)
}

// Apply computes the profile after e. The input profile is never modified.
func (g *Engine) Apply(p Profile, e Event) (Outcome, error) {
	next := p.Clone()
	if next.Level < 1 {
		next.Level = 1
	}

	var awarded []Badge
	award := func(b Badge) {
		if next.HasBadge(b.Name) {
			return
		}
		next.Badges = append(next.Badges, b)
		awarded = append(awarded, b)
	}
	def := func(k BadgeKind) Definition {
		d, _ := g.catalog.Definition(k)
		return d
	}

	switch ev := e.(type) {
	case PlanStarted:
		award(def(KindPlannerPro).Badge(""))
		return Outcome{Profile: next, Awarded: awarded}, nil

	case MissionCompleted:
		if ev.QuizScore < 0 || ev.QuizScore > QuizLength {
			return Outcome{Profile: p}, &ValidationError{
				Field:  "quiz_score",
				Reason: fmt.Sprintf("must be between 0 and %d, got %d", QuizLength, ev.QuizScore),
			}
		}
		if ev.SubjectFinished && ev.Subject == "" {
			return Outcome{Profile: p}, &ValidationError{Field: "subject", Reason: "required when the subject is finished"}
		}

		prevLevel := next.Level
		next.XP += XPPerMission
		next.Level = advance(next.Level, next.XP)

		if next.MissionsCompleted == 0 {
			award(def(KindFirstStep).Badge(""))
		}
		next.MissionsCompleted++
		if ev.QuizScore == QuizLength {
			award(def(KindQuizWhiz).Badge(""))
		}
		if ev.SubjectFinished {
			award(def(KindSubjectAdept).Badge(ev.Subject))
		}

		out := Outcome{Profile: next, Awarded: awarded}
		if next.Level > prevLevel {
			out.LevelUp = next.Level
		}
		return out, nil

	case nil:
		return Outcome{Profile: p}, &ValidationError{Field: "event", Reason: "missing"}

	default:
		return Outcome{Profile: p}, &ValidationError{Field: "event", Reason: fmt.Sprintf("unsupported %T", e)}
	}
}
