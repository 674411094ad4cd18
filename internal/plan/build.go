package plan

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// IDFunc produces mission identifiers. It must never repeat within a plan.
type IDFunc func() string

type buildOptions struct {
	newID IDFunc
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithIDFunc replaces the default UUID generator (for tests).
func WithIDFunc(fn IDFunc) BuildOption {
	return func(o *buildOptions) {
		o.newID = fn
	}
}

// ValidateRequest checks the inputs of a plan request. Callers run it
// before contacting the planner so that bad input never costs a model call.
func ValidateRequest(topics []SyllabusTopic, days int, pace Pace) error {
	if days < MinDays || days > MaxDays {
		return &ValidationError{Field: "days", Reason: fmt.Sprintf("must be between %d and %d, got %d", MinDays, MaxDays, days)}
	}
	if _, err := ParsePace(string(pace)); err != nil {
		return err
	}
	return ValidateTopics(topics)
}

// ValidateTopics checks that the syllabus has at least one topic and no blank names.
func ValidateTopics(topics []SyllabusTopic) error {
	if len(topics) == 0 {
		return &ValidationError{Field: "topics", Reason: "syllabus has no subjects"}
	}
	total := 0
	for i, st := range topics {
		if strings.TrimSpace(st.Subject) == "" {
			return &ValidationError{Field: "topics", Reason: fmt.Sprintf("subject %d has no name", i+1)}
		}
		for _, t := range st.Topics {
			if strings.TrimSpace(t) == "" {
				return &ValidationError{Field: "topics", Reason: fmt.Sprintf("subject %q has a blank topic", st.Subject)}
			}
			total++
		}
	}
	if total == 0 {
		return &ValidationError{Field: "topics", Reason: "syllabus has no topics"}
	}
	return nil
}

// Build materialises a planner draft into a StudyPlan.
//
// The draft must mention every (subject, topic) of the syllabus exactly once.
// Days missing from the draft become empty days, so the result always has
// exactly days entries numbered 1..days. Every mission gets a fresh ID and
// starts pending.
func Build(topics []SyllabusTopic, days int, pace Pace, draft Draft, opts ...BuildOption) (StudyPlan, error) {
	if err := ValidateRequest(topics, days, pace); err != nil {
		return StudyPlan{}, err
	}

	o := buildOptions{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}

	if draft.Days == nil {
		return StudyPlan{}, &MalformedPlanError{Reason: "missing days"}
	}

	// Remaining multiplicity of each syllabus pair, plus the syllabus spelling.
	remaining := make(map[TopicRef]int)
	canonical := make(map[TopicRef]TopicRef)
	var order []TopicRef
	for _, ref := range Flatten(topics) {
		k := refKey(ref.Subject, ref.Topic)
		if _, seen := canonical[k]; !seen {
			canonical[k] = ref
			order = append(order, k)
		}
		remaining[k]++
	}

	byDay := make(map[int][]Mission, len(draft.Days))
	var extra []TopicRef
	for i, d := range draft.Days {
		if d.Day < 1 {
			return StudyPlan{}, &MalformedPlanError{Reason: fmt.Sprintf("day entry %d has a missing or invalid day number", i+1)}
		}
		if d.Day > days {
			return StudyPlan{}, &MalformedPlanError{Reason: fmt.Sprintf("day %d is beyond the %d-day horizon", d.Day, days)}
		}
		if _, dup := byDay[d.Day]; dup {
			return StudyPlan{}, &MalformedPlanError{Reason: fmt.Sprintf("day %d appears more than once", d.Day)}
		}
		if d.Missions == nil {
			return StudyPlan{}, &MalformedPlanError{Reason: fmt.Sprintf("day %d has no missions field", d.Day)}
		}

		missions := make([]Mission, 0, len(d.Missions))
		for j, dm := range d.Missions {
			if strings.TrimSpace(dm.Subject) == "" || strings.TrimSpace(dm.Topic) == "" {
				return StudyPlan{}, &MalformedPlanError{Reason: fmt.Sprintf("day %d mission %d lacks a subject or topic", d.Day, j+1)}
			}
			k := refKey(dm.Subject, dm.Topic)
			if remaining[k] == 0 {
				extra = append(extra, TopicRef{Subject: dm.Subject, Topic: dm.Topic})
				continue
			}
			remaining[k]--
			src := canonical[k]
			missions = append(missions, Mission{
				ID:      o.newID(),
				Subject: src.Subject,
				Topic:   src.Topic,
				Status:  StatusPending,
			})
		}
		byDay[d.Day] = missions
	}

	var missing []TopicRef
	for _, k := range order {
		for n := remaining[k]; n > 0; n-- {
			missing = append(missing, canonical[k])
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return StudyPlan{}, &MalformedPlanError{
			Reason:  "plan does not cover the syllabus exactly once",
			Missing: missing,
			Extra:   extra,
		}
	}

	p := StudyPlan{Days: make([]DailyPlan, days)}
	for day := 1; day <= days; day++ {
		missions := byDay[day]
		if missions == nil {
			missions = []Mission{}
		}
		p.Days[day-1] = DailyPlan{Day: day, Missions: missions}
	}

	if err := p.checkUniqueIDs(); err != nil {
		return StudyPlan{}, err
	}
	return p, nil
}

// refKey normalises a pair for multiset comparison. Models sometimes change
// surrounding whitespace or the Unicode composition of accented names.
func refKey(subject, topic string) TopicRef {
	return TopicRef{
		Subject: norm.NFC.String(strings.TrimSpace(subject)),
		Topic:   norm.NFC.String(strings.TrimSpace(topic)),
	}
}

func (p StudyPlan) checkUniqueIDs() error {
	seen := make(map[string]struct{})
	for _, d := range p.Days {
		for _, m := range d.Missions {
			if m.ID == "" {
				return fmt.Errorf("mission %s/%s: empty id", m.Subject, m.Topic)
			}
			if _, dup := seen[m.ID]; dup {
				return fmt.Errorf("mission id %q generated twice", m.ID)
			}
			seen[m.ID] = struct{}{}
		}
	}
	return nil
}
