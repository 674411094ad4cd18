package quest

import (
	"github.com/Tarunjit45/ExamGenius/internal/gamification"
	"github.com/Tarunjit45/ExamGenius/internal/plan"
	"github.com/Tarunjit45/ExamGenius/internal/studyai"
)

// Stage is where the learner is in the quest.
type Stage string

const (
	StageUploading Stage = "UPLOADING"
	StagePlanning  Stage = "PLANNING"
	StageStudying  Stage = "STUDYING"
)

// StudyAids are the lazily generated materials of one mission.
// Each aid is generated at most once and never changes afterwards.
type StudyAids struct {
	Notes     string                 `json:"notes,omitempty"`
	Summary   string                 `json:"summary,omitempty"`
	Mnemonics string                 `json:"mnemonics,omitempty"`
	Story     string                 `json:"story,omitempty"`
	Quiz      []studyai.QuizQuestion `json:"quiz,omitempty"`
}

// Has reports whether the aid of kind is already loaded.
func (a StudyAids) Has(kind studyai.AidKind) bool {
	switch kind {
	case studyai.AidNotes:
		return a.Notes != ""
	case studyai.AidSummary:
		return a.Summary != ""
	case studyai.AidMnemonics:
		return a.Mnemonics != ""
	case studyai.AidStory:
		return a.Story != ""
	case studyai.AidQuiz:
		return len(a.Quiz) > 0
	}
	return false
}

// Text returns the Markdown of a text aid.
func (a StudyAids) Text(kind studyai.AidKind) string {
	switch kind {
	case studyai.AidNotes:
		return a.Notes
	case studyai.AidSummary:
		return a.Summary
	case studyai.AidMnemonics:
		return a.Mnemonics
	case studyai.AidStory:
		return a.Story
	}
	return ""
}

// with returns a copy with the aid of kind set, unless it is already loaded.
func (a StudyAids) with(kind studyai.AidKind, text string, quiz []studyai.QuizQuestion) StudyAids {
	if a.Has(kind) {
		return a
	}
	switch kind {
	case studyai.AidNotes:
		a.Notes = text
	case studyai.AidSummary:
		a.Summary = text
	case studyai.AidMnemonics:
		a.Mnemonics = text
	case studyai.AidStory:
		a.Story = text
	case studyai.AidQuiz:
		a.Quiz = quiz
	}
	return a
}

func (a StudyAids) clone() StudyAids {
	if a.Quiz == nil {
		return a
	}
	quiz := make([]studyai.QuizQuestion, len(a.Quiz))
	for i, q := range a.Quiz {
		q.Options = append([]string(nil), q.Options...)
		quiz[i] = q
	}
	a.Quiz = quiz
	return a
}

// state is one published version of a learner's session. Published values
// are never modified; every change builds a new state.
type state struct {
	stage    Stage
	identity gamification.Identity
	topics   []plan.SyllabusTopic
	plan     *plan.StudyPlan
	profile  gamification.Profile
	aids     map[string]StudyAids
	// epoch changes whenever the topics or the plan are replaced, so late
	// AI responses can tell they belong to an older quest.
	epoch uint64
}

func initialState(identity gamification.Identity, epoch uint64) state {
	return state{
		stage:    StageUploading,
		identity: identity,
		profile:  gamification.NewProfile(),
		aids:     map[string]StudyAids{},
		epoch:    epoch,
	}
}

// withAid returns a copy of s with aids for missionID replaced.
func (s state) withAid(missionID string, aids StudyAids) state {
	next := make(map[string]StudyAids, len(s.aids)+1)
	for id, a := range s.aids {
		next[id] = a
	}
	next[missionID] = aids
	s.aids = next
	return s
}

// Snapshot is a copy of a learner's session, safe to keep and modify.
type Snapshot struct {
	Stage    Stage                   `json:"stage"`
	Identity gamification.Identity   `json:"identity"`
	Topics   []plan.SyllabusTopic    `json:"topics"`
	Plan     *plan.StudyPlan         `json:"plan"`
	Profile  gamification.Profile    `json:"profile"`
	Progress gamification.XPProgress `json:"progress"`
	Stats    []plan.SubjectStats     `json:"stats,omitempty"`
	// LoadedAids lists, per mission, the aids that can be read without an AI call.
	LoadedAids map[string][]studyai.AidKind `json:"loaded_aids,omitempty"`
}

func (s state) snapshot() Snapshot {
	snap := Snapshot{
		Stage:    s.stage,
		Identity: s.identity,
		Topics:   cloneTopics(s.topics),
		Profile:  s.profile.Clone(),
		Progress: gamification.Progress(s.profile),
	}
	if s.plan != nil {
		p := s.plan.Clone()
		snap.Plan = &p
		snap.Stats = p.Stats()
	}
	for id, a := range s.aids {
		for _, k := range studyai.AidKinds {
			if !a.Has(k) {
				continue
			}
			if snap.LoadedAids == nil {
				snap.LoadedAids = map[string][]studyai.AidKind{}
			}
			snap.LoadedAids[id] = append(snap.LoadedAids[id], k)
		}
	}
	return snap
}

func cloneTopics(in []plan.SyllabusTopic) []plan.SyllabusTopic {
	if in == nil {
		return nil
	}
	out := make([]plan.SyllabusTopic, len(in))
	for i, st := range in {
		out[i] = plan.SyllabusTopic{Subject: st.Subject, Topics: append([]string(nil), st.Topics...)}
	}
	return out
}
