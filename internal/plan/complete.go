package plan

// Completion describes a mission that just moved to completed.
type Completion struct {
	MissionID string
	Subject   string
	Topic     string
	// SubjectFinished is true when no mission of Subject is left pending.
	SubjectFinished bool
}

// CompleteMission marks the mission with the given id completed.
//
// It returns ok=false and the plan unchanged when the id is unknown or the
// mission is already completed; callers must not emit a gamification event in
// that case. Otherwise the returned plan is a new value and p is not modified.
func CompleteMission(p StudyPlan, missionID string) (StudyPlan, Completion, bool) {
	di, mi, found := p.locate(missionID)
	if !found || p.Days[di].Missions[mi].Completed() {
		return p, Completion{}, false
	}

	next := p.Clone()
	m := &next.Days[di].Missions[mi]
	m.Status = StatusCompleted

	c := Completion{
		MissionID:       m.ID,
		Subject:         m.Subject,
		Topic:           m.Topic,
		SubjectFinished: next.subjectFinished(m.Subject),
	}
	return next, c, true
}

// Clone returns a deep copy.
func (p StudyPlan) Clone() StudyPlan {
	if p.Days == nil {
		return StudyPlan{}
	}
	days := make([]DailyPlan, len(p.Days))
	for i, d := range p.Days {
		missions := make([]Mission, len(d.Missions))
		copy(missions, d.Missions)
		days[i] = DailyPlan{Day: d.Day, Missions: missions}
	}
	return StudyPlan{Days: days}
}

// Mission looks a mission up by id.
func (p StudyPlan) Mission(id string) (Mission, bool) {
	di, mi, ok := p.locate(id)
	if !ok {
		return Mission{}, false
	}
	return p.Days[di].Missions[mi], true
}

// Empty reports whether the plan has no days.
func (p StudyPlan) Empty() bool {
	return len(p.Days) == 0
}

func (p StudyPlan) locate(id string) (int, int, bool) {
	if id == "" {
		return 0, 0, false
	}
	for di, d := range p.Days {
		for mi, m := range d.Missions {
			if m.ID == id {
				return di, mi, true
			}
		}
	}
	return 0, 0, false
}

func (p StudyPlan) subjectFinished(subject string) bool {
	for _, d := range p.Days {
		for _, m := range d.Missions {
			if m.Subject == subject && !m.Completed() {
				return false
			}
		}
	}
	return true
}

// SubjectStats counts missions of one subject.
type SubjectStats struct {
	Subject   string `json:"subject"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Stats summarises progress per subject, in order of first appearance.
func (p StudyPlan) Stats() []SubjectStats {
	index := make(map[string]int)
	var stats []SubjectStats
	for _, d := range p.Days {
		for _, m := range d.Missions {
			i, ok := index[m.Subject]
			if !ok {
				i = len(stats)
				index[m.Subject] = i
				stats = append(stats, SubjectStats{Subject: m.Subject})
			}
			stats[i].Total++
			if m.Completed() {
				stats[i].Completed++
			}
		}
	}
	return stats
}

// CompletedCount returns how many missions are completed.
func (p StudyPlan) CompletedCount() int {
	n := 0
	for _, d := range p.Days {
		for _, m := range d.Missions {
			if m.Completed() {
				n++
			}
		}
	}
	return n
}
