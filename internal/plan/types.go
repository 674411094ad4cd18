// Package plan holds the study quest model: syllabus topics, day-by-day
// missions and the rules for building and completing them.
package plan

import (
	"fmt"
	"strings"
)

// Day horizon accepted by Build.
const (
	MinDays = 1
	MaxDays = 365
)

// MissionStatus is the completion state of a mission.
type MissionStatus string

const (
	StatusPending   MissionStatus = "pending"
	StatusCompleted MissionStatus = "completed"
)

// Pace controls how many missions the planner puts on each day.
type Pace string

const (
	PaceChill    Pace = "Chill"
	PaceNormal   Pace = "Normal"
	PaceSpeedrun Pace = "Speedrun"
)

// Paces lists the accepted paces in display order.
var Paces = []Pace{PaceChill, PaceNormal, PaceSpeedrun}

// ParsePace matches s case-insensitively against the known paces.
func ParsePace(s string) (Pace, error) {
	for _, p := range Paces {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "pace", Reason: fmt.Sprintf("unknown pace %q", s)}
}

// SyllabusTopic is one subject and its ordered topics as extracted from a syllabus.
type SyllabusTopic struct {
	Subject string   `json:"subject" yaml:"subject"`
	Topics  []string `json:"topics" yaml:"topics"`
}

// TopicRef is a single (subject, topic) pair.
type TopicRef struct {
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
}

// Mission is one topic scheduled on a day.
type Mission struct {
	ID      string        `json:"id"`
	Subject string        `json:"subject"`
	Topic   string        `json:"topic"`
	Status  MissionStatus `json:"status"`
}

// Completed reports whether the mission's quiz has been passed.
func (m Mission) Completed() bool {
	return m.Status == StatusCompleted
}

// DailyPlan is the set of missions for one day.
type DailyPlan struct {
	Day      int       `json:"day"`
	Missions []Mission `json:"missions"`
}

// StudyPlan is the whole quest.
type StudyPlan struct {
	Days []DailyPlan `json:"days"`
}

// Draft is the untrusted day/mission structure returned by the planner.
// A nil Missions slice means the field was absent.
type Draft struct {
	Days []DraftDay `json:"days"`
}

// DraftDay is one day of a Draft.
type DraftDay struct {
	Day      int            `json:"day"`
	Missions []DraftMission `json:"missions"`
}

// DraftMission is a mission without id or status.
type DraftMission struct {
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
}

// Flatten expands topics into (subject, topic) pairs in syllabus order.
func Flatten(topics []SyllabusTopic) []TopicRef {
	var refs []TopicRef
	for _, st := range topics {
		for _, t := range st.Topics {
			refs = append(refs, TopicRef{Subject: st.Subject, Topic: t})
		}
	}
	return refs
}
