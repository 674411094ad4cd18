package curriculum

import "github.com/Tarunjit45/ExamGenius/internal/plan"

// Syllabus is a pre-extracted syllabus a learner can start a quest from
// without uploading a document.
type Syllabus struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Board       string    `yaml:"board" json:"board,omitempty"`
	Level       string    `yaml:"level" json:"level,omitempty"`
	Description string    `yaml:"-" json:"description,omitempty"`
	Subjects    []Subject `yaml:"subjects" json:"subjects"`
}

// Subject is a subject within a syllabus and its topics in teaching order.
type Subject struct {
	Name   string   `yaml:"name" json:"name"`
	Topics []string `yaml:"topics" json:"topics"`
}

// Topics converts the syllabus into the form the planner consumes.
func (s Syllabus) Topics() []plan.SyllabusTopic {
	topics := make([]plan.SyllabusTopic, len(s.Subjects))
	for i, subj := range s.Subjects {
		topics[i] = plan.SyllabusTopic{
			Subject: subj.Name,
			Topics:  append([]string(nil), subj.Topics...),
		}
	}
	return topics
}

// TopicCount returns the number of topics across all subjects.
func (s Syllabus) TopicCount() int {
	n := 0
	for _, subj := range s.Subjects {
		n += len(subj.Topics)
	}
	return n
}
