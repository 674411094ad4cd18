package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tarunjit45/ExamGenius/internal/plan"
)

func builtPlan(t *testing.T) plan.StudyPlan {
	t.Helper()
	draft := plan.Draft{Days: []plan.DraftDay{
		{Day: 1, Missions: []plan.DraftMission{{Subject: "Physics", Topic: "Kinematics"}, {Subject: "Chemistry", Topic: "Bonding"}}},
		{Day: 2, Missions: []plan.DraftMission{{Subject: "Physics", Topic: "Optics"}}},
	}}
	p, err := plan.Build(sampleTopics(), 2, plan.PaceNormal, draft, seqIDs())
	require.NoError(t, err)
	return p
}

func TestCompleteMission_MarksCompletedWithoutMutatingInput(t *testing.T) {
	p := builtPlan(t)

	next, c, ok := plan.CompleteMission(p, "m-1")
	require.True(t, ok)

	assert.Equal(t, "m-1", c.MissionID)
	assert.Equal(t, "Physics", c.Subject)
	assert.Equal(t, "Kinematics", c.Topic)
	assert.False(t, c.SubjectFinished)

	m, found := next.Mission("m-1")
	require.True(t, found)
	assert.True(t, m.Completed())

	orig, _ := p.Mission("m-1")
	assert.False(t, orig.Completed(), "input plan must not change")
}

func TestCompleteMission_Idempotent(t *testing.T) {
	p := builtPlan(t)

	once, _, ok := plan.CompleteMission(p, "m-2")
	require.True(t, ok)

	twice, c, ok := plan.CompleteMission(once, "m-2")
	assert.False(t, ok)
	assert.Equal(t, plan.Completion{}, c)
	assert.Equal(t, once, twice)
}

func TestCompleteMission_UnknownID(t *testing.T) {
	p := builtPlan(t)

	for _, id := range []string{"", "nope"} {
		got, _, ok := plan.CompleteMission(p, id)
		assert.False(t, ok)
		assert.Equal(t, p, got)
	}
}

func TestCompleteMission_SubjectFinished(t *testing.T) {
	p := builtPlan(t)

	// Chemistry has a single mission.
	_, c, ok := plan.CompleteMission(p, "m-2")
	require.True(t, ok)
	assert.True(t, c.SubjectFinished)

	p, c, _ = plan.CompleteMission(p, "m-1")
	assert.False(t, c.SubjectFinished)
	_, c, _ = plan.CompleteMission(p, "m-3")
	assert.True(t, c.SubjectFinished)
}

func TestStudyPlan_Stats(t *testing.T) {
	p := builtPlan(t)
	p, _, _ = plan.CompleteMission(p, "m-3")

	assert.Equal(t, []plan.SubjectStats{
		{Subject: "Physics", Total: 2, Completed: 1},
		{Subject: "Chemistry", Total: 1, Completed: 0},
	}, p.Stats())
	assert.Equal(t, 1, p.CompletedCount())
}

func TestStudyPlan_CloneIsDeep(t *testing.T) {
	p := builtPlan(t)
	c := p.Clone()
	c.Days[0].Missions[0].Topic = "changed"

	assert.Equal(t, "Kinematics", p.Days[0].Missions[0].Topic)
	assert.True(t, plan.StudyPlan{}.Empty())
	assert.False(t, p.Empty())
}
