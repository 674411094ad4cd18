package quest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Tarunjit45/ExamGenius/internal/platform/database"
	"github.com/Tarunjit45/ExamGenius/internal/quest"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := quest.NewMemoryEventLogger()

	err := logger.LogEvent(t.Context(), quest.Event{
		IdentityID: "learner-1",
		EventType:  quest.EventMissionCompleted,
		Data:       map[string]any{"score": 3},
	})
	require.NoError(t, err)

	events := logger.Events()
	require.Len(t, events, 1)
	assert.Equal(t, quest.EventMissionCompleted, events[0].EventType)
	assert.False(t, events[0].CreatedAt.IsZero(), "CreatedAt should be set")
	assert.Equal(t, []string{quest.EventMissionCompleted}, logger.Types())
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := quest.NewMemoryEventLogger()
	assert.Error(t, logger.LogEvent(t.Context(), quest.Event{IdentityID: "learner-1"}))
	assert.Empty(t, logger.Events())
}

func TestPostgresEventLogger_NilPool(t *testing.T) {
	logger := quest.NewPostgresEventLogger(nil)
	err := logger.LogEvent(t.Context(), quest.Event{IdentityID: "learner-1", EventType: quest.EventPlanStarted})
	assert.Error(t, err)
}

func TestPostgresEventLogger_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("quest"),
		postgres.WithUsername("quest"),
		postgres.WithPassword("quest"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.New(ctx, dsn, database.WithPoolSize(4, 1))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))

	logger := quest.NewPostgresEventLogger(db.Pool)
	require.NoError(t, logger.LogEvent(ctx, quest.Event{
		IdentityID: "learner-1",
		EventType:  quest.EventBadgeEarned,
		Data:       map[string]any{"kind": "first_step"},
	}))
	assert.Error(t, logger.LogEvent(ctx, quest.Event{EventType: quest.EventBadgeEarned}))

	var (
		eventType string
		kind      string
	)
	err = db.Pool.QueryRow(ctx,
		`SELECT event_type, data->>'kind' FROM quest_events WHERE identity_id = $1`,
		"learner-1",
	).Scan(&eventType, &kind)
	require.NoError(t, err)
	assert.Equal(t, quest.EventBadgeEarned, eventType)
	assert.Equal(t, "first_step", kind)
}
