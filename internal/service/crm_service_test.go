package service

import (
	"context"
	"testing"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRMService_CreateBusiness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.crm.CreateBusiness(ctx, &BusinessRequest{
		Name:  "Corner Cafe",
		Email: "hello@corner.cafe",
		Tags:  []string{" wholesale ", "wholesale", "lisbon"},
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, model.StageLead, b.Stage)
	assert.Equal(t, model.SourceManual, b.Source)
	assert.Equal(t, []string{"wholesale", "lisbon"}, b.Tags)

	_, err = f.crm.CreateBusiness(ctx, &BusinessRequest{Name: "Bad", Stage: "won"}, testActor)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.crm.CreateBusiness(ctx, &BusinessRequest{}, testActor)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCRMService_UpdateStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.crm.CreateBusiness(ctx, &BusinessRequest{Name: "Corner Cafe"}, testActor)
	require.NoError(t, err)

	t.Run("a real change logs a status_change activity", func(t *testing.T) {
		updated, err := f.crm.UpdateStage(ctx, b.ID, model.StageNegotiating, testActor)
		require.NoError(t, err)
		assert.Equal(t, model.StageNegotiating, updated.Stage)

		activities, err := f.crm.ListActivities(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, activities, 1)
		assert.Equal(t, model.ActivityStatusChange, activities[0].Type)
		assert.Equal(t, string(model.StageLead), activities[0].FromStage)
		assert.Equal(t, string(model.StageNegotiating), activities[0].ToStage)
	})

	t.Run("any stage can jump to any other", func(t *testing.T) {
		updated, err := f.crm.UpdateStage(ctx, b.ID, model.StageLead, testActor)
		require.NoError(t, err)
		assert.Equal(t, model.StageLead, updated.Stage)
	})

	t.Run("same stage writes nothing", func(t *testing.T) {
		before, err := f.crm.ListActivities(ctx, b.ID)
		require.NoError(t, err)

		_, err = f.crm.UpdateStage(ctx, b.ID, model.StageLead, testActor)
		require.NoError(t, err)

		after, err := f.crm.ListActivities(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("unknown stage and business", func(t *testing.T) {
		_, err := f.crm.UpdateStage(ctx, b.ID, "won", testActor)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.crm.UpdateStage(ctx, uuid.New(), model.StageContacted, testActor)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCRMService_Activities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.crm.CreateBusiness(ctx, &BusinessRequest{Name: "Corner Cafe"}, testActor)
	require.NoError(t, err)

	a, err := f.crm.AddActivity(ctx, b.ID, &ActivityRequest{Type: model.ActivityCall, Content: "  Left a voicemail "}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Left a voicemail", a.Content)

	_, err = f.crm.AddActivity(ctx, b.ID, &ActivityRequest{Type: model.ActivityStatusChange, Content: "sneaky"}, testActor)
	assert.ErrorIs(t, err, ErrValidation, "status_change is system-only")

	_, err = f.crm.AddActivity(ctx, uuid.New(), &ActivityRequest{Type: model.ActivityNote, Content: "x"}, testActor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCRMService_ListBusinesses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.crm.CreateBusiness(ctx, &BusinessRequest{Name: "Corner Cafe", Tags: []string{"wholesale"}}, testActor)
	require.NoError(t, err)
	_, err = f.crm.CreateBusiness(ctx, &BusinessRequest{Name: "Hotel Alfama", Stage: model.StageContacted, Source: model.SourceReferral}, testActor)
	require.NoError(t, err)

	all, err := f.crm.ListBusinesses(ctx, repository.BusinessFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	contacted := model.StageContacted
	byStage, err := f.crm.ListBusinesses(ctx, repository.BusinessFilter{Stage: &contacted})
	require.NoError(t, err)
	require.Len(t, byStage, 1)
	assert.Equal(t, "Hotel Alfama", byStage[0].Name)

	byTag, err := f.crm.ListBusinesses(ctx, repository.BusinessFilter{Tag: "wholesale"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Corner Cafe", byTag[0].Name)

	bySearch, err := f.crm.ListBusinesses(ctx, repository.BusinessFilter{Search: "Alfama"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 1)
}

func TestCRMService_Agents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.crm.CreateBusiness(ctx, &BusinessRequest{Name: "Corner Cafe"}, testActor)
	require.NoError(t, err)
	rita, err := f.crm.CreateAgent(ctx, &AgentRequest{Name: "Rita", Email: "Rita@Roastery.test"}, testActor)
	require.NoError(t, err)
	assert.True(t, rita.IsActive)
	assert.Equal(t, "rita@roastery.test", rita.Email)

	inactive := false
	bruno, err := f.crm.CreateAgent(ctx, &AgentRequest{Name: "Bruno", Email: "bruno@roastery.test", IsActive: &inactive}, testActor)
	require.NoError(t, err)
	assert.False(t, bruno.IsActive)

	_, err = f.crm.CreateAgent(ctx, &AgentRequest{Name: "Rita 2", Email: "rita@roastery.test"}, testActor)
	assert.ErrorIs(t, err, ErrConflict)

	agents, err := f.crm.AssignAgent(ctx, b.ID, rita.ID)
	require.NoError(t, err)
	require.Len(t, agents, 1)

	agents, err = f.crm.AssignAgent(ctx, b.ID, rita.ID)
	require.NoError(t, err)
	assert.Len(t, agents, 1, "assigning twice keeps one link")

	_, err = f.crm.AssignAgent(ctx, b.ID, bruno.ID)
	assert.ErrorIs(t, err, ErrValidation)

	active, err := f.crm.ListAgents(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	agents, err = f.crm.UnassignAgent(ctx, b.ID, rita.ID)
	require.NoError(t, err)
	assert.Empty(t, agents)
}
