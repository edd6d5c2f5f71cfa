package store

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestAlertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	created, err := s.CreateAlert(PriceAlert{
		Symbol:      "AAPL",
		TargetPrice: decimal.NewFromFloat(185.50),
		Direction:   AlertBelow,
		Quantity:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Executed, "new alert must not start executed")

	// A fresh open must see the persisted alert.
	reopened := openTestStore(t, dir)
	alerts := reopened.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "AAPL", alerts[0].Symbol)
	assert.True(t, alerts[0].TargetPrice.Equal(decimal.NewFromFloat(185.50)))
	assert.Equal(t, AlertBelow, alerts[0].Direction)
}

func TestExecuteAlertFlipPersists(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	created, err := s.CreateAlert(PriceAlert{Symbol: "TSLA", TargetPrice: decimal.NewFromInt(300)})
	require.NoError(t, err)

	executed, err := s.ExecuteAlert(created.ID)
	require.NoError(t, err)
	assert.True(t, executed.Executed)

	// Executing again is idempotent.
	_, err = s.ExecuteAlert(created.ID)
	assert.NoError(t, err)

	reopened := openTestStore(t, dir)
	assert.True(t, reopened.Alerts()[0].Executed, "executed flag should survive a reopen")
}

func TestUpdateAlertKeepsCreatedAt(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	created, err := s.CreateAlert(PriceAlert{Symbol: "MSFT", TargetPrice: decimal.NewFromInt(400)})
	require.NoError(t, err)

	updated := created
	updated.TargetPrice = decimal.NewFromInt(420)
	updated.CreatedAt = time.Time{}
	require.NoError(t, s.UpdateAlert(updated))

	got := s.Alerts()[0]
	assert.True(t, got.TargetPrice.Equal(decimal.NewFromInt(420)))
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "update must not change the creation timestamp")
}

func TestDeleteAlert(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	created, err := s.CreateAlert(PriceAlert{Symbol: "NVDA"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAlert(created.ID))
	assert.Empty(t, s.Alerts())
	assert.ErrorIs(t, s.DeleteAlert(created.ID), ErrNotFound)
}

func TestUnknownIDsReturnNotFound(t *testing.T) {
	s := openTestStore(t, t.TempDir())

	_, err := s.ExecuteAlert("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateAlert(PriceAlert{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, s.UpdatePlan(SavingPlan{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, s.DeleteGoal("missing"), ErrNotFound)
}

func TestPlanAndGoalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	plan, err := s.CreatePlan(SavingPlan{
		Name:          "Emergency fund",
		MonthlyAmount: decimal.NewFromInt(500),
		TargetAmount:  decimal.NewFromInt(12000),
	})
	require.NoError(t, err)

	deadline := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	goal, err := s.CreateGoal(Goal{
		Name:         "House deposit",
		TargetAmount: decimal.NewFromInt(60000),
		Deadline:     deadline,
	})
	require.NoError(t, err)

	plan.SavedSoFar = decimal.NewFromInt(1500)
	require.NoError(t, s.UpdatePlan(plan))

	reopened := openTestStore(t, dir)
	plans, goals := reopened.Plans(), reopened.Goals()
	require.Len(t, plans, 1)
	require.Len(t, goals, 1)
	assert.True(t, plans[0].SavedSoFar.Equal(decimal.NewFromInt(1500)))
	assert.True(t, goals[0].Deadline.Equal(deadline))
	assert.Equal(t, goal.ID, goals[0].ID)
}

func TestMissingFilesMeanEmptyCollections(t *testing.T) {
	s := openTestStore(t, t.TempDir())
	assert.Empty(t, s.Alerts())
	assert.Empty(t, s.Plans())
	assert.Empty(t, s.Goals())
}
