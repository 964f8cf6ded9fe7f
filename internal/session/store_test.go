package session

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealfolio/server/internal/models"
	"dealfolio/server/internal/rents"
)

func floatPtr(v float64) *float64 { return &v }

func testProperty() models.Property {
	return models.Property{
		ID:         1,
		PostalCode: "02108",
		ListPrice:  500000,
		Units:      4,
		UnitMix:    models.UnitMix{{Bedrooms: 2, Units: 4}},
	}
}

func testResolver() *rents.Resolver {
	return rents.NewResolver(rents.Table{
		"02108": {2: {Below: 1800, Avg: 2000, Agg: 2400}},
	})
}

func newTestStore(opts Options) *Store {
	logger := logrus.New()
	return NewStore(testProperty(), testResolver(), rents.ModeAvg, opts, logger)
}

func TestNewStore_SeedsBaselineSnapshot(t *testing.T) {
	s := newTestStore(Options{})

	snap := s.Current()
	assert.Equal(t, 8000.0, snap.Result.MonthlyGrossIncome)
	assert.Equal(t, 1, s.HistoryLen())
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
}

func TestStore_UndoRedoRoundTrip(t *testing.T) {
	s := newTestStore(Options{})
	before := s.Current()

	after := s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(450000)})
	require.NotEqual(t, before.Result.CapRateAtAsk, after.Result.CapRateAtAsk)

	// Undo returns the exact pre-edit snapshot
	undone := s.Undo()
	assert.Equal(t, before, undone)

	// Redo returns the exact post-edit snapshot
	redone := s.Redo()
	assert.Equal(t, after, redone)
}

func TestStore_UndoAtOldestIsNoOp(t *testing.T) {
	s := newTestStore(Options{})
	baseline := s.Current()

	assert.Equal(t, baseline, s.Undo())
	assert.Equal(t, baseline, s.Undo())
}

func TestStore_RedoAtNewestIsNoOp(t *testing.T) {
	s := newTestStore(Options{})
	snap := s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(450000)})

	assert.Equal(t, snap, s.Redo())
}

func TestStore_EditDiscardsRedoTail(t *testing.T) {
	s := newTestStore(Options{})
	s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(450000)})
	s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(425000)})
	s.Undo()

	// A new edit from the middle of history drops the tail
	snap := s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(475000)})
	assert.False(t, s.CanRedo())
	assert.Equal(t, snap, s.Redo())
	assert.Equal(t, 475000.0, *s.Current().Overrides.OfferPrice)
}

func TestStore_HistoryIsBounded(t *testing.T) {
	s := newTestStore(Options{MaxHistory: 3})

	for i := 0; i < 10; i++ {
		s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(400000 + float64(i)*1000)})
	}

	assert.Equal(t, 3, s.HistoryLen())
	assert.Equal(t, 409000.0, *s.Current().Overrides.OfferPrice)

	// Oldest snapshots were evicted; undo bottoms out at the survivor
	s.Undo()
	s.Undo()
	s.Undo()
	s.Undo()
	assert.False(t, s.CanUndo())
	assert.Equal(t, 407000.0, *s.Current().Overrides.OfferPrice)
}

func TestStore_StageCoalescesRapidEdits(t *testing.T) {
	s := newTestStore(Options{Debounce: 20 * time.Millisecond})

	// Simulates a user typing digits into the offer-price field
	s.Stage(models.PropertyOverrides{OfferPrice: floatPtr(4)})
	s.Stage(models.PropertyOverrides{OfferPrice: floatPtr(45)})
	s.Stage(models.PropertyOverrides{OfferPrice: floatPtr(450000)})

	time.Sleep(100 * time.Millisecond)

	// One snapshot for the whole burst, holding the last value
	assert.Equal(t, 2, s.HistoryLen())
	assert.Equal(t, 450000.0, *s.Current().Overrides.OfferPrice)
}

func TestStore_PeekDoesNotCommitStagedEdit(t *testing.T) {
	s := newTestStore(Options{Debounce: time.Minute})
	baseline := s.Current()

	s.Stage(models.PropertyOverrides{OfferPrice: floatPtr(450000)})

	assert.Equal(t, baseline, s.Peek())
	assert.Equal(t, 1, s.HistoryLen())
}

func TestStore_UndoFlushesStagedEdit(t *testing.T) {
	s := newTestStore(Options{Debounce: time.Minute})
	baseline := s.Current()

	s.Stage(models.PropertyOverrides{OfferPrice: floatPtr(450000)})

	// Undo commits the staged edit first, then steps back past it
	snap := s.Undo()
	assert.Equal(t, baseline, snap)
	assert.True(t, s.CanRedo())
	assert.Equal(t, 450000.0, *s.Redo().Overrides.OfferPrice)
}

func TestStore_ApplyDropsStagedEdit(t *testing.T) {
	s := newTestStore(Options{Debounce: 20 * time.Millisecond})

	s.Stage(models.PropertyOverrides{OfferPrice: floatPtr(111111)})
	s.Apply(models.PropertyOverrides{OfferPrice: floatPtr(450000)})

	time.Sleep(100 * time.Millisecond)

	// The staged edit never commits; only the applied one is in history
	assert.Equal(t, 2, s.HistoryLen())
	assert.Equal(t, 450000.0, *s.Current().Overrides.OfferPrice)
}

func TestStore_SnapshotsDoNotAliasCallerState(t *testing.T) {
	s := newTestStore(Options{})

	o := models.PropertyOverrides{
		OfferPrice: floatPtr(450000),
		UnitMix:    models.UnitMix{{Bedrooms: 2, Units: 4, Rent: 2100}},
	}
	snap := s.Apply(o)

	*o.OfferPrice = 1
	o.UnitMix[0].Rent = 1

	assert.Equal(t, 450000.0, *snap.Overrides.OfferPrice)
	assert.Equal(t, 2100.0, snap.Overrides.UnitMix[0].Rent)
}

func TestStore_RecomputesMetricsPerEdit(t *testing.T) {
	s := newTestStore(Options{})

	// Override rent beats the table during recomputation
	snap := s.Apply(models.PropertyOverrides{
		UnitMix: models.UnitMix{{Bedrooms: 2, Units: 4, Rent: 2500}},
	})
	assert.Equal(t, 10000.0, snap.Result.MonthlyGrossIncome)

	snap = s.Apply(models.PropertyOverrides{MonthlyRent: floatPtr(9000)})
	assert.Equal(t, 9000.0, snap.Result.MonthlyGrossIncome)
}

func TestManager_SessionLifecycle(t *testing.T) {
	logger := logrus.New()
	m := NewManager(Options{}, time.Hour, logger)

	id, store := m.Create(testProperty(), testResolver(), rents.ModeAvg)
	require.NotEmpty(t, id)
	require.NotNil(t, store)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, store, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	m.Delete(id)
	_, err = m.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	logger := logrus.New()
	m := NewManager(Options{}, 10*time.Millisecond, logger)

	id, _ := m.Create(testProperty(), testResolver(), rents.ModeAvg)
	time.Sleep(30 * time.Millisecond)
	m.sweep()

	_, err := m.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
