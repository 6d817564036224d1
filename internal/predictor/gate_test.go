package predictor

import (
	"context"
	"errors"
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/testutil"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const disclosureTTL = 25 * 24 * time.Hour

var gateStart = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func validDetails() models.ContactDetails {
	return models.ContactDetails{
		FirstName:    "Aarav",
		EmailId:      "aarav@example.com",
		MobileNumber: "9876543210",
		HomeState:    "Maharashtra",
		City:         "Pune",
	}
}

func newTestGate(store models.ClientStoreInterface, clock *testutil.Clock) (*DisclosureGate, *testutil.MockMetrics) {
	metrics := &testutil.MockMetrics{}
	return NewDisclosureGate("v1", store, disclosureTTL, clock.Now, metrics, &testutil.MockLogger{}), metrics
}

func acceptAll(_ context.Context, _ models.ContactDetails) error { return nil }

func storeRecord(t *testing.T, store models.ClientStoreInterface, record *models.ContactDisclosureRecord) {
	t.Helper()
	data, err := json.Marshal(record)
	require.NoError(t, err)
	store.Set(models.VisitorKey("v1", contactKey), data)
}

func TestGate_StartsLocked(t *testing.T) {
	gate, _ := newTestGate(models.NewClientStore(), testutil.NewClock(gateStart))
	assert.Equal(t, Locked, gate.Check())
}

func TestGate_RequestFullOpensContactForm(t *testing.T) {
	gate, metrics := newTestGate(models.NewClientStore(), testutil.NewClock(gateStart))

	assert.Equal(t, PendingSubmission, gate.RequestFull())
	assert.Equal(t, PendingSubmission, gate.Check())
	assert.Equal(t, []string{"locked->pending_submission"}, metrics.GateTransitions)
}

func TestGate_CancelClosesContactForm(t *testing.T) {
	gate, _ := newTestGate(models.NewClientStore(), testutil.NewClock(gateStart))
	gate.RequestFull()

	assert.Equal(t, Locked, gate.Cancel())
}

func TestGate_SubmitUnlocksAndPersists(t *testing.T) {
	store := models.NewClientStore()
	clock := testutil.NewClock(gateStart)
	gate, metrics := newTestGate(store, clock)
	gate.RequestFull()

	state, err := gate.Submit(context.Background(), validDetails(), acceptAll)
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)

	record, ok := gate.Record()
	require.True(t, ok)
	assert.Equal(t, "Aarav", record.FirstName)
	assert.Equal(t, gateStart, record.SubmittedAt)
	assert.Equal(t, gateStart.Add(disclosureTTL), record.ExpiresAt)
	assert.Contains(t, metrics.GateTransitions, "pending_submission->unlocked")

	// A fresh gate for the same visitor sees the persisted record.
	again, _ := newTestGate(store, clock)
	assert.Equal(t, Unlocked, again.Check())
}

func TestGate_SubmitValidationErrorKeepsFormOpen(t *testing.T) {
	gate, _ := newTestGate(models.NewClientStore(), testutil.NewClock(gateStart))
	gate.RequestFull()
	called := false

	details := validDetails()
	details.EmailId = "not-an-email"
	details.MobileNumber = "12"
	state, err := gate.Submit(context.Background(), details, func(context.Context, models.ContactDetails) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called, "invalid details must not reach the backend")
	assert.Equal(t, PendingSubmission, state)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CategoryValidation, e.Category)
	assert.Contains(t, e.Fields, "emailId")
	assert.Contains(t, e.Fields, "mobileNumber")
}

func TestGate_SubmitBackendRejectionKeepsFormOpen(t *testing.T) {
	store := models.NewClientStore()
	gate, _ := newTestGate(store, testutil.NewClock(gateStart))
	gate.RequestFull()
	rejected := apperr.Upstream(400, "mobile number already registered")

	state, err := gate.Submit(context.Background(), validDetails(), func(context.Context, models.ContactDetails) error {
		return rejected
	})

	assert.True(t, errors.Is(err, rejected))
	assert.Equal(t, PendingSubmission, state)
	assert.Equal(t, 0, store.Len())
}

func TestGate_SubmitFromLockedPassesThroughPending(t *testing.T) {
	gate, metrics := newTestGate(models.NewClientStore(), testutil.NewClock(gateStart))

	state, err := gate.Submit(context.Background(), validDetails(), acceptAll)
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)
	assert.Equal(t, []string{"locked->pending_submission", "pending_submission->unlocked"}, metrics.GateTransitions)
}

func TestGate_ExpiredRecordIsPurgedOnCheck(t *testing.T) {
	store := models.NewClientStore()
	clock := testutil.NewClock(gateStart)
	gate, _ := newTestGate(store, clock)

	record := models.NewContactDisclosureRecord(validDetails(), gateStart.Add(-disclosureTTL).Add(-time.Second), disclosureTTL)
	storeRecord(t, store, record)

	assert.Equal(t, Locked, gate.Check())
	_, ok := store.Get(models.VisitorKey("v1", contactKey))
	assert.False(t, ok, "expired record must be deleted at detection")
}

func TestGate_UnlockedRelocksWhenTTLElapses(t *testing.T) {
	store := models.NewClientStore()
	clock := testutil.NewClock(gateStart)
	gate, _ := newTestGate(store, clock)
	_, err := gate.Submit(context.Background(), validDetails(), acceptAll)
	require.NoError(t, err)

	clock.Advance(disclosureTTL)
	assert.Equal(t, Unlocked, gate.Check(), "the expiry instant itself is still valid")

	clock.Advance(time.Second)
	assert.Equal(t, Locked, gate.Check())
	assert.Equal(t, 0, store.Len())
}

func TestGate_UnreadableRecordIsPurged(t *testing.T) {
	store := models.NewClientStore()
	store.Set(models.VisitorKey("v1", contactKey), []byte("{broken"))
	gate, _ := newTestGate(store, testutil.NewClock(gateStart))

	assert.Equal(t, Locked, gate.Check())
	assert.Equal(t, 0, store.Len())
}

func TestGate_Clear(t *testing.T) {
	store := models.NewClientStore()
	gate, _ := newTestGate(store, testutil.NewClock(gateStart))
	_, err := gate.Submit(context.Background(), validDetails(), acceptAll)
	require.NoError(t, err)

	gate.Clear()

	assert.Equal(t, Locked, gate.Check())
	assert.Equal(t, 0, store.Len())
}

func TestGate_Property_UnlockedIffRecordUnexpired(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("unlocked iff now <= expiresAt, expired records purged", prop.ForAll(
		func(hasRecord bool, offsetSeconds int64) bool {
			store := models.NewClientStore()
			clock := testutil.NewClock(gateStart)
			gate, _ := newTestGate(store, clock)

			expiresAt := gateStart.Add(time.Duration(offsetSeconds) * time.Second)
			if hasRecord {
				record := &models.ContactDisclosureRecord{
					ContactDetails: validDetails(),
					SubmittedAt:    expiresAt.Add(-disclosureTTL),
					ExpiresAt:      expiresAt,
				}
				data, _ := json.Marshal(record)
				store.Set(models.VisitorKey("v1", contactKey), data)
			}

			state := gate.Check()
			valid := hasRecord && !gateStart.After(expiresAt)
			if valid != (state == Unlocked) {
				return false
			}
			_, stored := store.Get(models.VisitorKey("v1", contactKey))
			return stored == valid
		},
		gen.Bool(),
		gen.Int64Range(-3*24*3600, 3*24*3600),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
