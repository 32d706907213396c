// internal/screens/reminders_test.go
package screens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medalert-client/internal/api"
	apperrors "medalert-client/internal/common/errors"
	"medalert-client/internal/common/logger"
)

// fakeReminderAPI serves canned reminder lists and records calls.
type fakeReminderAPI struct {
	reminders  []api.Reminder
	err        error
	loadCalls  int
	deleteMsg  string
	deletedFor string
}

func (f *fakeReminderAPI) GetScheduledReminders(ctx context.Context, patient string) ([]api.Reminder, error) {
	f.loadCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reminders, nil
}

func (f *fakeReminderAPI) GetAllScheduledReminders(ctx context.Context) ([]api.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reminders, nil
}

func (f *fakeReminderAPI) GetReminderHistory(ctx context.Context, patient string, days int) ([]api.Reminder, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reminders, nil
}

func (f *fakeReminderAPI) DeletePatientReminders(ctx context.Context, patient string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.deletedFor = patient
	return f.deleteMsg, nil
}

// schedulerTimestamp renders a time the way the backend scheduler does:
// isoformat with seconds and no timezone offset.
func schedulerTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

func sampleReminders() []api.Reminder {
	return []api.Reminder{
		{ReminderID: "r1", MedicineName: "Aspirin", Timing: "08:00", Status: api.ReminderStatusActive,
			NextReminder: schedulerTimestamp(time.Now().Add(30 * time.Minute))},
		{ReminderID: "r2", MedicineName: "Aspirin", Timing: "20:00", Status: api.ReminderStatusActive,
			NextReminder: schedulerTimestamp(time.Now().Add(12 * time.Hour))},
		{ReminderID: "r3", MedicineName: "Metformin", Timing: "13:00", Status: api.ReminderStatusPaused},
		{ReminderID: "r4", MedicineName: "Old Med", Timing: "09:00", Status: api.ReminderStatusCompleted},
	}
}

func TestRemindersLoad_IdempotentWithoutMutation(t *testing.T) {
	fake := &fakeReminderAPI{reminders: sampleReminders()}
	c := NewReminders(fake, logger.NewTestLogger(t))
	c.SetPatient("Jane Doe")

	require.NoError(t, c.Load(context.Background()))
	first := c.Reminders()
	firstSummary := c.Summary()

	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, first, c.Reminders())
	assert.Equal(t, firstSummary, c.Summary())
	assert.Equal(t, 2, fake.loadCalls)
}

func TestRemindersSummary_CountsByStatus(t *testing.T) {
	fake := &fakeReminderAPI{reminders: sampleReminders()}
	c := NewReminders(fake, logger.NewTestLogger(t))
	c.SetPatient("Jane Doe")
	require.NoError(t, c.Load(context.Background()))

	s := c.Summary()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 1, s.Paused)
	assert.Equal(t, 1, s.Completed)
}

func TestRemindersLoad_TransportFailureClearsList(t *testing.T) {
	fake := &fakeReminderAPI{reminders: sampleReminders()}
	c := NewReminders(fake, logger.NewTestLogger(t))
	c.SetPatient("Jane Doe")
	require.NoError(t, c.Load(context.Background()))
	require.Len(t, c.Reminders(), 4)

	// Current product behavior: a failed load discards the previously
	// valid list rather than keeping it.
	fake.err = apperrors.NewTransportError(assertErr{})
	err := c.Load(context.Background())
	require.Error(t, err)

	assert.Empty(t, c.Reminders())
	assert.Error(t, c.Err())
	assert.Equal(t, apperrors.KindTransport, apperrors.KindOf(c.Err()))
	assert.Equal(t, "Cannot connect to the backend. Please make sure the server is running.",
		apperrors.UserMessage(c.Err()))
}

type assertErr struct{}

func (assertErr) Error() string { return "connection refused" }

func TestRemindersNextUp(t *testing.T) {
	// Fixtures carry no offset and parse as UTC, so compare in UTC.
	now := time.Now().UTC()
	fake := &fakeReminderAPI{reminders: sampleReminders()}
	c := NewReminders(fake, logger.NewTestLogger(t))
	c.SetPatient("Jane Doe")
	require.NoError(t, c.Load(context.Background()))

	next := c.NextUp(now)
	require.NotNil(t, next)
	assert.Equal(t, "r1", next.ReminderID)

	countdown := next.Countdown(now)
	assert.Greater(t, countdown, 29*time.Minute)
	assert.LessOrEqual(t, countdown, 30*time.Minute)
}

func TestRemindersNextUp_EmptyList(t *testing.T) {
	c := NewReminders(&fakeReminderAPI{}, logger.NewTestLogger(t))
	assert.Nil(t, c.NextUp(time.Now()))
}

func TestRemindersDeleteAll(t *testing.T) {
	fake := &fakeReminderAPI{reminders: sampleReminders(), deleteMsg: "All reminders removed for Jane Doe"}
	c := NewReminders(fake, logger.NewTestLogger(t))
	c.SetPatient("Jane Doe")
	require.NoError(t, c.Load(context.Background()))

	msg, err := c.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "All reminders removed for Jane Doe", msg)
	assert.Equal(t, "Jane Doe", fake.deletedFor)
	assert.Empty(t, c.Reminders())
}

func TestRemindersDeleteAll_FailureKeepsList(t *testing.T) {
	fake := &fakeReminderAPI{reminders: sampleReminders()}
	c := NewReminders(fake, logger.NewTestLogger(t))
	c.SetPatient("Jane Doe")
	require.NoError(t, c.Load(context.Background()))

	fake.err = apperrors.NewHTTPError(500, "boom")
	_, err := c.DeleteAll(context.Background())
	require.Error(t, err)
	assert.Len(t, c.Reminders(), 4, "failed delete must not alter displayed state")
}
