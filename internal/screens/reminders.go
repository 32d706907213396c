// internal/screens/reminders.go
package screens

import (
	"context"
	"time"

	"medalert-client/internal/api"
	"medalert-client/internal/common/logger"
)

// ReminderAPI is the slice of the endpoint catalog the reminders screen uses.
type ReminderAPI interface {
	GetScheduledReminders(ctx context.Context, patient string) ([]api.Reminder, error)
	GetAllScheduledReminders(ctx context.Context) ([]api.Reminder, error)
	GetReminderHistory(ctx context.Context, patient string, days int) ([]api.Reminder, error)
	DeletePatientReminders(ctx context.Context, patient string) (string, error)
}

// ReminderSummary aggregates the loaded list by status.
type ReminderSummary struct {
	Total     int
	Active    int
	Paused    int
	Completed int
}

// RemindersController owns the reminders tab state. The list is replaced
// wholesale on every successful load; on a failed load it resets to empty.
// Clearing previously valid data on error is the product's current behavior,
// kept deliberately (see DESIGN.md).
type RemindersController struct {
	api    ReminderAPI
	logger logger.Logger

	patient   string
	reminders []api.Reminder
	lastErr   error
}

func NewReminders(a ReminderAPI, log logger.Logger) *RemindersController {
	return &RemindersController{
		api:    a,
		logger: log.WithFields(map[string]interface{}{"screen": "reminders"}),
	}
}

// SetPatient scopes subsequent loads to the given patient. The loaded list is
// kept until the next load runs.
func (c *RemindersController) SetPatient(name string) {
	c.patient = name
}

// Load fetches the patient's scheduled reminders.
func (c *RemindersController) Load(ctx context.Context) error {
	reminders, err := c.api.GetScheduledReminders(ctx, c.patient)
	if err != nil {
		c.reminders = nil
		c.lastErr = err
		c.logger.WithError(err).Warn("failed to load reminders", map[string]interface{}{"patient": c.patient})
		return err
	}
	c.reminders = reminders
	c.lastErr = nil
	return nil
}

// LoadAll fetches reminders across every patient.
func (c *RemindersController) LoadAll(ctx context.Context) error {
	reminders, err := c.api.GetAllScheduledReminders(ctx)
	if err != nil {
		c.reminders = nil
		c.lastErr = err
		return err
	}
	c.reminders = reminders
	c.lastErr = nil
	return nil
}

// History fetches the patient's reminder history for the past n days.
func (c *RemindersController) History(ctx context.Context, days int) ([]api.Reminder, error) {
	return c.api.GetReminderHistory(ctx, c.patient, days)
}

// DeleteAll removes every reminder for the patient and clears the local list
// on success.
func (c *RemindersController) DeleteAll(ctx context.Context) (string, error) {
	msg, err := c.api.DeletePatientReminders(ctx, c.patient)
	if err != nil {
		return "", err
	}
	c.reminders = nil
	c.lastErr = nil
	return msg, nil
}

// Reminders returns the loaded list.
func (c *RemindersController) Reminders() []api.Reminder {
	return c.reminders
}

// Err returns the last load error, nil after a successful load.
func (c *RemindersController) Err() error {
	return c.lastErr
}

// Summary counts the loaded reminders by status.
func (c *RemindersController) Summary() ReminderSummary {
	s := ReminderSummary{Total: len(c.reminders)}
	for _, r := range c.reminders {
		switch r.Status {
		case api.ReminderStatusActive:
			s.Active++
		case api.ReminderStatusPaused:
			s.Paused++
		case api.ReminderStatusCompleted:
			s.Completed++
		}
	}
	return s
}

// NextUp returns the reminder with the soonest upcoming fire time, or nil
// when nothing is scheduled ahead of now.
func (c *RemindersController) NextUp(now time.Time) *api.Reminder {
	var next *api.Reminder
	var nextAt time.Time
	for i := range c.reminders {
		at, err := c.reminders[i].NextReminderTime()
		if err != nil || !at.After(now) {
			continue
		}
		if next == nil || at.Before(nextAt) {
			next = &c.reminders[i]
			nextAt = at
		}
	}
	return next
}
