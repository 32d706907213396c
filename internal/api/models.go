// internal/api/models.go
package api

import "time"

// Patient is the patient block inside an analyzed prescription. The backend's
// analyzer emits capitalized keys, so the JSON tags follow that shape.
type Patient struct {
	Name string `json:"Name"`
	Age  *int   `json:"Age,omitempty"`
}

// Medicine is one prescribed medicine with its intake timings.
type Medicine struct {
	Medicine string   `json:"Medicine"`
	Type     string   `json:"Type"`
	Dosage   string   `json:"Dosage"`
	Timings  []string `json:"Timings"`
}

// Prescription is the structured result of a prescription image analysis.
// It is replaced wholesale on each successful upload, never patched.
type Prescription struct {
	Patient   Patient    `json:"Patient"`
	Date      string     `json:"Date"`
	Medicines []Medicine `json:"Medicines"`
	FilePath  string     `json:"file_path,omitempty"`
}

// MedicineCount returns the number of prescribed medicines.
func (p *Prescription) MedicineCount() int {
	return len(p.Medicines)
}

// DailyReminderCount is the sum of all medicine timings, i.e. how many
// reminders fire per day.
func (p *Prescription) DailyReminderCount() int {
	total := 0
	for _, m := range p.Medicines {
		total += len(m.Timings)
	}
	return total
}

// Preferences holds a patient's notification preferences. Edited field by
// field locally and pushed back in full on save.
type Preferences struct {
	NotificationSound     string `json:"notification_sound"`
	ReminderFrequency     string `json:"reminder_frequency"`
	VoiceEnabled          bool   `json:"voice_enabled"`
	PushNotifications     bool   `json:"push_notifications"`
	EmailNotifications    bool   `json:"email_notifications"`
	SMSNotifications      bool   `json:"sms_notifications"`
	WhatsappNotifications bool   `json:"whatsapp_notifications"`
	Email                 string `json:"email" validate:"omitempty,email"`
	Phone                 string `json:"phone" validate:"omitempty,e164"`
	Whatsapp              string `json:"whatsapp" validate:"omitempty,e164"`
}

// DefaultPreferences mirrors the backend defaults for a new patient.
func DefaultPreferences() Preferences {
	return Preferences{
		NotificationSound: "default",
		ReminderFrequency: "daily",
		VoiceEnabled:      true,
		PushNotifications: true,
	}
}

// Profile is a patient's profile record.
type Profile struct {
	Name              string   `json:"name"`
	Age               *int     `json:"age,omitempty"`
	MedicalConditions []string `json:"medical_conditions"`
	Allergies         []string `json:"allergies"`
	EmergencyContact  string   `json:"emergency_contact"`
}

// Reminder statuses as reported by the scheduler.
const (
	ReminderStatusActive    = "active"
	ReminderStatusPaused    = "paused"
	ReminderStatusCompleted = "completed"
)

// Reminder is one scheduled medication reminder. Read-only from the client's
// perspective except for bulk deletion.
type Reminder struct {
	ReminderID   string `json:"reminder_id"`
	MedicineName string `json:"medicine_name"`
	MedicineType string `json:"medicine_type"`
	Dosage       string `json:"dosage"`
	Timing       string `json:"timing"`
	NextReminder string `json:"next_reminder"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

// nextReminderLayout matches the backend's scheduler timestamps, which carry
// no timezone offset.
const nextReminderLayout = "2006-01-02T15:04:05"

// NextReminderTime parses the next_reminder timestamp. Offset-bearing
// timestamps are accepted as a fallback.
func (r Reminder) NextReminderTime() (time.Time, error) {
	if t, err := time.Parse(nextReminderLayout, r.NextReminder); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, r.NextReminder)
}

// Countdown returns the duration until the next reminder fires, or zero when
// the timestamp is unparsable or already past.
func (r Reminder) Countdown(now time.Time) time.Duration {
	next, err := r.NextReminderTime()
	if err != nil {
		return 0
	}
	d := next.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Notification is a delivered notification record.
type Notification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// PatientSummary is one row of the global patient listing.
type PatientSummary struct {
	Name             string `json:"name"`
	Age              *int   `json:"age"`
	PrescriptionDate string `json:"prescription_date"`
	MedicinesCount   int    `json:"medicines_count"`
}

// SchedulerStatus reports the backend scheduler's state.
type SchedulerStatus struct {
	IsRunning             bool   `json:"is_running"`
	TotalJobs             int    `json:"total_jobs"`
	PatientsWithReminders int    `json:"patients_with_reminders"`
	Uptime                string `json:"uptime"`
}

// Voice is one available notification voice.
type Voice struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TestNotificationResult reports which channels a test notification went out
// on. An empty SentVia means no channel was configured.
type TestNotificationResult struct {
	Message string
	SentVia []string
}

// VoiceTestResult is the outcome of a voice system test.
type VoiceTestResult struct {
	Message     string
	TestMessage string
}

// HealthStatus is the backend liveness probe response. Note this endpoint
// does not use the status/data envelope.
type HealthStatus struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Services  map[string]bool `json:"services"`
}

// Healthy reports whether the probe answered with its "healthy" marker.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}
