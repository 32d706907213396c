// internal/api/endpoints.go
//
// The fixed catalog of backend operations. Each operation is a thin
// composition of path template, method and body shape over the client, and
// collapses the HTTP status and the embedded envelope status into a single
// (value, error) result. No operation retries, paginates or caches.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "medalert-client/internal/common/errors"
)

func patientPath(name, suffix string) string {
	return "/patients/" + url.PathEscape(name) + suffix
}

// ==========================
// Analysis
// ==========================

// AnalyzePrescription uploads a prescription image for analysis. The backend
// replies with the envelope shape even on error status for this endpoint, so
// the raw body is parsed first and both failure signals are collapsed here.
func (c *Client) AnalyzePrescription(ctx context.Context, filename string, image io.Reader) (*Prescription, error) {
	body, status, err := c.upload(ctx, "analyze-prescription", "/analyze-prescription", filename, image, true)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "backend returned a malformed response")
	}

	if env.Status != "success" {
		if status >= 400 {
			return nil, apperrors.NewHTTPError(status, env.Message)
		}
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeAnalysisFailed, env.Message)
	}

	if err := validatePrescriptionPayload(env.Data); err != nil {
		return nil, err
	}

	var p Prescription
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "analysis result could not be decoded")
	}
	return &p, nil
}

// AnalyzeDiagnostic uploads a diagnostic image. Unlike the prescription
// endpoint this one uses the normalized error path.
func (c *Client) AnalyzeDiagnostic(ctx context.Context, filename string, image io.Reader) (map[string]interface{}, error) {
	body, _, err := c.upload(ctx, "analyze-diagnostic", "/analyze-diagnostic", filename, image, false)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "backend returned a malformed response")
	}
	if env.Status != "success" {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeAnalysisFailed, env.Message)
	}

	var result map[string]interface{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &result); err != nil {
			return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "analysis result could not be decoded")
		}
	}
	return result, nil
}

// ==========================
// System
// ==========================

// Health probes backend liveness. The response does not use the envelope.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	body, _, err := c.request(ctx, "health", "/health", requestOptions{})
	if err != nil {
		return nil, err
	}
	var hs HealthStatus
	if err := json.Unmarshal(body, &hs); err != nil {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "health response could not be decoded")
	}
	return &hs, nil
}

func (c *Client) GetSchedulerStatus(ctx context.Context) (*SchedulerStatus, error) {
	var status SchedulerStatus
	if _, err := c.call(ctx, "scheduler-status", "/scheduler/status", requestOptions{}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ==========================
// Patients
// ==========================

func (c *Client) ListPatients(ctx context.Context) ([]PatientSummary, error) {
	var patients []PatientSummary
	if _, err := c.call(ctx, "list-patients", "/patients", requestOptions{}, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

func (c *Client) GetPreferences(ctx context.Context, patient string) (*Preferences, error) {
	var prefs Preferences
	if _, err := c.call(ctx, "get-preferences", patientPath(patient, "/preferences"), requestOptions{}, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences pushes the full preferences record; there is no partial
// update. Returns the backend's confirmation message.
func (c *Client) UpdatePreferences(ctx context.Context, patient string, prefs Preferences) (string, error) {
	env, err := c.call(ctx, "update-preferences", patientPath(patient, "/preferences"), requestOptions{
		method: http.MethodPost,
		body:   prefs,
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) GetProfile(ctx context.Context, patient string) (*Profile, error) {
	var profile Profile
	if _, err := c.call(ctx, "get-profile", patientPath(patient, "/profile"), requestOptions{}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, patient string, profile Profile) (string, error) {
	env, err := c.call(ctx, "update-profile", patientPath(patient, "/profile"), requestOptions{
		method: http.MethodPut,
		body:   profile,
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ==========================
// Reminders
// ==========================

func (c *Client) GetScheduledReminders(ctx context.Context, patient string) ([]Reminder, error) {
	var reminders []Reminder
	if _, err := c.call(ctx, "scheduled-reminders", patientPath(patient, "/scheduled-reminders"), requestOptions{}, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (c *Client) GetAllScheduledReminders(ctx context.Context) ([]Reminder, error) {
	var reminders []Reminder
	if _, err := c.call(ctx, "all-scheduled-reminders", "/scheduled-reminders", requestOptions{}, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (c *Client) GetReminderHistory(ctx context.Context, patient string, days int) ([]Reminder, error) {
	path := fmt.Sprintf("%s?days=%d", patientPath(patient, "/history"), days)
	var history []Reminder
	if _, err := c.call(ctx, "reminder-history", path, requestOptions{}, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// DeletePatientReminders removes every scheduled reminder for the patient.
func (c *Client) DeletePatientReminders(ctx context.Context, patient string) (string, error) {
	env, err := c.call(ctx, "delete-reminders", patientPath(patient, "/reminders"), requestOptions{
		method: http.MethodDelete,
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ==========================
// Notifications
// ==========================

func (c *Client) SendTestNotification(ctx context.Context, patient string) (*TestNotificationResult, error) {
	env, err := c.call(ctx, "test-notification", patientPath(patient, "/test-notification"), requestOptions{
		method: http.MethodPost,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &TestNotificationResult{Message: env.Message, SentVia: env.SentVia}, nil
}

func (c *Client) GetNotifications(ctx context.Context, patient string, unreadOnly bool) ([]Notification, error) {
	path := fmt.Sprintf("%s?unread_only=%t", patientPath(patient, "/notifications"), unreadOnly)
	var notifications []Notification
	if _, err := c.call(ctx, "notifications", path, requestOptions{}, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, patient, notificationID string) (string, error) {
	path := patientPath(patient, "/notifications/"+url.PathEscape(notificationID)+"/read")
	env, err := c.call(ctx, "mark-notification-read", path, requestOptions{
		method: http.MethodPost,
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ==========================
// Device tokens
// ==========================

type deviceTokenBody struct {
	Token string `json:"token"`
}

func (c *Client) AddDeviceToken(ctx context.Context, patient, token string) (string, error) {
	env, err := c.call(ctx, "add-device-token", patientPath(patient, "/device-tokens"), requestOptions{
		method: http.MethodPost,
		body:   deviceTokenBody{Token: token},
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) RemoveDeviceToken(ctx context.Context, patient, token string) (string, error) {
	env, err := c.call(ctx, "remove-device-token", patientPath(patient, "/device-tokens"), requestOptions{
		method: http.MethodDelete,
		body:   deviceTokenBody{Token: token},
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ==========================
// Voice
// ==========================

func (c *Client) GetVoices(ctx context.Context) ([]Voice, error) {
	var voices []Voice
	if _, err := c.call(ctx, "voices", "/voices", requestOptions{}, &voices); err != nil {
		return nil, err
	}
	return voices, nil
}

type voiceSettingsBody struct {
	VoiceName string `json:"voice_name"`
}

func (c *Client) SetVoice(ctx context.Context, voiceName string) (string, error) {
	env, err := c.call(ctx, "set-voice", "/set-voice", requestOptions{
		method: http.MethodPost,
		body:   voiceSettingsBody{VoiceName: voiceName},
	}, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) TestVoice(ctx context.Context, patient string) (*VoiceTestResult, error) {
	path := "/test-voice?patient_name=" + url.QueryEscape(patient)
	env, err := c.call(ctx, "test-voice", path, requestOptions{
		method: http.MethodPost,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &VoiceTestResult{Message: env.Message, TestMessage: env.TestMessage}, nil
}
