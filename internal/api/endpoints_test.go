// internal/api/endpoints_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "medalert-client/internal/common/errors"
)

const validPrescriptionBody = `{
	"status": "success",
	"data": {
		"Patient": {"Name": "Jane Doe", "Age": 34},
		"Date": "2026-08-01",
		"Medicines": [
			{"Medicine": "Aspirin", "Type": "Tablet", "Dosage": "75mg", "Timings": ["08:00", "20:00"]}
		]
	}
}`

func TestAnalyzePrescription_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze-prescription", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(validPrescriptionBody))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	p, err := c.AnalyzePrescription(context.Background(), "rx.png", strings.NewReader("img"))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", p.Patient.Name)
	require.NotNil(t, p.Patient.Age)
	assert.Equal(t, 34, *p.Patient.Age)
	assert.Equal(t, 1, p.MedicineCount())
	assert.Equal(t, 2, p.DailyReminderCount())
}

func TestAnalyzePrescription_EmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with embedded failure
		w.Write([]byte(`{"status":"error","message":"could not read image"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.AnalyzePrescription(context.Background(), "rx.png", strings.NewReader("img"))
	require.Error(t, err)

	reqErr := apperrors.AsRequestError(err)
	require.NotNil(t, reqErr)
	assert.Equal(t, apperrors.KindApplication, reqErr.Kind)
	assert.Equal(t, apperrors.ErrCodeAnalysisFailed, reqErr.Code)
	assert.Equal(t, "could not read image", reqErr.Message)
}

func TestAnalyzePrescription_ErrorStatusCollapsed(t *testing.T) {
	// The raw upload path returns the body on error status; the endpoint
	// still collapses both signals into one typed error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"Error analyzing prescription: boom"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.AnalyzePrescription(context.Background(), "rx.png", strings.NewReader("img"))
	require.Error(t, err)

	reqErr := apperrors.AsRequestError(err)
	require.NotNil(t, reqErr)
	assert.Equal(t, apperrors.KindHTTP, reqErr.Kind)
	assert.Equal(t, apperrors.ErrCodeServerError, reqErr.Code)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
}

func TestAnalyzePrescription_SchemaRejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing patient",
			body: `{"status":"success","data":{"Medicines":[]}}`,
		},
		{
			name: "empty patient name",
			body: `{"status":"success","data":{"Patient":{"Name":""},"Medicines":[]}}`,
		},
		{
			name: "medicines not an array",
			body: `{"status":"success","data":{"Patient":{"Name":"Jane"},"Medicines":{"a":1}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL)
			_, err := c.AnalyzePrescription(context.Background(), "rx.png", strings.NewReader("img"))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInvalidPayload, apperrors.CodeOf(err))
		})
	}
}

func TestPatientPathEncoding(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"status":"success","data":{}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetPreferences(context.Background(), "Jane Doe / Jr.")
	require.NoError(t, err)
	assert.Equal(t, "/patients/Jane%20Doe%20%2F%20Jr./preferences", gotPath)
}

func TestGetPreferences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"status":"success","data":{
			"notification_sound":"chime","reminder_frequency":"daily",
			"voice_enabled":true,"push_notifications":true,
			"email_notifications":true,"email":"jane@example.com"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	prefs, err := c.GetPreferences(context.Background(), "Jane")
	require.NoError(t, err)
	assert.Equal(t, "chime", prefs.NotificationSound)
	assert.True(t, prefs.EmailNotifications)
	assert.Equal(t, "jane@example.com", prefs.Email)
}

func TestUpdatePreferences_FullPush(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"status":"success","message":"Preferences updated successfully"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	prefs := DefaultPreferences()
	prefs.Email = "jane@example.com"
	msg, err := c.UpdatePreferences(context.Background(), "Jane", prefs)
	require.NoError(t, err)
	assert.Equal(t, "Preferences updated successfully", msg)

	// Every field is present in the payload, not a partial patch.
	for _, key := range []string{
		"notification_sound", "reminder_frequency", "voice_enabled",
		"push_notifications", "email_notifications", "sms_notifications",
		"whatsapp_notifications", "email", "phone", "whatsapp",
	} {
		assert.Contains(t, gotBody, key)
	}
}

func TestUpdateProfile_UsesPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/patients/Jane/profile", r.URL.Path)
		w.Write([]byte(`{"status":"success","message":"Profile updated successfully"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.UpdateProfile(context.Background(), "Jane", Profile{Name: "Jane"})
	require.NoError(t, err)
}

func TestGetReminderHistory_DaysQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.GetReminderHistory(context.Background(), "Jane", 14)
	require.NoError(t, err)
	assert.Equal(t, "days=14", gotQuery)
}

func TestGetNotifications_UnreadOnlyQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"status":"success","data":[{"id":"n1","read":false}]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	notifications, err := c.GetNotifications(context.Background(), "Jane", true)
	require.NoError(t, err)
	assert.Equal(t, "unread_only=true", gotQuery)
	require.Len(t, notifications, 1)
	assert.Equal(t, "n1", notifications[0].ID)
	assert.False(t, notifications[0].Read)
}

func TestMarkNotificationRead_Path(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"status":"success","message":"Notification marked as read"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	msg, err := c.MarkNotificationRead(context.Background(), "Jane", "n1")
	require.NoError(t, err)
	assert.Equal(t, "/patients/Jane/notifications/n1/read", gotPath)
	assert.Equal(t, "Notification marked as read", msg)
}

func TestDeviceTokens(t *testing.T) {
	var gotMethod, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"status":"success","message":"ok"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	_, err := c.AddDeviceToken(context.Background(), "Jane", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"token":"tok-1"}`, gotBody)

	_, err = c.RemoveDeviceToken(context.Background(), "Jane", "tok-1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.JSONEq(t, `{"token":"tok-1"}`, gotBody)
}

func TestSendTestNotification_Channels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","message":"Test notification sent successfully","sent_via":["push","email"]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	result, err := c.SendTestNotification(context.Background(), "Jane")
	require.NoError(t, err)
	assert.Equal(t, []string{"push", "email"}, result.SentVia)
}

func TestVoiceEndpoints(t *testing.T) {
	var gotPath, gotQuery, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if r.ContentLength > 0 {
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			gotBody = string(buf)
		}
		switch r.URL.Path {
		case "/voices":
			w.Write([]byte(`{"status":"success","data":[{"name":"gentle","description":"Gentle Voice"}]}`))
		case "/test-voice":
			w.Write([]byte(`{"status":"success","message":"Voice test completed","test_message":"Hello Jane"}`))
		default:
			w.Write([]byte(`{"status":"success","message":"Voice set to gentle"}`))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	voices, err := c.GetVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "gentle", voices[0].Name)

	msg, err := c.SetVoice(context.Background(), "gentle")
	require.NoError(t, err)
	assert.Equal(t, "/set-voice", gotPath)
	assert.JSONEq(t, `{"voice_name":"gentle"}`, gotBody)
	assert.Equal(t, "Voice set to gentle", msg)

	result, err := c.TestVoice(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "patient_name=Jane+Doe", gotQuery)
	assert.Equal(t, "Hello Jane", result.TestMessage)
}

func TestHealth_NoEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0","services":{"scheduler":true}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	hs, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, hs.Healthy())
	assert.True(t, hs.Services["scheduler"])
}

func TestGetScheduledReminders_Idempotent(t *testing.T) {
	body := `{"status":"success","data":[
		{"reminder_id":"r1","medicine_name":"Aspirin","timing":"08:00","status":"active"},
		{"reminder_id":"r2","medicine_name":"Aspirin","timing":"20:00","status":"paused"}
	]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	first, err := c.GetScheduledReminders(context.Background(), "Jane")
	require.NoError(t, err)
	second, err := c.GetScheduledReminders(context.Background(), "Jane")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}
