// internal/screens/settings.go
package screens

import (
	"context"

	"github.com/go-playground/validator/v10"

	"medalert-client/internal/api"
	apperrors "medalert-client/internal/common/errors"
	"medalert-client/internal/common/logger"
)

// SettingsAPI is the slice of the endpoint catalog the settings screen uses.
type SettingsAPI interface {
	GetPreferences(ctx context.Context, patient string) (*api.Preferences, error)
	UpdatePreferences(ctx context.Context, patient string, prefs api.Preferences) (string, error)
	SendTestNotification(ctx context.Context, patient string) (*api.TestNotificationResult, error)
	GetNotifications(ctx context.Context, patient string, unreadOnly bool) ([]api.Notification, error)
	MarkNotificationRead(ctx context.Context, patient, notificationID string) (string, error)
	GetVoices(ctx context.Context) ([]api.Voice, error)
	SetVoice(ctx context.Context, voiceName string) (string, error)
	TestVoice(ctx context.Context, patient string) (*api.VoiceTestResult, error)
	AddDeviceToken(ctx context.Context, patient, token string) (string, error)
	RemoveDeviceToken(ctx context.Context, patient, token string) (string, error)
}

// SettingsController owns the settings tab: a local edit buffer over the
// fetched preferences, pushed back in full on save.
type SettingsController struct {
	api      SettingsAPI
	logger   logger.Logger
	validate *validator.Validate

	patient string
	prefs   api.Preferences
	loaded  bool
}

func NewSettings(a SettingsAPI, log logger.Logger) *SettingsController {
	return &SettingsController{
		api:      a,
		logger:   log.WithFields(map[string]interface{}{"screen": "settings"}),
		validate: validator.New(),
		prefs:    api.DefaultPreferences(),
	}
}

func (c *SettingsController) SetPatient(name string) {
	c.patient = name
}

// Load replaces the edit buffer with the patient's stored preferences.
func (c *SettingsController) Load(ctx context.Context) error {
	prefs, err := c.api.GetPreferences(ctx, c.patient)
	if err != nil {
		c.logger.WithError(err).Warn("failed to load preferences", map[string]interface{}{"patient": c.patient})
		return err
	}
	c.prefs = *prefs
	c.loaded = true
	return nil
}

// Preferences returns a copy of the current edit buffer.
func (c *SettingsController) Preferences() api.Preferences {
	return c.prefs
}

// Edit applies a field-level mutation to the local buffer. Nothing is sent
// until Save.
func (c *SettingsController) Edit(apply func(*api.Preferences)) {
	apply(&c.prefs)
}

// Save validates the buffer and pushes the full record. Validation failures
// never reach the network.
func (c *SettingsController) Save(ctx context.Context) (string, error) {
	if err := c.validateLocal(); err != nil {
		return "", err
	}

	msg, err := c.api.UpdatePreferences(ctx, c.patient, c.prefs)
	if err != nil {
		c.logger.WithError(err).Warn("failed to save preferences", map[string]interface{}{"patient": c.patient})
		return "", err
	}
	return msg, nil
}

func (c *SettingsController) validateLocal() error {
	if err := c.validate.Struct(c.prefs); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			field := verrs[0].Field()
			return apperrors.NewValidationError(apperrors.ErrCodeInvalidPreferences, "invalid value for "+field)
		}
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidPreferences, err.Error())
	}

	// A channel toggled on needs its contact address.
	if c.prefs.EmailNotifications && c.prefs.Email == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidPreferences, "email notifications require an email address")
	}
	if c.prefs.SMSNotifications && c.prefs.Phone == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidPreferences, "SMS notifications require a phone number")
	}
	if c.prefs.WhatsappNotifications && c.prefs.Whatsapp == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidPreferences, "WhatsApp notifications require a WhatsApp number")
	}
	return nil
}

// TestNotification triggers a test across the enabled channels.
func (c *SettingsController) TestNotification(ctx context.Context) (*api.TestNotificationResult, error) {
	return c.api.SendTestNotification(ctx, c.patient)
}

// Notifications lists the patient's delivered notifications.
func (c *SettingsController) Notifications(ctx context.Context, unreadOnly bool) ([]api.Notification, error) {
	return c.api.GetNotifications(ctx, c.patient, unreadOnly)
}

// MarkRead marks one notification as read.
func (c *SettingsController) MarkRead(ctx context.Context, notificationID string) (string, error) {
	return c.api.MarkNotificationRead(ctx, c.patient, notificationID)
}

// Voices lists the available notification voices.
func (c *SettingsController) Voices(ctx context.Context) ([]api.Voice, error) {
	return c.api.GetVoices(ctx)
}

// SetVoice selects the system notification voice.
func (c *SettingsController) SetVoice(ctx context.Context, name string) (string, error) {
	return c.api.SetVoice(ctx, name)
}

// TestVoice runs a voice system test for the patient.
func (c *SettingsController) TestVoice(ctx context.Context) (*api.VoiceTestResult, error) {
	return c.api.TestVoice(ctx, c.patient)
}

// RegisterDevice adds a push notification device token.
func (c *SettingsController) RegisterDevice(ctx context.Context, token string) (string, error) {
	return c.api.AddDeviceToken(ctx, c.patient, token)
}

// UnregisterDevice removes a push notification device token.
func (c *SettingsController) UnregisterDevice(ctx context.Context, token string) (string, error) {
	return c.api.RemoveDeviceToken(ctx, c.patient, token)
}
