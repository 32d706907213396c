// internal/session/session.go
//
// Package session models the cross-screen state (current patient, current
// prescription, active tab, banners) as a value type with total,
// side-effect-free transitions. Tab gating lives here so it can be tested
// without any rendering or network.
package session

import (
	"time"

	"github.com/google/uuid"

	"medalert-client/internal/api"
)

type Tab string

const (
	TabUpload    Tab = "upload"
	TabDetails   Tab = "details"
	TabSettings  Tab = "settings"
	TabReminders Tab = "reminders"
)

type BannerLevel string

const (
	BannerSuccess BannerLevel = "success"
	BannerError   BannerLevel = "error"
)

// Banner is one inline message rendered above the active screen. Success
// banners carry an expiry; error banners stay until dismissed.
type Banner struct {
	ID        string
	Level     BannerLevel
	Message   string
	ExpiresAt time.Time // zero value = manual dismiss only
}

const (
	uploadBannerTTL   = 5 * time.Second
	settingsBannerTTL = 3 * time.Second
)

// Session is the cross-tab state. All transitions return a new value; the
// caller decides when to commit it.
type Session struct {
	PatientName  string
	Prescription *api.Prescription
	ActiveTab    Tab
	Banners      []Banner
}

func New() Session {
	return Session{ActiveTab: TabUpload}
}

// CanActivate reports tab gating: details needs a prescription, settings and
// reminders need a patient.
func (s Session) CanActivate(tab Tab) bool {
	switch tab {
	case TabUpload:
		return true
	case TabDetails:
		return s.Prescription != nil
	case TabSettings, TabReminders:
		return s.PatientName != ""
	default:
		return false
	}
}

// OnTabRequested switches the active tab. A gated or unknown tab leaves the
// session unchanged; switching has no other side effect.
func (s Session) OnTabRequested(tab Tab) Session {
	if !s.CanActivate(tab) {
		return s
	}
	s.ActiveTab = tab
	return s
}

// OnUploadSucceeded installs the analyzed prescription, adopts its patient as
// the session patient, force-switches to the details tab and raises a timed
// success banner.
func (s Session) OnUploadSucceeded(p *api.Prescription, now time.Time) Session {
	s.Prescription = p
	s.PatientName = p.Patient.Name
	s.ActiveTab = TabDetails
	return s.withBanner(Banner{
		ID:        uuid.NewString(),
		Level:     BannerSuccess,
		Message:   "Prescription analyzed successfully",
		ExpiresAt: now.Add(uploadBannerTTL),
	})
}

// OnSettingsSaved raises the settings-saved banner.
func (s Session) OnSettingsSaved(now time.Time) Session {
	return s.withBanner(Banner{
		ID:        uuid.NewString(),
		Level:     BannerSuccess,
		Message:   "Settings saved",
		ExpiresAt: now.Add(settingsBannerTTL),
	})
}

// OnError raises a dismissible error banner. Entity state is untouched.
func (s Session) OnError(message string) Session {
	return s.withBanner(Banner{
		ID:      uuid.NewString(),
		Level:   BannerError,
		Message: message,
	})
}

// DismissBanner removes the banner with the given id.
func (s Session) DismissBanner(id string) Session {
	kept := make([]Banner, 0, len(s.Banners))
	for _, b := range s.Banners {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	s.Banners = kept
	return s
}

// Tick drops banners whose expiry has passed.
func (s Session) Tick(now time.Time) Session {
	kept := make([]Banner, 0, len(s.Banners))
	for _, b := range s.Banners {
		if b.ExpiresAt.IsZero() || b.ExpiresAt.After(now) {
			kept = append(kept, b)
		}
	}
	s.Banners = kept
	return s
}

func (s Session) withBanner(b Banner) Session {
	banners := make([]Banner, len(s.Banners), len(s.Banners)+1)
	copy(banners, s.Banners)
	s.Banners = append(banners, b)
	return s
}
