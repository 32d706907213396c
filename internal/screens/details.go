// internal/screens/details.go
package screens

import (
	"medalert-client/internal/api"
)

// DetailsView is the renderable snapshot of the details screen.
type DetailsView struct {
	PatientName        string
	PatientAge         *int
	Date               string
	Medicines          []api.Medicine
	MedicineCount      int
	DailyReminderCount int
}

// DetailsController presents the session's current prescription. It holds no
// state of its own beyond the snapshot source.
type DetailsController struct {
	prescription *api.Prescription
}

func NewDetails() *DetailsController {
	return &DetailsController{}
}

// SetPrescription replaces the displayed prescription wholesale.
func (c *DetailsController) SetPrescription(p *api.Prescription) {
	c.prescription = p
}

// Snapshot returns the current view. With no prescription loaded, the zero
// view is returned.
func (c *DetailsController) Snapshot() DetailsView {
	if c.prescription == nil {
		return DetailsView{}
	}
	return DetailsView{
		PatientName:        c.prescription.Patient.Name,
		PatientAge:         c.prescription.Patient.Age,
		Date:               c.prescription.Date,
		Medicines:          c.prescription.Medicines,
		MedicineCount:      c.prescription.MedicineCount(),
		DailyReminderCount: c.prescription.DailyReminderCount(),
	}
}
