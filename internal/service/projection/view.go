// Package projection assembles read-side appointment views from joined
// detail rows.
package projection

import (
	"errors"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
)

// Placeholder stands in for a name whose row is missing
const Placeholder = "N/A"

// ErrMissingPatient is returned when a doctor-facing view is built for an
// appointment whose patient row no longer exists
var ErrMissingPatient = errors.New("appointment references a missing patient")

func PatientView(d *model.AppointmentDetail) model.PatientAppointmentView {
	date, start, end := timing(d)
	return model.PatientAppointmentView{
		AppointmentID: d.AppointmentID,
		Status:        d.Status,
		QRCodeURL:     d.QRCodeURL,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Doctor: model.DoctorSummary{
			FirstName:      orPlaceholder(d.DoctorFirstName),
			LastName:       orPlaceholder(d.DoctorLastName),
			SpecialtyLabel: d.SpecialtyLabel,
			PhotoURL:       d.DoctorPhotoURL,
		},
		Institution: institution(d),
	}
}

func DoctorView(d *model.AppointmentDetail) (model.DoctorAppointmentView, error) {
	if !d.PatientExists {
		return model.DoctorAppointmentView{}, ErrMissingPatient
	}
	date, start, end := timing(d)
	return model.DoctorAppointmentView{
		AppointmentID: d.AppointmentID,
		Status:        d.Status,
		QRCodeURL:     d.QRCodeURL,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Patient: model.PatientSummary{
			PatientID: d.PatientID,
			FirstName: orPlaceholder(d.PatientFirstName),
			LastName:  orPlaceholder(d.PatientLastName),
			PhotoURL:  d.PatientPhotoURL,
		},
		Institution: institution(d),
	}, nil
}

func timing(d *model.AppointmentDetail) (date, start, end *string) {
	return format(d.SlotDate, model.DateLayout),
		format(d.SlotStartTime, model.ClockLayout),
		format(d.SlotEndTime, model.ClockLayout)
}

func format(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}

func institution(d *model.AppointmentDetail) model.InstitutionSummary {
	return model.InstitutionSummary{
		Address:   d.InstitutionAddress,
		Latitude:  d.InstitutionLatitude,
		Longitude: d.InstitutionLongitude,
	}
}

func orPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}
