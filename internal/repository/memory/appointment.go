package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type appointmentRepository struct {
	s *Store
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	defer r.s.lock()()
	d := r.s.data()

	if appointment.TimeSlotID != nil {
		for _, other := range d.appointments {
			if other.TimeSlotID != nil && *other.TimeSlotID == *appointment.TimeSlotID {
				return errDuplicateSlot
			}
		}
	}

	now := time.Now().UTC()
	appointment.ID = d.next("appointments")
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	d.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	defer r.s.lock()()

	appt, ok := r.s.data().appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	defer r.s.lock()()

	out := []*model.Appointment{}
	for _, appt := range r.s.data().appointments {
		if matches(appt, filter) {
			a := appt
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id int64, from, to model.AppointmentStatus) (*model.Appointment, error) {
	defer r.s.lock()()
	d := r.s.data()

	appt, ok := d.appointments[id]
	if !ok || appt.Status != from {
		return nil, repository.ErrStatusMismatch
	}
	appt.Status = to
	appt.UpdatedAt = time.Now().UTC()
	d.appointments[id] = appt
	return &appt, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) (*model.Appointment, error) {
	defer r.s.lock()()
	d := r.s.data()

	appt, ok := d.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(d.appointments, id)
	return &appt, nil
}

func (r *appointmentRepository) DetachSlot(ctx context.Context, id int64) error {
	defer r.s.lock()()
	d := r.s.data()

	appt, ok := d.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	appt.TimeSlotID = nil
	appt.UpdatedAt = time.Now().UTC()
	d.appointments[id] = appt
	return nil
}

func (r *appointmentRepository) GetDetail(ctx context.Context, id int64) (*model.AppointmentDetail, error) {
	defer r.s.lock()()
	d := r.s.data()

	appt, ok := d.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d.detail(appt), nil
}

func (r *appointmentRepository) ListDetails(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentDetail, error) {
	defer r.s.lock()()
	d := r.s.data()

	var appts []model.Appointment
	for _, appt := range d.appointments {
		if matches(appt, filter) {
			appts = append(appts, appt)
		}
	}

	out := make([]*model.AppointmentDetail, 0, len(appts))
	for _, appt := range appts {
		out = append(out, d.detail(appt))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return detailBefore(out[i], out[j])
	})
	return out, nil
}

// detailBefore orders by slot date and start time, slotless rows last
func detailBefore(a, b *model.AppointmentDetail) bool {
	switch {
	case a.SlotDate == nil && b.SlotDate == nil:
		return a.AppointmentID < b.AppointmentID
	case a.SlotDate == nil:
		return false
	case b.SlotDate == nil:
		return true
	case !a.SlotDate.Equal(*b.SlotDate):
		return a.SlotDate.Before(*b.SlotDate)
	case !a.SlotStartTime.Equal(*b.SlotStartTime):
		return a.SlotStartTime.Before(*b.SlotStartTime)
	}
	return a.AppointmentID < b.AppointmentID
}

func matches(appt model.Appointment, filter model.AppointmentFilter) bool {
	if filter.PatientID != nil && appt.PatientID != *filter.PatientID {
		return false
	}
	if filter.DoctorID != nil && appt.DoctorID != *filter.DoctorID {
		return false
	}
	if filter.Status != nil && appt.Status != *filter.Status {
		return false
	}
	return true
}

func (d *dataset) detail(appt model.Appointment) *model.AppointmentDetail {
	detail := &model.AppointmentDetail{
		AppointmentID: appt.ID,
		Status:        appt.Status,
		QRCodeURL:     appt.QRCodeURL,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
	}

	if appt.TimeSlotID != nil {
		if slot, ok := d.slots[*appt.TimeSlotID]; ok {
			detail.SlotDate = &slot.Date
			detail.SlotStartTime = &slot.StartTime
			detail.SlotEndTime = &slot.EndTime
		}
	}

	if doctor, ok := d.doctors[appt.DoctorID]; ok {
		detail.DoctorFirstName = &doctor.FirstName
		detail.DoctorLastName = &doctor.LastName
		detail.DoctorPhotoURL = doctor.PhotoURL
		if doctor.SpecialtyID != nil {
			if specialty, ok := d.specialties[*doctor.SpecialtyID]; ok {
				detail.SpecialtyLabel = &specialty.Label
			}
		}
		if doctor.HealthInstitutionID != nil {
			if inst, ok := d.institutions[*doctor.HealthInstitutionID]; ok {
				detail.InstitutionAddress = inst.Address
				detail.InstitutionLatitude = inst.Latitude
				detail.InstitutionLongitude = inst.Longitude
			}
		}
	}

	if patient, ok := d.patients[appt.PatientID]; ok {
		detail.PatientExists = true
		detail.PatientFirstName = &patient.FirstName
		detail.PatientLastName = &patient.LastName
		detail.PatientPhotoURL = patient.PhotoURL
	}
	return detail
}
