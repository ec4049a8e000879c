package model

// DoctorSummary is the doctor block of a patient-facing appointment
type DoctorSummary struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	SpecialtyLabel *string `json:"specialty_label"`
	PhotoURL       *string `json:"photo_url"`
}

// PatientSummary is the patient block of a doctor-facing appointment
type PatientSummary struct {
	PatientID int64   `json:"patient_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	PhotoURL  *string `json:"photo_url"`
}

type InstitutionSummary struct {
	Address   *string  `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type PatientAppointmentView struct {
	AppointmentID int64              `json:"appointment_id"`
	Status        AppointmentStatus  `json:"status"`
	QRCodeURL     *string            `json:"qr_code_url"`
	Date          *string            `json:"date"`
	StartTime     *string            `json:"start_time"`
	EndTime       *string            `json:"end_time"`
	Doctor        DoctorSummary      `json:"doctor"`
	Institution   InstitutionSummary `json:"health_institution"`
}

type DoctorAppointmentView struct {
	AppointmentID int64              `json:"appointment_id"`
	Status        AppointmentStatus  `json:"status"`
	QRCodeURL     *string            `json:"qr_code_url"`
	Date          *string            `json:"date"`
	StartTime     *string            `json:"start_time"`
	EndTime       *string            `json:"end_time"`
	Patient       PatientSummary     `json:"patient"`
	Institution   InstitutionSummary `json:"health_institution"`
}
