package model

import "time"

// Hospital mirrors Hotel's address shape and owns appointments.
type Hospital struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	District   string    `json:"district"`
	Province   string    `json:"province"`
	PostalCode string    `json:"postal_code"`
	Tel        string    `json:"tel,omitempty"`
	Region     string    `json:"region"`
	CreatedAt  time.Time `json:"created_at"`
}

// Appointment is a user's visit slot at a hospital.
type Appointment struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	HospitalID uint64    `json:"hospital_id"`
	ApptDate   time.Time `json:"appt_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppointmentDetail adds the hospital columns shown in listings.
type AppointmentDetail struct {
	Appointment
	HospitalName     string `json:"hospital_name"`
	HospitalProvince string `json:"hospital_province"`
	HospitalTel      string `json:"hospital_tel"`
}
