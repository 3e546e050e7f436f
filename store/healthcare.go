package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

// Doctor is one practitioner on the hospital roster.
type Doctor struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Timings        string `json:"timings"`
	Email          string `json:"email"`
}

// Appointment is a confirmed patient visit.
type Appointment struct {
	ID        string    `json:"id"`
	Patient   string    `json:"patient"`
	Email     string    `json:"email"`
	Doctor    string    `json:"doctor"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// HospitalInfo is the hospital's contact card.
type HospitalInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Hours   string `json:"hours"`
}

// HealthcareStore backs the healthcare department.
type HealthcareStore struct {
	mu           sync.RWMutex
	doctors      []Doctor
	appointments map[string]Appointment
	aptSeq       int
}

// NewHealthcareStore seeds the demo roster.
func NewHealthcareStore() *HealthcareStore {
	return &HealthcareStore{
		doctors: []Doctor{
			{Name: "Dr. Sara Khan", Specialization: "Cardiologist", Timings: "Mon-Fri: 10 AM - 2 PM", Email: "sara.khan@citycarehospital.com"},
			{Name: "Dr. Ali Raza", Specialization: "Dermatologist", Timings: "Tue-Sat: 3 PM - 7 PM", Email: "ali.raza@citycarehospital.com"},
			{Name: "Dr. Fatima Ahmed", Specialization: "Pediatrician", Timings: "Mon-Thu: 9 AM - 1 PM", Email: "fatima.ahmed@citycarehospital.com"},
			{Name: "Dr. Kamran Siddiqui", Specialization: "Orthopedic Surgeon", Timings: "Mon-Fri: 11 AM - 4 PM", Email: "kamran.siddiqui@citycarehospital.com"},
			{Name: "Dr. Nadia Hussain", Specialization: "Gynecologist", Timings: "Tue-Sat: 9 AM - 12 PM", Email: "nadia.hussain@citycarehospital.com"},
			{Name: "Dr. Imran Qureshi", Specialization: "Neurologist", Timings: "Mon-Wed: 2 PM - 6 PM", Email: "imran.qureshi@citycarehospital.com"},
			{Name: "Dr. Ayesha Malik", Specialization: "Psychiatrist", Timings: "Thu-Sat: 10 AM - 1 PM", Email: "ayesha.malik@citycarehospital.com"},
			{Name: "Dr. Bilal Sheikh", Specialization: "ENT Specialist", Timings: "Mon-Fri: 4 PM - 8 PM", Email: "bilal.sheikh@citycarehospital.com"},
			{Name: "Dr. Zainab Akhtar", Specialization: "Ophthalmologist", Timings: "Tue-Fri: 9 AM - 1 PM", Email: "zainab.akhtar@citycarehospital.com"},
			{Name: "Dr. Hassan Javed", Specialization: "General Physician", Timings: "Mon-Sat: 9 AM - 5 PM", Email: "hassan.javed@citycarehospital.com"},
		},
		appointments: make(map[string]Appointment),
	}
}

// Info returns the hospital's contact card.
func (s *HealthcareStore) Info() HospitalInfo {
	return HospitalInfo{
		Name:    "CityCare Hospital",
		Address: "45 Medical Boulevard, Karachi, Pakistan",
		Phone:   "+92 21 1234 5678",
		Email:   "info@citycarehospital.com",
		Hours:   "Mon-Sat: 8:00 AM - 8:00 PM, Sun: Closed",
	}
}

// Doctors returns the full roster.
func (s *HealthcareStore) Doctors() []Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Doctor, len(s.doctors))
	copy(out, s.doctors)
	return out
}

// DoctorsBySpecialization filters the roster by specialty substring.
func (s *HealthcareStore) DoctorsBySpecialization(spec string) []Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Doctor
	for _, d := range s.doctors {
		if strings.Contains(strings.ToLower(d.Specialization), strings.ToLower(strings.TrimSpace(spec))) {
			out = append(out, d)
		}
	}
	return out
}

// DoctorByName looks up one practitioner, tolerant of a missing "Dr." prefix.
func (s *HealthcareStore) DoctorByName(name string) (Doctor, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	want = strings.TrimPrefix(want, "dr. ")
	want = strings.TrimPrefix(want, "dr ")

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.doctors {
		have := strings.TrimPrefix(strings.ToLower(d.Name), "dr. ")
		if have == want {
			return d, true
		}
	}
	return Doctor{}, false
}

// CreateAppointment records a confirmed visit with the named doctor.
func (s *HealthcareStore) CreateAppointment(patient, email, doctor, date, at, reason string) (Appointment, error) {
	d, ok := s.DoctorByName(doctor)
	if !ok {
		return Appointment{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no doctor named %q on the roster", doctor)).WithField("doctor")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.aptSeq++
	a := Appointment{
		ID:        fmt.Sprintf("APT%03d", s.aptSeq),
		Patient:   patient,
		Email:     email,
		Doctor:    d.Name,
		Date:      date,
		Time:      at,
		Reason:    reason,
		Status:    "confirmed",
		CreatedAt: time.Now(),
	}
	s.appointments[a.ID] = a
	return a, nil
}

// AppointmentByID looks up a visit.
func (s *HealthcareStore) AppointmentByID(id string) (Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[strings.ToUpper(id)]
	if !ok {
		return Appointment{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no appointment %s", strings.ToUpper(id)))
	}
	return a, nil
}

// AppointmentsByEmail lists a patient's visits.
func (s *HealthcareStore) AppointmentsByEmail(email string) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Appointment
	for _, a := range s.appointments {
		if strings.EqualFold(a.Email, email) {
			out = append(out, a)
		}
	}
	return out
}

// CancelAppointment marks a visit cancelled.
func (s *HealthcareStore) CancelAppointment(id string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[strings.ToUpper(id)]
	if !ok {
		return Appointment{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no appointment %s", strings.ToUpper(id)))
	}
	a.Status = "cancelled"
	s.appointments[a.ID] = a
	return a, nil
}
