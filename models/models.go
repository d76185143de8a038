package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account roles. A role is fixed at registration and never changes.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Doctor verification statuses. Every doctor profile starts at pending;
// only an admin moves it to approved or rejected.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Appointment statuses. Pending is the initial state; Cancelled and Paid
// are terminal for patients and doctors (admins may force any value).
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusPaid      = "Paid"
)

// ValidAppointmentStatus reports whether s is one of the four
// appointment statuses.
func ValidAppointmentStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusPaid:
		return true
	}
	return false
}

// ValidVerificationStatus reports whether s is a doctor verification
// status.
func ValidVerificationStatus(s string) bool {
	switch s {
	case VerificationPending, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// User is the login identity for every account. Patients and admins are
// fully described by a User; doctors additionally have a Doctor profile
// that points back at their User record via UserID.
type User struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Password     string             `json:"password,omitempty" bson:"password"`
	Role         string             `json:"role" bson:"role"`
	ResetToken   string             `json:"-" bson:"resetToken,omitempty"`
	ResetExpires *time.Time         `json:"-" bson:"resetExpires,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Doctor is the public-facing doctor profile. Appointments reference
// this record, not the linked User.
type Doctor struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Name        string             `json:"name" bson:"name"`
	Email       string             `json:"email" bson:"email"`
	Password    string             `json:"password,omitempty" bson:"password"`
	Speciality  string             `json:"speciality" bson:"speciality"`
	Degree      string             `json:"degree" bson:"degree"`
	Experience  int                `json:"experience" bson:"experience"`
	Fees        int                `json:"fees" bson:"fees"`
	About       string             `json:"about" bson:"about"`
	PhotoURL    string             `json:"photoUrl" bson:"photoUrl"`
	IDProofURL  string             `json:"idProofUrl" bson:"idProofUrl"`
	DegreeURL   string             `json:"degreeUrl" bson:"degreeUrl"`
	Status      string             `json:"status" bson:"status"`
	IsAvailable bool               `json:"isAvailable" bson:"isAvailable"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// MedicalHistory is a doctor's clinical record for one appointment.
// At most one history exists per appointment; the doctor rewrites it in
// place. DoctorID is the authoring doctor's login id, not the profile
// id, so the record survives profile removal.
type MedicalHistory struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PatientID     primitive.ObjectID `json:"patientId" bson:"patientId"`
	DoctorID      primitive.ObjectID `json:"doctorId" bson:"doctorId"`
	AppointmentID primitive.ObjectID `json:"appointmentId" bson:"appointmentId"`
	Symptoms      string             `json:"symptoms" bson:"symptoms"`
	Diagnosis     string             `json:"diagnosis" bson:"diagnosis"`
	Prescription  string             `json:"prescription" bson:"prescription"`
	Notes         string             `json:"notes" bson:"notes"`
	FollowUp      string             `json:"followUp,omitempty" bson:"followUp,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Appointment links a patient (User id) to a Doctor profile for one
// date/time slot. TransactionID and PaidAt are written exactly once, on
// the Confirmed -> Paid transition, and never modified afterwards.
type Appointment struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	User          primitive.ObjectID `json:"user" bson:"user"`
	Doctor        primitive.ObjectID `json:"doctor" bson:"doctor"`
	Date          string             `json:"appointmentDate" bson:"appointmentDate"`
	Time          string             `json:"appointmentTime" bson:"appointmentTime"`
	Status        string             `json:"status" bson:"status"`
	TransactionID string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	PaidAt        *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}
