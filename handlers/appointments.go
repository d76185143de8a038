package handlers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docpoint/clinic-booking-api/apierror"
	"github.com/docpoint/clinic-booking-api/middleware"
	"github.com/docpoint/clinic-booking-api/models"
)

// BookAppointment creates a Pending appointment for the calling patient.
// No slot-capacity check is made: two patients booking the same
// doctor/date/time both get independent Pending appointments.
func (h *Handler) BookAppointment(c *fiber.Ctx) error {
	patient, ok := c.Locals(middleware.LocalsAccount).(*models.User)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}

	var req struct {
		DoctorID string `json:"doctorId"`
		Date     string `json:"date"`
		Time     string `json:"time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.DoctorID == "" || req.Date == "" || req.Time == "" {
		return apierror.Validation(c, "doctorId, date and time are required")
	}

	doctorID, err := primitive.ObjectIDFromHex(req.DoctorID)
	if err != nil {
		return apierror.Validation(c, "invalid doctor id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	err = h.collection("doctors").FindOne(ctx, bson.M{"_id": doctorID}).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "doctor not found")
		}
		return apierror.Internal(c, "cannot look up doctor")
	}

	now := time.Now()
	appt := models.Appointment{
		User:      patient.ID,
		Doctor:    doctorID,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := h.collection("appointments").InsertOne(ctx, appt)
	if err != nil {
		return apierror.Internal(c, "cannot create appointment")
	}
	appt.ID = result.InsertedID.(primitive.ObjectID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Appointment booked successfully",
		"appointment": appt,
	})
}

// ListMyAppointments returns the caller's own appointments: a patient's
// bookings, or the bookings targeting a doctor's profile.
func (h *Handler) ListMyAppointments(c *fiber.Ctx) error {
	role, _ := c.Locals(middleware.LocalsRole).(string)

	var filter bson.M
	switch role {
	case models.RolePatient:
		patient, ok := c.Locals(middleware.LocalsAccount).(*models.User)
		if !ok {
			return apierror.Forbidden(c, "account not found")
		}
		filter = bson.M{"user": patient.ID}
	case models.RoleDoctor:
		doctor, ok := c.Locals(middleware.LocalsAccount).(*models.Doctor)
		if !ok {
			return apierror.Forbidden(c, "account not found")
		}
		filter = bson.M{"doctor": doctor.ID}
	default:
		return apierror.Forbidden(c, "role not permitted")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := h.collection("appointments").Find(ctx, filter)
	if err != nil {
		return apierror.Internal(c, "cannot fetch appointments")
	}
	defer cursor.Close(ctx)

	appointments := []models.Appointment{}
	if err = cursor.All(ctx, &appointments); err != nil {
		return apierror.Internal(c, "cannot decode appointments")
	}

	return c.JSON(appointments)
}

// UpdateAppointmentStatus lets the owning doctor confirm or decline a
// Pending appointment. The lookup is filtered by the caller's doctor
// profile id, so another doctor's appointment reads as not found. The
// write is conditional on the previously read status; a race with a
// concurrent transition surfaces as a conflict instead of silently
// overwriting it.
func (h *Handler) UpdateAppointmentStatus(c *fiber.Ctx) error {
	doctor, ok := c.Locals(middleware.LocalsAccount).(*models.Doctor)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}

	apptID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid appointment id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Status != models.StatusConfirmed && req.Status != models.StatusCancelled {
		return apierror.Validation(c, "status must be Confirmed or Cancelled")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var appt models.Appointment
	err = h.collection("appointments").FindOne(ctx, bson.M{"_id": apptID, "doctor": doctor.ID}).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "appointment not found")
		}
		return apierror.Internal(c, "cannot look up appointment")
	}

	switch appt.Status {
	case models.StatusPending:
		// the only state a doctor may act on
	case models.StatusConfirmed:
		return apierror.InvalidTransition(c, "appointment already confirmed")
	case models.StatusCancelled:
		return apierror.InvalidTransition(c, "appointment already cancelled")
	default:
		return apierror.InvalidTransition(c, "appointment already paid")
	}

	result, err := h.collection("appointments").UpdateOne(ctx,
		bson.M{"_id": apptID, "doctor": doctor.ID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": req.Status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return apierror.Internal(c, "cannot update appointment")
	}
	if result.MatchedCount == 0 {
		return apierror.Conflict(c, "appointment status changed, please retry")
	}

	return c.JSON(fiber.Map{"message": "Status updated successfully", "status": req.Status})
}

// CancelAppointment lets the owning patient cancel a non-terminal
// appointment.
func (h *Handler) CancelAppointment(c *fiber.Ctx) error {
	patient, ok := c.Locals(middleware.LocalsAccount).(*models.User)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}

	apptID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid appointment id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var appt models.Appointment
	err = h.collection("appointments").FindOne(ctx, bson.M{"_id": apptID, "user": patient.ID}).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "appointment not found")
		}
		return apierror.Internal(c, "cannot look up appointment")
	}

	switch appt.Status {
	case models.StatusCancelled:
		return apierror.InvalidTransition(c, "appointment already cancelled")
	case models.StatusPaid:
		return apierror.InvalidTransition(c, "cannot cancel a paid appointment")
	}

	result, err := h.collection("appointments").UpdateOne(ctx,
		bson.M{"_id": apptID, "user": patient.ID, "status": appt.Status},
		bson.M{"$set": bson.M{"status": models.StatusCancelled, "updatedAt": time.Now()}},
	)
	if err != nil {
		return apierror.Internal(c, "cannot cancel appointment")
	}
	if result.MatchedCount == 0 {
		return apierror.Conflict(c, "appointment status changed, please retry")
	}

	return c.JSON(fiber.Map{"message": "Appointment cancelled successfully", "status": models.StatusCancelled})
}

// PayAppointment records a synthetic payment for a Confirmed
// appointment. The transaction reference and paid-at timestamp are
// written in the same conditional update that flips the status, so a
// racing transition cannot produce a Paid appointment without them.
func (h *Handler) PayAppointment(c *fiber.Ctx) error {
	patient, ok := c.Locals(middleware.LocalsAccount).(*models.User)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}

	apptID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid appointment id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var appt models.Appointment
	err = h.collection("appointments").FindOne(ctx, bson.M{"_id": apptID, "user": patient.ID}).Decode(&appt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "appointment not found")
		}
		return apierror.Internal(c, "cannot look up appointment")
	}

	switch appt.Status {
	case models.StatusPending:
		return apierror.InvalidTransition(c, "doctor must confirm before payment")
	case models.StatusCancelled:
		return apierror.InvalidTransition(c, "cannot pay for a cancelled appointment")
	case models.StatusPaid:
		return apierror.InvalidTransition(c, "already paid")
	}

	txnID := fmt.Sprintf("TXN-%06d", 100000+rand.Intn(900000))
	paidAt := time.Now()

	result, err := h.collection("appointments").UpdateOne(ctx,
		bson.M{"_id": apptID, "user": patient.ID, "status": models.StatusConfirmed},
		bson.M{"$set": bson.M{
			"status":        models.StatusPaid,
			"transactionId": txnID,
			"paidAt":        paidAt,
			"updatedAt":     paidAt,
		}},
	)
	if err != nil {
		return apierror.Internal(c, "cannot record payment")
	}
	if result.MatchedCount == 0 {
		return apierror.Conflict(c, "appointment status changed, please retry")
	}

	return c.JSON(fiber.Map{
		"message":       "Payment successful",
		"status":        models.StatusPaid,
		"transactionId": txnID,
		"paidAt":        paidAt,
	})
}
