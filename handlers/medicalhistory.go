package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docpoint/clinic-booking-api/apierror"
	"github.com/docpoint/clinic-booking-api/middleware"
	"github.com/docpoint/clinic-booking-api/models"
)

// UpsertMedicalHistory creates or rewrites the clinical record for one
// of the calling doctor's own appointments. The lookup is filtered by
// the caller's doctor profile id, so another doctor's appointment reads
// as not found. The unique index on appointmentId keeps concurrent
// upserts from producing two records for one appointment.
func (h *Handler) UpsertMedicalHistory(c *fiber.Ctx) error {
	doctor, ok := c.Locals(middleware.LocalsAccount).(*models.Doctor)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}

	apptID, err := primitive.ObjectIDFromHex(c.Params("appointmentId"))
	if err != nil {
		return apierror.Validation(c, "invalid appointment id")
	}

	var req struct {
		Symptoms     *string `json:"symptoms"`
		Diagnosis    *string `json:"diagnosis"`
		Prescription *string `json:"prescription"`
		Notes        *string `json:"notes"`
		FollowUp     *string `json:"followUp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
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

	now := time.Now()
	set := bson.M{"updatedAt": now}
	if req.Symptoms != nil {
		set["symptoms"] = *req.Symptoms
	}
	if req.Diagnosis != nil {
		set["diagnosis"] = *req.Diagnosis
	}
	if req.Prescription != nil {
		set["prescription"] = *req.Prescription
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}
	if req.FollowUp != nil && *req.FollowUp != "" {
		set["followUp"] = *req.FollowUp
	}

	var history models.MedicalHistory
	err = h.collection("medical_histories").FindOneAndUpdate(ctx,
		bson.M{"appointmentId": appt.ID},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"patientId":     appt.User,
				"doctorId":      doctor.UserID,
				"appointmentId": appt.ID,
				"createdAt":     now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&history)
	if err != nil {
		return apierror.Internal(c, "cannot save medical history")
	}

	return c.JSON(fiber.Map{
		"message": "Medical history saved successfully",
		"history": history,
	})
}

func (h *Handler) listMedicalHistories(c *fiber.Ctx, filter bson.M) error {
	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := h.collection("medical_histories").Find(ctx, filter)
	if err != nil {
		return apierror.Internal(c, "cannot fetch medical histories")
	}
	defer cursor.Close(ctx)

	histories := []models.MedicalHistory{}
	if err = cursor.All(ctx, &histories); err != nil {
		return apierror.Internal(c, "cannot decode medical histories")
	}

	return c.JSON(histories)
}

// ListMyMedicalHistory returns the calling patient's own records.
func (h *Handler) ListMyMedicalHistory(c *fiber.Ctx) error {
	patient, ok := c.Locals(middleware.LocalsAccount).(*models.User)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}
	return h.listMedicalHistories(c, bson.M{"patientId": patient.ID})
}

// ListPatientMedicalHistory returns one patient's records for a doctor
// or an admin.
func (h *Handler) ListPatientMedicalHistory(c *fiber.Ctx) error {
	patientID, err := primitive.ObjectIDFromHex(c.Params("patientId"))
	if err != nil {
		return apierror.Validation(c, "invalid patient id")
	}
	return h.listMedicalHistories(c, bson.M{"patientId": patientID})
}

// AdminListMedicalHistories returns every record regardless of patient
// or author.
func (h *Handler) AdminListMedicalHistories(c *fiber.Ctx) error {
	return h.listMedicalHistories(c, bson.M{})
}
