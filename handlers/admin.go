package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/docpoint/clinic-booking-api/apierror"
	"github.com/docpoint/clinic-booking-api/models"
)

// Admin oversight handlers. Role membership alone authorizes these;
// none of them consult ownership.

// AdminListDoctors returns every doctor profile.
func (h *Handler) AdminListDoctors(c *fiber.Ctx) error {
	return h.ListDoctors(c)
}

// AdminListPendingDoctors returns doctors awaiting verification, newest
// first.
func (h *Handler) AdminListPendingDoctors(c *fiber.Ctx) error {
	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := h.collection("doctors").Find(ctx,
		bson.M{"status": models.VerificationPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return apierror.Internal(c, "cannot fetch doctors")
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err = cursor.All(ctx, &doctors); err != nil {
		return apierror.Internal(c, "cannot decode doctors")
	}

	out := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, doctorView(d))
	}
	return c.JSON(out)
}

// AdminGetDoctor returns a single doctor profile by id.
func (h *Handler) AdminGetDoctor(c *fiber.Ctx) error {
	return h.GetDoctor(c)
}

// AdminCreateDoctor provisions a doctor directly, skipping
// self-registration. The profile still gets a login record so the
// access guard and doctor login resolve it like any other doctor. The
// verification status may be set in the request; it defaults to
// pending.
func (h *Handler) AdminCreateDoctor(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Speciality  string `json:"speciality"`
		Degree      string `json:"degree"`
		Experience  int    `json:"experience"`
		Fees        int    `json:"fees"`
		About       string `json:"about"`
		PhotoURL    string `json:"photoUrl"`
		IDProofURL  string `json:"idProofUrl"`
		DegreeURL   string `json:"degreeUrl"`
		Status      string `json:"status"`
		IsAvailable *bool  `json:"isAvailable"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apierror.Validation(c, "name, email and password are required")
	}
	status := req.Status
	if status == "" {
		status = models.VerificationPending
	}
	if !models.ValidVerificationStatus(status) {
		return apierror.Validation(c, "invalid status value")
	}

	taken, err := h.emailTaken(req.Email)
	if err != nil {
		return apierror.Internal(c, "cannot check existing accounts")
	}
	if taken {
		return apierror.Conflict(c, "email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apierror.Internal(c, "cannot hash password")
	}

	now := time.Now()
	user := models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      models.RoleDoctor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := dbCtx()
	defer cancel()

	userResult, err := h.collection("users").InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apierror.Conflict(c, "email already registered")
		}
		return apierror.Internal(c, "cannot create account")
	}
	user.ID = userResult.InsertedID.(primitive.ObjectID)

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	doctor := models.Doctor{
		UserID:      user.ID,
		Name:        req.Name,
		Email:       req.Email,
		Password:    string(hashed),
		Speciality:  req.Speciality,
		Degree:      req.Degree,
		Experience:  req.Experience,
		Fees:        req.Fees,
		About:       req.About,
		PhotoURL:    req.PhotoURL,
		IDProofURL:  req.IDProofURL,
		DegreeURL:   req.DegreeURL,
		Status:      status,
		IsAvailable: available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	doctorResult, err := h.collection("doctors").InsertOne(ctx, doctor)
	if err != nil {
		if _, delErr := h.collection("users").DeleteOne(ctx, bson.M{"_id": user.ID}); delErr != nil {
			log.WithError(delErr).Warn("cannot remove orphaned doctor login record")
		}
		if mongo.IsDuplicateKeyError(err) {
			return apierror.Conflict(c, "email already registered")
		}
		return apierror.Internal(c, "cannot create doctor profile")
	}
	doctor.ID = doctorResult.InsertedID.(primitive.ObjectID)

	return c.Status(fiber.StatusCreated).JSON(doctorView(doctor))
}

// setDoctorStatus writes the verification status unconditionally.
// Re-approving an approved doctor just rewrites the same value; that is
// intentional, not an error. The status email is best-effort.
func (h *Handler) setDoctorStatus(c *fiber.Ctx, status string) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid doctor id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var doctor models.Doctor
	err = h.collection("doctors").FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "doctor not found")
		}
		return apierror.Internal(c, "cannot update doctor")
	}

	h.sendDoctorStatusEmail(&doctor, status)

	return c.JSON(fiber.Map{
		"message": "Doctor " + status,
		"doctor":  doctorView(doctor),
	})
}

// ApproveDoctor marks a doctor as verified.
func (h *Handler) ApproveDoctor(c *fiber.Ctx) error {
	return h.setDoctorStatus(c, models.VerificationApproved)
}

// RejectDoctor marks a doctor as rejected.
func (h *Handler) RejectDoctor(c *fiber.Ctx) error {
	return h.setDoctorStatus(c, models.VerificationRejected)
}

// ToggleDoctorAvailability flips the availability flag atomically.
func (h *Handler) ToggleDoctorAvailability(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid doctor id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var doctor models.Doctor
	err = h.collection("doctors").FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.A{bson.M{"$set": bson.M{"isAvailable": bson.M{"$not": "$isAvailable"}, "updatedAt": "$$NOW"}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "doctor not found")
		}
		return apierror.Internal(c, "cannot update doctor")
	}

	return c.JSON(fiber.Map{
		"message":     "Availability updated",
		"isAvailable": doctor.IsAvailable,
	})
}

// AdminDeleteDoctor removes a doctor profile and its login record.
func (h *Handler) AdminDeleteDoctor(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid doctor id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var doctor models.Doctor
	err = h.collection("doctors").FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "doctor not found")
		}
		return apierror.Internal(c, "cannot delete doctor")
	}

	if _, err := h.collection("users").DeleteOne(ctx, bson.M{"_id": doctor.UserID}); err != nil {
		log.WithError(err).WithField("doctor", doctor.ID.Hex()).Warn("cannot delete doctor login record")
	}

	return c.JSON(fiber.Map{"message": "Doctor removed"})
}

// AdminListPatients returns every patient account without password
// hashes.
func (h *Handler) AdminListPatients(c *fiber.Ctx) error {
	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := h.collection("users").Find(ctx,
		bson.M{"role": models.RolePatient},
		options.Find().SetProjection(bson.M{"password": 0}),
	)
	if err != nil {
		return apierror.Internal(c, "cannot fetch patients")
	}
	defer cursor.Close(ctx)

	patients := []models.User{}
	if err = cursor.All(ctx, &patients); err != nil {
		return apierror.Internal(c, "cannot decode patients")
	}

	return c.JSON(patients)
}

// AdminDeletePatient removes a patient account.
func (h *Handler) AdminDeletePatient(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid patient id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	result, err := h.collection("users").DeleteOne(ctx, bson.M{"_id": id, "role": models.RolePatient})
	if err != nil {
		return apierror.Internal(c, "cannot delete patient")
	}
	if result.DeletedCount == 0 {
		return apierror.NotFound(c, "patient not found")
	}

	return c.JSON(fiber.Map{"message": "Patient removed"})
}

// AdminListAppointments returns every appointment regardless of owner.
func (h *Handler) AdminListAppointments(c *fiber.Ctx) error {
	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := h.collection("appointments").Find(ctx, bson.M{})
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

// AdminUpdateAppointmentStatus force-sets any appointment's status. This
// is the operational escape hatch: it skips the transition table and
// ownership checks, but never touches the payment fields.
func (h *Handler) AdminUpdateAppointmentStatus(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid appointment id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if !models.ValidAppointmentStatus(req.Status) {
		return apierror.Validation(c, "invalid status value")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	result, err := h.collection("appointments").UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": req.Status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return apierror.Internal(c, "cannot update appointment")
	}
	if result.MatchedCount == 0 {
		return apierror.NotFound(c, "appointment not found")
	}

	return c.JSON(fiber.Map{"message": "Appointment updated", "status": req.Status})
}

// AdminSummary returns aggregate record counts for the dashboard.
func (h *Handler) AdminSummary(c *fiber.Ctx) error {
	ctx, cancel := dbCtx()
	defer cancel()

	totalDoctors, err := h.collection("doctors").CountDocuments(ctx, bson.M{})
	if err != nil {
		return apierror.Internal(c, "cannot count doctors")
	}
	totalPatients, err := h.collection("users").CountDocuments(ctx, bson.M{"role": models.RolePatient})
	if err != nil {
		return apierror.Internal(c, "cannot count patients")
	}
	totalAppointments, err := h.collection("appointments").CountDocuments(ctx, bson.M{})
	if err != nil {
		return apierror.Internal(c, "cannot count appointments")
	}

	return c.JSON(fiber.Map{
		"totalDoctors":      totalDoctors,
		"totalPatients":     totalPatients,
		"totalAppointments": totalAppointments,
	})
}
