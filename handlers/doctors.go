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

// doctorView strips the password hash before a profile leaves the API.
func doctorView(d models.Doctor) models.Doctor {
	d.Password = ""
	return d
}

// ListDoctors returns every doctor profile. Filtering by verification
// status or availability is left to the caller.
func (h *Handler) ListDoctors(c *fiber.Ctx) error {
	ctx, cancel := dbCtx()
	defer cancel()

	cursor, err := h.collection("doctors").Find(ctx, bson.M{})
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

// ListDoctorsBySpeciality matches the speciality case-insensitively.
func (h *Handler) ListDoctorsBySpeciality(c *fiber.Ctx) error {
	spec := c.Params("spec")

	ctx, cancel := dbCtx()
	defer cancel()

	filter := bson.M{"speciality": primitive.Regex{Pattern: "^" + spec + "$", Options: "i"}}
	cursor, err := h.collection("doctors").Find(ctx, filter)
	if err != nil {
		return apierror.Internal(c, "cannot fetch doctors")
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err = cursor.All(ctx, &doctors); err != nil {
		return apierror.Internal(c, "cannot decode doctors")
	}
	if len(doctors) == 0 {
		return apierror.NotFound(c, "no doctors found for this speciality")
	}

	out := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, doctorView(d))
	}
	return c.JSON(out)
}

// GetDoctor returns a single doctor profile by id.
func (h *Handler) GetDoctor(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apierror.Validation(c, "invalid doctor id")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var doctor models.Doctor
	err = h.collection("doctors").FindOne(ctx, bson.M{"_id": id}).Decode(&doctor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "doctor not found")
		}
		return apierror.Internal(c, "cannot fetch doctor")
	}

	return c.JSON(doctorView(doctor))
}

// GetDoctorProfile returns the calling doctor's own profile, already
// resolved by the access guard.
func (h *Handler) GetDoctorProfile(c *fiber.Ctx) error {
	doctor, ok := c.Locals(middleware.LocalsAccount).(*models.Doctor)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}
	return c.JSON(fiber.Map{"doctor": doctorView(*doctor)})
}

// UpdateDoctorProfile updates the caller's own profile. Only the
// professional fields may change here; verification status, availability
// and document URLs are admin or registration concerns.
func (h *Handler) UpdateDoctorProfile(c *fiber.Ctx) error {
	doctor, ok := c.Locals(middleware.LocalsAccount).(*models.Doctor)
	if !ok {
		return apierror.Forbidden(c, "account not found")
	}

	var req struct {
		Speciality *string `json:"speciality"`
		Degree     *string `json:"degree"`
		Experience *int    `json:"experience"`
		Fees       *int    `json:"fees"`
		About      *string `json:"about"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Speciality != nil {
		set["speciality"] = *req.Speciality
	}
	if req.Degree != nil {
		set["degree"] = *req.Degree
	}
	if req.Experience != nil {
		set["experience"] = *req.Experience
	}
	if req.Fees != nil {
		set["fees"] = *req.Fees
	}
	if req.About != nil {
		set["about"] = *req.About
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var updated models.Doctor
	err := h.collection("doctors").FindOneAndUpdate(ctx,
		bson.M{"_id": doctor.ID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "doctor profile not found")
		}
		return apierror.Internal(c, "cannot update profile")
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"doctor":  doctorView(updated),
	})
}
