package handlers

import (
	"regexp"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/docpoint/clinic-booking-api/apierror"
	"github.com/docpoint/clinic-booking-api/models"
	"github.com/docpoint/clinic-booking-api/token"
)

// emailTaken checks both account collections. The unique indexes on
// users.email and doctors.email remain the real guarantee; this check
// only produces a friendlier answer for the common case.
func (h *Handler) emailTaken(email string) (bool, error) {
	ctx, cancel := dbCtx()
	defer cancel()

	for _, coll := range []string{"users", "doctors"} {
		err := h.collection(coll).FindOne(ctx, bson.M{"email": email}).Err()
		if err == nil {
			return true, nil
		}
		if err != mongo.ErrNoDocuments {
			return false, err
		}
	}
	return false, nil
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// VerifyEmail is the pre-registration availability check the signup
// form calls before collecting the rest of the details.
func (h *Handler) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Email == "" {
		return apierror.Validation(c, "email is required")
	}
	if !emailPattern.MatchString(req.Email) {
		return apierror.Validation(c, "please enter a valid email address")
	}

	taken, err := h.emailTaken(req.Email)
	if err != nil {
		return apierror.Internal(c, "cannot check existing accounts")
	}
	if taken {
		return c.JSON(fiber.Map{
			"available": false,
			"message":   "This email is already registered. Please login instead.",
		})
	}

	return c.JSON(fiber.Map{
		"available": true,
		"message":   "Email is valid and available.",
	})
}

// RegisterPatient creates a patient account and returns a bearer token.
func (h *Handler) RegisterPatient(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apierror.Validation(c, "name, email and password are required")
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
		Role:      models.RolePatient,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := dbCtx()
	defer cancel()

	result, err := h.collection("users").InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apierror.Conflict(c, "email already registered")
		}
		return apierror.Internal(c, "cannot create account")
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	h.sendWelcomeEmail(user.Email, user.Name, models.RolePatient)

	t, err := token.Issue(h.cfg.JWTSecret, user.ID.Hex(), models.RolePatient)
	if err != nil {
		return apierror.Internal(c, "cannot generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Patient registered successfully",
		"token":   t,
		"id":      user.ID.Hex(),
		"name":    user.Name,
		"email":   user.Email,
		"role":    models.RolePatient,
	})
}

// RegisterDoctor creates a doctor login identity plus its profile
// record. The profile starts at verification status pending and stays
// unusable for dashboard operations until an admin approves it.
func (h *Handler) RegisterDoctor(c *fiber.Ctx) error {
	var req struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Speciality string `json:"speciality"`
		Degree     string `json:"degree"`
		Experience int    `json:"experience"`
		Fees       int    `json:"fees"`
		About      string `json:"about"`
		PhotoURL   string `json:"photoUrl"`
		IDProofURL string `json:"idProofUrl"`
		DegreeURL  string `json:"degreeUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apierror.Validation(c, "name, email and password are required")
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
		Status:      models.VerificationPending,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	doctorResult, err := h.collection("doctors").InsertOne(ctx, doctor)
	if err != nil {
		// Roll back the login record so a retry is not stuck behind
		// the users.email unique index.
		if _, delErr := h.collection("users").DeleteOne(ctx, bson.M{"_id": user.ID}); delErr != nil {
			log.WithError(delErr).Warn("cannot remove orphaned doctor login record")
		}
		if mongo.IsDuplicateKeyError(err) {
			return apierror.Conflict(c, "email already registered")
		}
		return apierror.Internal(c, "cannot create doctor profile")
	}
	doctor.ID = doctorResult.InsertedID.(primitive.ObjectID)

	h.sendWelcomeEmail(doctor.Email, doctor.Name, models.RoleDoctor)

	t, err := token.Issue(h.cfg.JWTSecret, user.ID.Hex(), models.RoleDoctor)
	if err != nil {
		return apierror.Internal(c, "cannot generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Doctor registered successfully. Please wait for admin approval.",
		"token":   t,
		"id":      doctor.ID.Hex(),
		"name":    doctor.Name,
		"email":   doctor.Email,
		"role":    models.RoleDoctor,
		"status":  doctor.Status,
	})
}

func (h *Handler) loginUserRole(c *fiber.Ctx, role string) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var user models.User
	err := h.collection("users").FindOne(ctx, bson.M{"email": req.Email, "role": role}).Decode(&user)
	if err != nil {
		return apierror.Unauthorized(c, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return apierror.Unauthorized(c, "invalid email or password")
	}

	t, err := token.Issue(h.cfg.JWTSecret, user.ID.Hex(), role)
	if err != nil {
		return apierror.Internal(c, "cannot generate token")
	}

	return c.JSON(fiber.Map{
		"token": t,
		"id":    user.ID.Hex(),
		"name":  user.Name,
		"email": user.Email,
		"role":  role,
	})
}

// LoginPatient authenticates against the users collection with the
// patient role.
func (h *Handler) LoginPatient(c *fiber.Ctx) error {
	return h.loginUserRole(c, models.RolePatient)
}

// LoginAdmin authenticates against the users collection with the admin
// role. Admin accounts are provisioned out-of-band.
func (h *Handler) LoginAdmin(c *fiber.Ctx) error {
	return h.loginUserRole(c, models.RoleAdmin)
}

// LoginDoctor authenticates against the doctors collection. The issued
// token carries the linked login id, which the access guard resolves
// back to the profile via the userId back-reference.
func (h *Handler) LoginDoctor(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	var doctor models.Doctor
	err := h.collection("doctors").FindOne(ctx, bson.M{"email": req.Email}).Decode(&doctor)
	if err != nil {
		return apierror.Unauthorized(c, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(doctor.Password), []byte(req.Password)); err != nil {
		return apierror.Unauthorized(c, "invalid email or password")
	}

	t, err := token.Issue(h.cfg.JWTSecret, doctor.UserID.Hex(), models.RoleDoctor)
	if err != nil {
		return apierror.Internal(c, "cannot generate token")
	}

	return c.JSON(fiber.Map{
		"token":  t,
		"id":     doctor.ID.Hex(),
		"name":   doctor.Name,
		"email":  doctor.Email,
		"role":   models.RoleDoctor,
		"status": doctor.Status,
	})
}

// ForgotPassword stores a one-hour reset token and mails a reset link.
// The mail is best-effort; the token is persisted either way.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Email == "" {
		return apierror.Validation(c, "email is required")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	resetToken := uuid.NewString()
	expires := time.Now().Add(time.Hour)

	err := h.collection("users").FindOneAndUpdate(ctx,
		bson.M{"email": req.Email},
		bson.M{"$set": bson.M{"resetToken": resetToken, "resetExpires": expires, "updatedAt": time.Now()}},
	).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.NotFound(c, "no user found with this email")
		}
		return apierror.Internal(c, "cannot store reset token")
	}

	h.sendPasswordResetEmail(req.Email, h.cfg.FrontendURL+"/reset-password/"+resetToken)

	return c.JSON(fiber.Map{"message": "Reset link sent to email"})
}

// ResetPassword consumes a reset token and stores a new password hash.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	resetToken := c.Params("token")

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apierror.Validation(c, "cannot parse JSON")
	}
	if req.Password == "" {
		return apierror.Validation(c, "password is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apierror.Internal(c, "cannot hash password")
	}

	ctx, cancel := dbCtx()
	defer cancel()

	err = h.collection("users").FindOneAndUpdate(ctx,
		bson.M{"resetToken": resetToken, "resetExpires": bson.M{"$gt": time.Now()}},
		bson.M{
			"$set":   bson.M{"password": string(hashed), "updatedAt": time.Now()},
			"$unset": bson.M{"resetToken": "", "resetExpires": ""},
		},
	).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return apierror.Validation(c, "invalid or expired reset token")
		}
		return apierror.Internal(c, "cannot reset password")
	}

	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}
