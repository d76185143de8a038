package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docpoint/clinic-booking-api/apierror"
	"github.com/docpoint/clinic-booking-api/models"
	"github.com/docpoint/clinic-booking-api/token"
)

// Locals keys set by the middleware in this package.
const (
	LocalsUserID  = "userID"
	LocalsRole    = "role"
	LocalsAccount = "account"
)

// Protect verifies the bearer token and stashes the subject id and role
// claim in the request locals. Missing, malformed, expired and
// badly-signed tokens all end the request with 401.
func Protect(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return apierror.Unauthorized(c, "no token provided")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return apierror.Unauthorized(c, "invalid authorization header format")
		}

		claims, err := token.Verify(secret, parts[1])
		if err != nil {
			return apierror.Unauthorized(c, "invalid or expired token")
		}

		c.Locals(LocalsUserID, claims.UserID)
		c.Locals(LocalsRole, claims.Role)
		return c.Next()
	}
}

// RequireRoles gates an operation to a role set and resolves the
// caller's account record: patients and admins are looked up in the
// users collection by id, doctors in the doctors collection by the
// userId back-reference. The resolved record is stashed in locals so
// handlers can use the doctor profile id rather than the login id.
//
// Resolution runs on every request on purpose: an admin flipping a
// doctor's status or availability must be visible on the next call.
func RequireRoles(client *mongo.Client, db string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalsRole).(string)

		permitted := false
		for _, r := range roles {
			if role == r {
				permitted = true
				break
			}
		}
		if !permitted {
			return apierror.Forbidden(c, "role not permitted")
		}

		userID, _ := c.Locals(LocalsUserID).(string)
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return apierror.Forbidden(c, "account not found")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		switch role {
		case models.RolePatient, models.RoleAdmin:
			var user models.User
			err = client.Database(db).Collection("users").
				FindOne(ctx, bson.M{"_id": oid, "role": role}).Decode(&user)
			if err != nil {
				return apierror.Forbidden(c, "account not found")
			}
			c.Locals(LocalsAccount, &user)

		case models.RoleDoctor:
			var doctor models.Doctor
			err = client.Database(db).Collection("doctors").
				FindOne(ctx, bson.M{"userId": oid}).Decode(&doctor)
			if err != nil {
				return apierror.Forbidden(c, "account not found")
			}
			c.Locals(LocalsAccount, &doctor)

		default:
			return apierror.Forbidden(c, "account not found")
		}

		return c.Next()
	}
}

// RequireApprovedDoctor rejects doctors whose verification status is not
// approved. Runs after RequireRoles has resolved the doctor profile.
func RequireApprovedDoctor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		doctor, ok := c.Locals(LocalsAccount).(*models.Doctor)
		if !ok {
			return apierror.Forbidden(c, "account not found")
		}
		if doctor.Status != models.VerificationApproved {
			return apierror.Forbidden(c, "doctor account is not approved")
		}
		return c.Next()
	}
}
