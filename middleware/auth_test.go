package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/docpoint/clinic-booking-api/models"
	"github.com/docpoint/clinic-booking-api/token"
)

const testSecret = "test-secret"

func protectedApp() *fiber.App {
	app := fiber.New()
	app.Use(Protect(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userID": c.Locals(LocalsUserID),
			"role":   c.Locals(LocalsRole),
		})
	})
	return app
}

func TestProtectMissingToken(t *testing.T) {
	app := protectedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectBadHeaderFormat(t *testing.T) {
	app := protectedApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectGarbageToken(t *testing.T) {
	app := protectedApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProtectValidToken(t *testing.T) {
	app := protectedApp()

	id := primitive.NewObjectID().Hex()
	tok, err := token.Issue(testSecret, id, models.RolePatient)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRolesRejectsWrongRole(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalsUserID, primitive.NewObjectID().Hex())
		c.Locals(LocalsRole, models.RolePatient)
		return c.Next()
	})
	// nil client is safe: the role check fails before any lookup
	app.Get("/admin", RequireRoles(nil, "clinic", models.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

// guardedApp stubs the token layer with fixed locals so the guard's
// account resolution can be exercised against a mock deployment.
func guardedApp(client *mongo.Client, userID, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(LocalsUserID, userID)
		c.Locals(LocalsRole, role)
		return c.Next()
	})
	app.Get("/op", RequireRoles(client, "clinic", role), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRolesAccountNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name string
		role string
		ns   string
	}{
		{"patient with no account record", models.RolePatient, "clinic.users"},
		{"admin with no account record", models.RoleAdmin, "clinic.users"},
		{"doctor with no profile", models.RoleDoctor, "clinic.doctors"},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(mtest.CreateCursorResponse(0, tt.ns, mtest.FirstBatch))

			app := guardedApp(mt.Client, primitive.NewObjectID().Hex(), tt.role)
			resp, err := app.Test(httptest.NewRequest("GET", "/op", nil))
			require.NoError(mt, err)
			assert.Equal(mt, fiber.StatusForbidden, resp.StatusCode)

			// A vanished account is not the same denial as a wrong role.
			var body map[string]interface{}
			require.NoError(mt, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(mt, "account not found", body["error"])
		})
	}
}

func TestRequireRolesResolvesDoctorAccount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("doctor profile found", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		doc := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "userId", Value: userID},
			{Key: "status", Value: models.VerificationApproved},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "clinic.doctors", mtest.FirstBatch, doc))

		app := guardedApp(mt.Client, userID.Hex(), models.RoleDoctor)
		resp, err := app.Test(httptest.NewRequest("GET", "/op", nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)
	})
}

func TestRequireApprovedDoctor(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   int
	}{
		{"approved doctor passes", models.VerificationApproved, fiber.StatusOK},
		{"pending doctor denied", models.VerificationPending, fiber.StatusForbidden},
		{"rejected doctor denied", models.VerificationRejected, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				c.Locals(LocalsAccount, &models.Doctor{Status: tt.status})
				return c.Next()
			})
			app.Get("/dashboard", RequireApprovedDoctor(), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/dashboard", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
