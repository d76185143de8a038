package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/docpoint/clinic-booking-api/models"
)

func doctorDoc(id primitive.ObjectID, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "userId", Value: primitive.NewObjectID()},
		{Key: "name", Value: "Dr. B"},
		{Key: "email", Value: "drb@example.com"},
		{Key: "speciality", Value: "dermatology"},
		{Key: "status", Value: status},
		{Key: "isAvailable", Value: true},
	}
}

func adminApp(mtt *mtest.T) *fiber.App {
	h := newTestHandler(mtt.Client)
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	app := testApp(models.RoleAdmin, admin)
	app.Put("/api/admin/doctors/:id/approve", h.ApproveDoctor)
	app.Put("/api/admin/doctors/:id/reject", h.RejectDoctor)
	app.Put("/api/admin/appointments/:id/status", h.AdminUpdateAppointmentStatus)
	app.Delete("/api/admin/patients/:id", h.AdminDeletePatient)
	app.Post("/api/admin/doctors", h.AdminCreateDoctor)
	app.Get("/api/admin/doctors/:id", h.AdminGetDoctor)
	return app
}

func TestApproveDoctor(t *testing.T) {
	mt := mockTest(t)
	doctorID := primitive.NewObjectID()

	mt.Run("pending doctor is approved", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: doctorDoc(doctorID, models.VerificationApproved)},
		))

		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/doctors/"+doctorID.Hex()+"/approve", nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(mt, resp)
		doctor, _ := body["doctor"].(map[string]interface{})
		require.NotNil(mt, doctor)
		assert.Equal(mt, models.VerificationApproved, doctor["status"])
	})

	mt.Run("re-approving an approved doctor is accepted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: doctorDoc(doctorID, models.VerificationApproved)},
		))

		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/doctors/"+doctorID.Hex()+"/approve", nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)
	})

	mt.Run("rejecting flips the status", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: doctorDoc(doctorID, models.VerificationRejected)},
		))

		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/doctors/"+doctorID.Hex()+"/reject", nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(mt, resp)
		doctor, _ := body["doctor"].(map[string]interface{})
		require.NotNil(mt, doctor)
		assert.Equal(mt, models.VerificationRejected, doctor["status"])
	})

	mt.Run("unknown doctor is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: nil},
		))

		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/doctors/"+doctorID.Hex()+"/approve", nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusNotFound, resp.StatusCode)
	})

	mt.Run("invalid id is rejected", func(mt *mtest.T) {
		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/doctors/xyz/approve", nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestAdminUpdateAppointmentStatus(t *testing.T) {
	mt := mockTest(t)
	apptID := primitive.NewObjectID()

	mt.Run("any legal status value is accepted", func(mt *mtest.T) {
		mt.AddMockResponses(updateResponse(1))

		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/appointments/"+apptID.Hex()+"/status",
			fiber.Map{"status": models.StatusCancelled}))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)
	})

	mt.Run("unknown status value is rejected", func(mt *mtest.T) {
		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/appointments/"+apptID.Hex()+"/status",
			fiber.Map{"status": "Completed"}))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusBadRequest, resp.StatusCode)
	})

	mt.Run("unknown appointment is not found", func(mt *mtest.T) {
		mt.AddMockResponses(updateResponse(0))

		resp, err := adminApp(mt).Test(jsonRequest("PUT", "/api/admin/appointments/"+apptID.Hex()+"/status",
			fiber.Map{"status": models.StatusPaid}))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminDeletePatient(t *testing.T) {
	mt := mockTest(t)
	patientID := primitive.NewObjectID()

	mt.Run("existing patient is removed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		resp, err := adminApp(mt).Test(jsonRequest("DELETE", "/api/admin/patients/"+patientID.Hex(), nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)
	})

	mt.Run("unknown patient is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		resp, err := adminApp(mt).Test(jsonRequest("DELETE", "/api/admin/patients/"+patientID.Hex(), nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminGetDoctor(t *testing.T) {
	mt := mockTest(t)
	doctorID := primitive.NewObjectID()

	mt.Run("existing doctor is returned", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".doctors", mtest.FirstBatch,
			doctorDoc(doctorID, models.VerificationApproved)))

		resp, err := adminApp(mt).Test(jsonRequest("GET", "/api/admin/doctors/"+doctorID.Hex(), nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(mt, resp)
		assert.Equal(mt, doctorID.Hex(), body["id"])
		assert.NotContains(mt, body, "password")
	})

	mt.Run("unknown doctor is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".doctors", mtest.FirstBatch))

		resp, err := adminApp(mt).Test(jsonRequest("GET", "/api/admin/doctors/"+doctorID.Hex(), nil))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminCreateDoctor(t *testing.T) {
	mt := mockTest(t)

	payload := fiber.Map{
		"name":       "Dr. New",
		"email":      "new@example.com",
		"password":   "secret123",
		"speciality": "cardiology",
	}

	mt.Run("missing credentials are rejected", func(mt *mtest.T) {
		resp, err := adminApp(mt).Test(jsonRequest("POST", "/api/admin/doctors",
			fiber.Map{"name": "Dr. New"}))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusBadRequest, resp.StatusCode)
	})

	mt.Run("unknown status value is rejected", func(mt *mtest.T) {
		body := fiber.Map{"name": "Dr. New", "email": "new@example.com", "password": "secret123", "status": "verified"}
		resp, err := adminApp(mt).Test(jsonRequest("POST", "/api/admin/doctors", body))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusBadRequest, resp.StatusCode)
	})

	mt.Run("new doctor defaults to pending", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch),
			mtest.CreateCursorResponse(0, testDB+".doctors", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		resp, err := adminApp(mt).Test(jsonRequest("POST", "/api/admin/doctors", payload))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(mt, resp)
		assert.Equal(mt, models.VerificationPending, body["status"])
		assert.Equal(mt, "new@example.com", body["email"])
		assert.NotContains(mt, body, "password")
	})

	mt.Run("taken email is a conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "new@example.com"},
		}))

		resp, err := adminApp(mt).Test(jsonRequest("POST", "/api/admin/doctors", payload))
		require.NoError(mt, err)
		assert.Equal(mt, fiber.StatusConflict, resp.StatusCode)
	})
}
