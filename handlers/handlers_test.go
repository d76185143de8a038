package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/docpoint/clinic-booking-api/config"
	"github.com/docpoint/clinic-booking-api/mailer"
	"github.com/docpoint/clinic-booking-api/middleware"
)

const testDB = "clinic"

func mockTest(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func newTestHandler(client *mongo.Client) *Handler {
	cfg := config.Config{
		DatabaseName: testDB,
		JWTSecret:    "test-secret",
		FrontendURL:  "http://localhost:8080",
	}
	return NewHandler(client, cfg, mailer.LogSender{}, nil)
}

// testApp builds a Fiber app whose requests already carry a resolved
// account in locals, standing in for the auth middleware chain.
func testApp(role string, account interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalsRole, role)
		c.Locals(middleware.LocalsAccount, account)
		return c.Next()
	})
	return app
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t require.TestingT, resp *http.Response) map[string]interface{} {
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}
