package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docpoint/clinic-booking-api/config"
	"github.com/docpoint/clinic-booking-api/mailer"
	"github.com/docpoint/clinic-booking-api/uploads"
)

// Handler carries the shared dependencies of every HTTP handler.
type Handler struct {
	client *mongo.Client
	db     string
	mail   mailer.Sender
	docs   uploads.Store
	cfg    config.Config
}

func NewHandler(client *mongo.Client, cfg config.Config, mail mailer.Sender, docs uploads.Store) *Handler {
	return &Handler{client: client, db: cfg.DatabaseName, mail: mail, docs: docs, cfg: cfg}
}

func (h *Handler) collection(name string) *mongo.Collection {
	return h.client.Database(h.db).Collection(name)
}

func dbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
