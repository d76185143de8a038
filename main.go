package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docpoint/clinic-booking-api/config"
	"github.com/docpoint/clinic-booking-api/handlers"
	"github.com/docpoint/clinic-booking-api/mailer"
	"github.com/docpoint/clinic-booking-api/middleware"
	"github.com/docpoint/clinic-booking-api/models"
	"github.com/docpoint/clinic-booking-api/uploads"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Connect to MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("cannot connect to MongoDB")
	}
	defer client.Disconnect(ctx)

	if err := ensureIndexes(ctx, client, cfg.DatabaseName); err != nil {
		log.WithError(err).Fatal("cannot create indexes")
	}

	docs, err := uploads.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		log.WithError(err).Fatal("cannot initialize upload store")
	}

	h := handlers.NewHandler(client, cfg, mailer.FromConfig(cfg), docs)

	app := fiber.New()
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	}))
	app.Static("/uploads", cfg.UploadDir)

	// Public routes
	app.Post("/api/auth/register", h.RegisterPatient)
	app.Post("/api/auth/register-doctor", h.RegisterDoctor)
	app.Post("/api/auth/login", h.LoginPatient)
	app.Post("/api/auth/login-doctor", h.LoginDoctor)
	app.Post("/api/auth/login-admin", h.LoginAdmin)
	app.Post("/api/auth/verify-email", h.VerifyEmail)
	app.Post("/api/auth/forgot-password", h.ForgotPassword)
	app.Post("/api/auth/reset-password/:token", h.ResetPassword)
	app.Get("/api/doctors", h.ListDoctors)
	app.Get("/api/doctors/speciality/:spec", h.ListDoctorsBySpeciality)
	app.Get("/api/doctors/:id", h.GetDoctor)
	app.Post("/api/uploads", h.UploadDocument)

	// Everything below requires a valid bearer token
	app.Use(middleware.Protect(cfg.JWTSecret))

	patientOnly := middleware.RequireRoles(client, cfg.DatabaseName, models.RolePatient)
	doctorOnly := middleware.RequireRoles(client, cfg.DatabaseName, models.RoleDoctor)
	patientOrDoctor := middleware.RequireRoles(client, cfg.DatabaseName, models.RolePatient, models.RoleDoctor)
	doctorOrAdmin := middleware.RequireRoles(client, cfg.DatabaseName, models.RoleDoctor, models.RoleAdmin)
	approvedDoctor := middleware.RequireApprovedDoctor()

	app.Post("/api/appointments", patientOnly, h.BookAppointment)
	app.Get("/api/appointments", patientOrDoctor, h.ListMyAppointments)
	app.Put("/api/appointments/:id/status", doctorOnly, approvedDoctor, h.UpdateAppointmentStatus)
	app.Put("/api/appointments/:id/cancel", patientOnly, h.CancelAppointment)
	app.Post("/api/appointments/:id/pay", patientOnly, h.PayAppointment)

	app.Get("/api/doctor/profile", doctorOnly, h.GetDoctorProfile)
	app.Put("/api/doctor/profile", doctorOnly, h.UpdateDoctorProfile)

	app.Post("/api/medical-history/appointment/:appointmentId", doctorOnly, approvedDoctor, h.UpsertMedicalHistory)
	app.Get("/api/medical-history/my", patientOnly, h.ListMyMedicalHistory)
	app.Get("/api/medical-history/patient/:patientId", doctorOrAdmin, h.ListPatientMedicalHistory)

	admin := app.Group("/api/admin", middleware.RequireRoles(client, cfg.DatabaseName, models.RoleAdmin))
	admin.Get("/doctors", h.AdminListDoctors)
	admin.Post("/doctors", h.AdminCreateDoctor)
	admin.Get("/doctors/pending", h.AdminListPendingDoctors)
	admin.Get("/doctors/:id", h.AdminGetDoctor)
	admin.Put("/doctors/:id/approve", h.ApproveDoctor)
	admin.Put("/doctors/:id/reject", h.RejectDoctor)
	admin.Put("/doctors/:id/availability", h.ToggleDoctorAvailability)
	admin.Delete("/doctors/:id", h.AdminDeleteDoctor)
	admin.Get("/patients", h.AdminListPatients)
	admin.Delete("/patients/:id", h.AdminDeletePatient)
	admin.Get("/appointments", h.AdminListAppointments)
	admin.Get("/medical-history", h.AdminListMedicalHistories)
	admin.Put("/appointments/:id/status", h.AdminUpdateAppointmentStatus)
	admin.Get("/summary", h.AdminSummary)

	log.WithField("port", cfg.Port).Info("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// ensureIndexes creates the unique email indexes. Every account,
// doctors included, has a users record, so the users.email index is
// what makes duplicate registration a Conflict under any interleaving.
func ensureIndexes(ctx context.Context, client *mongo.Client, db string) error {
	unique := options.Index().SetUnique(true)

	_, err := client.Database(db).Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = client.Database(db).Collection("doctors").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	// One medical history record per appointment; the upsert relies on
	// this to stay race-free.
	_, err = client.Database(db).Collection("medical_histories").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "appointmentId", Value: 1}},
		Options: unique,
	})
	return err
}
