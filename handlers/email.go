package handlers

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/docpoint/clinic-booking-api/models"
)

// sendAsync delivers mail on a separate goroutine. Failures never reach
// the caller, only the log.
func (h *Handler) sendAsync(to, subject, body string) {
	go func() {
		if err := h.mail.Send(to, subject, body); err != nil {
			log.WithError(err).WithField("to", to).Warn("email delivery failed")
		}
	}()
}

func (h *Handler) sendWelcomeEmail(email, name, role string) {
	label := "Patient"
	switch role {
	case models.RoleDoctor:
		label = "Doctor"
	case models.RoleAdmin:
		label = "Admin"
	}
	body := fmt.Sprintf("<h2>Welcome, %s!</h2><p>Your <b>%s</b> account has been created successfully.</p>", name, label)
	h.sendAsync(email, "Welcome to DocPoint", body)
}

func (h *Handler) sendDoctorStatusEmail(doctor *models.Doctor, status string) {
	if doctor == nil || doctor.Email == "" {
		return
	}

	var subject, body string
	switch status {
	case models.VerificationApproved:
		subject = "Your doctor account has been approved"
		body = fmt.Sprintf("<h2>Congratulations Dr. %s,</h2><p>Your doctor account has been <b>approved</b>. You can now log in and start receiving appointments.</p>", doctor.Name)
	case models.VerificationRejected:
		subject = "Your doctor account application"
		body = fmt.Sprintf("<h2>Hello Dr. %s,</h2><p>Your doctor account has been <b>rejected</b>. Please re-upload your documents or contact support.</p>", doctor.Name)
	default:
		return
	}
	h.sendAsync(doctor.Email, subject, body)
}

func (h *Handler) sendPasswordResetEmail(email, resetURL string) {
	body := fmt.Sprintf("<h2>Reset Your Password</h2><p>Click the link below to reset your password:</p><a href=%q>%s</a>", resetURL, resetURL)
	h.sendAsync(email, "Password Reset Request", body)
}
