package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/docpoint/clinic-booking-api/apierror"
)

// UploadDocument stores one verification document (photo, id proof or
// degree certificate) and returns its URL. Clients pass the returned
// URL back in the doctor registration payload.
func (h *Handler) UploadDocument(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apierror.Validation(c, "file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return apierror.Internal(c, "cannot read uploaded file")
	}
	defer f.Close()

	url, err := h.docs.Save(fileHeader.Filename, f)
	if err != nil {
		return apierror.Internal(c, "cannot store uploaded file")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
