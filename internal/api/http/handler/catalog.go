package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/apotheka/dispense-station/internal/backend"
	"github.com/apotheka/dispense-station/internal/catalog"
)

type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// GET /drugs/:code
func (h *CatalogHandler) Get(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "drug code is required")
	}

	drug, err := h.svc.Get(c.Context(), code)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return notFound(c, apiErr.Message)
		}
		return mapDispenseError(c, err)
	}
	return ok(c, drug)
}
