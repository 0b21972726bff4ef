package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/apotheka/dispense-station/internal/backend"
	"github.com/apotheka/dispense-station/internal/dispense"
)

type SessionHandler struct {
	svc  dispense.Service
	pipe *dispense.Pipeline
}

func NewSessionHandler(svc dispense.Service, pipe *dispense.Pipeline) *SessionHandler {
	return &SessionHandler{svc: svc, pipe: pipe}
}

func mapDispenseError(c fiber.Ctx, err error) error {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, dispense.ErrNoMachine):
		return badRequest(c, err.Error())
	case errors.As(err, &apiErr):
		// The backend's message is meant for the operator's eyes.
		return badGateway(c, apiErr.Message)
	default:
		return internalError(c)
	}
}

type sessionView struct {
	Active       bool                   `json:"active"`
	Prescription *dispense.Prescription `json:"prescription"`
}

// GET /session
func (h *SessionHandler) Get(c fiber.Ctx) error {
	p, active := h.svc.Snapshot()
	return ok(c, sessionView{Active: active, Prescription: p})
}

// POST /session/reset
func (h *SessionHandler) Reset(c fiber.Ctx) error {
	if err := h.svc.Reset(c.Context()); err != nil {
		return mapDispenseError(c, err)
	}
	p, active := h.svc.Snapshot()
	return ok(c, sessionView{Active: active, Prescription: p})
}

// POST /scan
//
// Manual scan injection; codes entered here take the exact same path as
// hardware scanner input, debounce guard included.
func (h *SessionHandler) Scan(c fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Code == "" {
		return badRequest(c, "code is required")
	}

	if !h.pipe.Submit(body.Code) {
		return tooManyRequests(c, "intake queue full")
	}
	return accepted(c, fiber.Map{"queued": true})
}
