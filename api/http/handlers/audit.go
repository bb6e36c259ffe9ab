package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/accounts/api/http/presenter"
	"github.com/artem13815/accounts/pkg/audit"
)

type AuditHandler struct {
	useCase audit.UseCase
}

func NewAuditHandler(useCase audit.UseCase) *AuditHandler {
	return &AuditHandler{useCase: useCase}
}

type logsResponse struct {
	Data  []audit.Event `json:"data"`
	Count int           `json:"count"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// List returns audit events, newest first.
// @Summary List audit events
// @Tags    audit
// @Produce json
// @Security BearerAuth
// @Param   page  query int    false "page number, from 1"
// @Param   limit query int    false "page size, at most 100"
// @Param   email query string false "case-insensitive email substring"
// @Param   from  query string false "inclusive lower bound, RFC 3339 or YYYY-MM-DD"
// @Param   to    query string false "inclusive upper bound, RFC 3339 or YYYY-MM-DD"
// @Success 200 {object} logsResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/logs [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	page, limit, err := parsePage(c)
	if err != nil {
		return presenter.FromError(c, err)
	}
	from, err := parseTime(c, "from", false)
	if err != nil {
		return presenter.FromError(c, err)
	}
	to, err := parseTime(c, "to", true)
	if err != nil {
		return presenter.FromError(c, err)
	}

	f := audit.Filter{Page: page, Limit: limit, Email: c.Query("email"), From: from, To: to}
	res, err := h.useCase.List(c.UserContext(), f)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, logsResponse{
		Data:  res.Events,
		Count: res.Total,
		Page:  res.Page,
		Limit: res.Limit,
	})
}
