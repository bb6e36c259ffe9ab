package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/accounts/api/http/presenter"
	"github.com/artem13815/accounts/pkg/users"
)

type UsersHandler struct {
	useCase users.UseCase
}

func NewUsersHandler(useCase users.UseCase) *UsersHandler {
	return &UsersHandler{useCase: useCase}
}

// List returns registered users in registration order.
// @Summary List users
// @Tags    users
// @Produce json
// @Security BearerAuth
// @Param   page  query int    false "page number, from 1"
// @Param   limit query int    false "page size, at most 100"
// @Param   email query string false "case-insensitive email substring"
// @Success 200 {object} users.Page
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /auth/users [get]
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, limit, err := parsePage(c)
	if err != nil {
		return presenter.FromError(c, err)
	}
	res, err := h.useCase.List(c.UserContext(), users.Filter{
		Page:  page,
		Limit: limit,
		Email: c.Query("email"),
	})
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.JSON(c, http.StatusOK, res)
}
