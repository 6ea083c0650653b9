package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/firetalk/switchboard/pkg/api/resource"
)

func (h *Handler) handleHealth(c echo.Context) error {
	online, err := h.store.Users().FetchOnline()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	return c.JSON(http.StatusOK, resource.NewHealth(len(online)))
}
