package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/firetalk/switchboard/pkg/api/resource"
)

func (h *Handler) handleFetchCalls(c echo.Context) error {
	m, err := h.store.Calls().FetchAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	return c.JSON(http.StatusOK, resource.NewCallList(m))
}
