package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/firetalk/switchboard/pkg/api/resource"
	"github.com/firetalk/switchboard/pkg/storage"
)

func (h *Handler) handleRegisterUser(c echo.Context) error {
	r := &resource.UserResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(err))
	}

	m, err := resource.ValidateUser(r)
	if err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(err))
	}

	if err := h.store.Users().Create(m); err != nil {
		if err == storage.ErrValidation {
			return c.JSON(http.StatusBadRequest, newErrorResponse(err))
		}
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	return c.JSON(http.StatusCreated, resource.NewUser(m))
}

func (h *Handler) handleFetchUsers(c echo.Context) error {
	m, err := h.store.Users().FetchAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	return c.JSON(http.StatusOK, resource.NewUserList(m))
}

func (h *Handler) handleGetUserByID(c echo.Context) error {
	m, err := h.store.Users().FindByID(c.Param("id"))
	if err != nil && err == storage.ErrNotFound {
		return c.JSON(http.StatusNotFound, newErrorResponse(err))
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	return c.JSON(http.StatusOK, resource.NewUser(m))
}
