package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/firetalk/switchboard/pkg/api/resource"
)

// handleIssueToken hands out a media credential for an arbitrary channel.
// Collaborating services use this to join a channel out of band.
func (h *Handler) handleIssueToken(c echo.Context) error {
	r := &resource.TokenRequestResource{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(err))
	}

	if err := resource.ValidateTokenRequest(r); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(err))
	}

	tok, expiresAt, err := h.issuer.Token(r.ChannelName, r.UID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, newErrorResponse(err))
	}

	return c.JSON(http.StatusOK, resource.NewToken(r.ChannelName, r.UID, h.issuer.AppID(), tok, expiresAt))
}
