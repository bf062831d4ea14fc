package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/service"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
	"github.com/modelhub-io/modelhub-api/pkg/response"
)

// AccessHandler wires HTTP endpoints to the access service.
type AccessHandler struct {
	service *service.AccessService
}

// NewAccessHandler creates a new handler.
func NewAccessHandler(svc *service.AccessService) *AccessHandler {
	return &AccessHandler{service: svc}
}

// List godoc
// @Summary List a project's collaborators
// @Description Return all access grants on a project; the caller needs any access on the project
// @Tags Access
// @Produce json
// @Param id path int true "Project id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id}/access [get]
func (h *AccessHandler) List(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	projectID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "project id must be an integer"))
		return
	}

	infos, err := h.service.ListForProject(c.Request.Context(), uid, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, infos)
}

// Create godoc
// @Summary Grant access
// @Description Grant a role on a project to a user identified by id, username or email; requires the Editor role
// @Tags Access
// @Accept json
// @Produce json
// @Param payload body models.CreateAccessRequest true "Access payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /access [post]
func (h *AccessHandler) Create(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req models.CreateAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid access payload"))
		return
	}

	access, err := h.service.Create(c.Request.Context(), uid, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, access)
}

// Update godoc
// @Summary Change a grant's role
// @Description Change the role on an existing grant; requires the Editor role, the owner's grant is immutable
// @Tags Access
// @Accept json
// @Produce json
// @Param id path int true "Access id"
// @Param payload body models.UpdateAccessRequest true "New role"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /access/{id} [patch]
func (h *AccessHandler) Update(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	accessID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "access id must be an integer"))
		return
	}

	var req models.UpdateAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid access payload"))
		return
	}

	if err := h.service.Update(c.Request.Context(), uid, accessID, req.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Revoke a grant
// @Description Remove an access grant; requires the Editor role, the owner's grant cannot be removed
// @Tags Access
// @Produce json
// @Param id path int true "Access id"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /access/{id} [delete]
func (h *AccessHandler) Delete(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	accessID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "access id must be an integer"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), uid, accessID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
