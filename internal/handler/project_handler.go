package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/service"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
	"github.com/modelhub-io/modelhub-api/pkg/response"
)

// ProjectHandler wires HTTP endpoints to the project service.
type ProjectHandler struct {
	service *service.ProjectService
}

// NewProjectHandler creates a new handler.
func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: svc}
}

// Get godoc
// @Summary Get a project
// @Description Return the project with its queries and edit-lock state; an Editor reading a free project claims the lock
// @Tags Projects
// @Produce json
// @Param id path int true "Project id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	uid, token, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	projectID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "project id must be an integer"))
		return
	}

	res, err := h.service.Get(c.Request.Context(), uid, token, projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// List godoc
// @Summary List visible projects
// @Description Return the projects the authenticated user has access to, with their role on each
// @Tags Projects
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	infos, err := h.service.ListInfo(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, infos)
}

// Create godoc
// @Summary Create a project
// @Description Create a project; the caller becomes owner with an Editor grant and their session holds the edit lock
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body models.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	uid, token, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}

	project, err := h.service.Create(c.Request.Context(), uid, token, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update godoc
// @Summary Update a project
// @Description Update a project; requires the Editor role and possession of the edit lock
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project id"
// @Param payload body models.UpdateProjectRequest true "Fields to update"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id} [patch]
func (h *ProjectHandler) Update(c *gin.Context) {
	uid, token, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	projectID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "project id must be an integer"))
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}

	if err := h.service.Update(c.Request.Context(), uid, token, projectID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a project
// @Description Delete a project; only the owner may delete
// @Tags Projects
// @Produce json
// @Param id path int true "Project id"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
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

	if err := h.service.Delete(c.Request.Context(), uid, projectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func callerFromContext(c *gin.Context) (int64, string, bool) {
	uid, ok := userIDFromContext(c)
	if !ok {
		return 0, "", false
	}
	token, ok := accessTokenFromContext(c)
	if !ok {
		return 0, "", false
	}
	return uid, token, true
}
