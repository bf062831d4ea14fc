package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/internal/service"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
	"github.com/modelhub-io/modelhub-api/pkg/response"
)

// QueryHandler wires HTTP endpoints to the query service.
type QueryHandler struct {
	service *service.QueryService
}

// NewQueryHandler creates a new handler.
func NewQueryHandler(svc *service.QueryService) *QueryHandler {
	return &QueryHandler{service: svc}
}

// Create godoc
// @Summary Create a query
// @Description Attach a verification query to a project; requires the Editor role
// @Tags Queries
// @Accept json
// @Produce json
// @Param payload body models.CreateQueryRequest true "Query payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /queries [post]
func (h *QueryHandler) Create(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req models.CreateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query payload"))
		return
	}

	query, err := h.service.Create(c.Request.Context(), uid, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, query)
}

// Update godoc
// @Summary Update a query
// @Description Replace the query string; requires the Editor role on the owning project
// @Tags Queries
// @Accept json
// @Produce json
// @Param id path int true "Query id"
// @Param payload body models.UpdateQueryRequest true "Query payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /queries/{id} [patch]
func (h *QueryHandler) Update(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	queryID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query id must be an integer"))
		return
	}

	var req models.UpdateQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query payload"))
		return
	}

	if err := h.service.Update(c.Request.Context(), uid, queryID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a query
// @Description Delete a query; requires the Editor role on the owning project
// @Tags Queries
// @Produce json
// @Param id path int true "Query id"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /queries/{id} [delete]
func (h *QueryHandler) Delete(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	queryID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query id must be an integer"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), uid, queryID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Send godoc
// @Summary Run a query
// @Description Run the query on the model-checking engine and store the verdict
// @Tags Queries
// @Produce json
// @Param id path int true "Query id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /queries/{id}/send [post]
func (h *QueryHandler) Send(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	queryID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "query id must be an integer"))
		return
	}

	res, err := h.service.Send(c.Request.Context(), uid, queryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}
