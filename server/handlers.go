package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/reqmatch/core"
	"github.com/poiesic/reqmatch/storage"
)

// RequirementResponse is the JSON form of a requirement.
type RequirementResponse struct {
	ReferenceID string `json:"referenceId"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ChangeNote  string `json:"changeNote"`
}

// StandardResponse is the JSON form of a standard.
type StandardResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	RefID   string `json:"refId"`
	RefName string `json:"refName"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func toRequirementResponses(reqs []*core.Requirement) []RequirementResponse {
	out := make([]RequirementResponse, len(reqs))
	for i, r := range reqs {
		out[i] = RequirementResponse{
			ReferenceID: r.ReferenceID,
			Description: r.Description,
			Category:    r.Category,
			ChangeNote:  r.ChangeNote,
		}
	}
	return out
}

func toStandardResponse(s *core.Standard) StandardResponse {
	return StandardResponse{ID: s.ID, Type: s.Type, RefID: s.RefID, RefName: s.RefName}
}

type handler struct {
	service Service
	logger  *slog.Logger
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "reqmatch",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) listRequirements(c *gin.Context) {
	reqs, err := h.service.ListRequirements(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequirementResponses(reqs))
}

func (h *handler) listStandards(c *gin.Context) {
	stds, err := h.service.ListStandards(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]StandardResponse, len(stds))
	for i, s := range stds {
		out[i] = toStandardResponse(s)
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getRequirement(c *gin.Context) {
	req, err := h.service.GetRequirement(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequirementResponses([]*core.Requirement{req})[0])
}

func (h *handler) getStandard(c *gin.Context) {
	std, err := h.service.GetStandard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStandardResponse(std))
}

// search answers 404 when nothing clears the threshold.
func (h *handler) search(c *gin.Context) {
	results, err := h.service.SearchRequirements(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(results) == 0 {
		h.respondError(c, http.StatusNotFound, "no matching requirements")
		return
	}
	c.JSON(http.StatusOK, toRequirementResponses(results))
}

func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		h.respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		h.respondError(c, http.StatusNotFound, "not found")
	default:
		h.logger.Error("request failed", "path", c.Request.URL.Path, "requestId", c.GetString("requestId"), "err", err)
		h.respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg, RequestID: c.GetString("requestId")})
}
