package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

type LimitController struct {
	service service_interfaces.LimitService
}

func NewLimitController(service service_interfaces.LimitService) *LimitController {
	return &LimitController{service: service}
}

func (c *LimitController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "GET /limits", c.get, authMiddleware, false)
	handle(mux, "POST /limits/check", c.check, authMiddleware, false)
	handle(mux, "POST /limits/usage", c.recordUsage, authMiddleware, false)
	handle(mux, "PUT /limits", c.update, authMiddleware, true)
}

func (c *LimitController) get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	limits, err := c.service.GetLimits(r.Context(), ownerID)
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "limits retrieved", models.NewLimitsResponse(limits), start)
}

func (c *LimitController) check(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.LimitDecisionResponse](w, r, err, start)
		return
	}

	var req models.LimitCheckRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.LimitDecisionResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	kind, accountType, err := req.Parse()
	if err != nil {
		respondError[models.LimitDecisionResponse](w, r, err, start)
		return
	}

	decision, err := c.service.CheckLimit(r.Context(), ownerID, req.Amount, kind, accountType)
	if err != nil {
		respondError[models.LimitDecisionResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "limit checked", models.NewLimitDecisionResponse(decision), start)
}

func (c *LimitController) recordUsage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	var req models.LimitCheckRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	kind, accountType, err := req.Parse()
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	limits, err := c.service.RecordUsage(r.Context(), ownerID, req.Amount, kind, accountType)
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "usage recorded", models.NewLimitsResponse(limits), start)
}

func (c *LimitController) update(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.UpdateLimitsRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	update, err := req.ToDomain()
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	limits, err := c.service.UpdateLimits(r.Context(), strings.TrimSpace(req.OwnerID), update)
	if err != nil {
		respondError[models.LimitsResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "limits updated", models.NewLimitsResponse(limits), start)
}
