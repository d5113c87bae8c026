package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

type HolderController struct {
	service service_interfaces.AccountService
}

func NewHolderController(service service_interfaces.AccountService) *HolderController {
	return &HolderController{service: service}
}

func (c *HolderController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "POST /holders", c.createHolder, authMiddleware, true)
	handle(mux, "GET /holders/{id}", c.getHolder, authMiddleware, false)
	handle(mux, "GET /balances", c.balances, authMiddleware, false)
}

func (c *HolderController) createHolder(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateHolderRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.HolderResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respondError[models.HolderResponse](w, r, err, start)
		return
	}

	holder, err := c.service.CreateHolder(r.Context(), req.ToDomain())
	if err != nil {
		respondError[models.HolderResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusCreated, "holder created", models.NewHolderResponse(holder), start)
}

func (c *HolderController) getHolder(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	id := r.PathValue("id")
	identity := middleware.IdentityFrom(r.Context())
	if !identity.IsAdmin() && identity.OwnerID != id {
		// Other holders are indistinguishable from missing ones.
		respondError[models.HolderResponse](w, r, domain.ErrRecordNotFound, start)
		return
	}

	holder, err := c.service.GetHolder(r.Context(), id)
	if err != nil {
		respondError[models.HolderResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "holder retrieved", models.NewHolderResponse(holder), start)
}

func (c *HolderController) balances(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.RollupResponse](w, r, err, start)
		return
	}

	rollup, err := c.service.Rollup(r.Context(), ownerID)
	if err != nil {
		respondError[models.RollupResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "balances retrieved", models.NewRollupResponse(rollup), start)
}
