package controller

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

// TransactionController is the back-office surface of the approval
// workflow. Every route is admin only.
type TransactionController struct {
	approvals service_interfaces.ApprovalService
	posting   service_interfaces.PostingService
}

func NewTransactionController(approvals service_interfaces.ApprovalService, posting service_interfaces.PostingService) *TransactionController {
	return &TransactionController{approvals: approvals, posting: posting}
}

func (c *TransactionController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "POST /transactions", c.submit, authMiddleware, true)
	handle(mux, "GET /transactions/pending", c.listPending, authMiddleware, true)
	handle(mux, "POST /transactions/{id}/approve", c.approve, authMiddleware, true)
	handle(mux, "POST /transactions/{id}/reject", c.reject, authMiddleware, true)
	handle(mux, "POST /transactions/{id}/post", c.post, authMiddleware, true)
	handle(mux, "POST /transactions/groups/{correlationId}/approve", c.approveGroup, authMiddleware, true)
}

func (c *TransactionController) submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SubmitTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	tx, err := req.ToDomain()
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}
	tx.Metadata["submittedBy"] = middleware.IdentityFrom(r.Context()).OwnerID

	submitted, err := c.approvals.Submit(r.Context(), tx)
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusCreated, "transaction submitted", models.NewTransactionResponse(submitted), start)
}

func (c *TransactionController) listPending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	query := r.URL.Query()
	filter := domain.TransactionFilter{
		OwnerID:       strings.TrimSpace(query.Get("ownerId")),
		CorrelationID: strings.TrimSpace(query.Get("correlationId")),
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			respondError[[]models.TransactionResponse](w, r, fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation), start)
			return
		}
		filter.Limit = limit
	}

	txs, err := c.approvals.ListPending(r.Context(), filter)
	if err != nil {
		respondError[[]models.TransactionResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "pending transactions", models.NewTransactionResponses(txs), start)
}

func (c *TransactionController) approve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ApproveTransactionRequest
	if err := decodeOptionalBody(w, r, &req); err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	adminID := middleware.IdentityFrom(r.Context()).OwnerID
	tx, err := c.approvals.Approve(r.Context(), r.PathValue("id"), adminID, req.EffectiveDate)
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "transaction approved", models.NewTransactionResponse(tx), start)
}

func (c *TransactionController) reject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.RejectTransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	adminID := middleware.IdentityFrom(r.Context()).OwnerID
	tx, err := c.approvals.Reject(r.Context(), r.PathValue("id"), adminID, req.Reason)
	if err != nil {
		respondError[models.TransactionResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "transaction rejected", models.NewTransactionResponse(tx), start)
}

func (c *TransactionController) post(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	result, err := c.posting.PostOnce(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError[models.PostingResultResponse](w, r, err, start)
		return
	}

	message := "transaction posted"
	if !result.Applied {
		message = "transaction already posted"
	}
	respondOK(w, r, http.StatusOK, message, models.NewPostingResultResponse(result), start)
}

func (c *TransactionController) approveGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	adminID := middleware.IdentityFrom(r.Context()).OwnerID
	txs, err := c.approvals.ApproveGroup(r.Context(), r.PathValue("correlationId"), adminID)
	if err != nil {
		respondError[[]models.TransactionResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "transaction group approved", models.NewTransactionResponses(txs), start)
}
