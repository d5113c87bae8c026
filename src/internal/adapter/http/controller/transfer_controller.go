package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

type TransferController struct {
	service service_interfaces.TransferService
}

func NewTransferController(service service_interfaces.TransferService) *TransferController {
	return &TransferController{service: service}
}

func (c *TransferController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "POST /transfers", c.transfer, authMiddleware, false)
	handle(mux, "POST /transfers/fees", c.quoteFees, authMiddleware, false)
}

func (c *TransferController) transfer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.TransferResponse](w, r, err, start)
		return
	}

	var req models.TransferRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.TransferResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	transfer, err := req.ToDomain(ownerID)
	if err != nil {
		respondError[models.TransferResponse](w, r, err, start)
		return
	}

	result, err := c.service.CreateTransfer(r.Context(), transfer)
	if err != nil {
		respondError[models.TransferResponse](w, r, err, start)
		return
	}

	// An OTP challenge is a normal outcome: nothing was written yet.
	if result.RequiresOTP {
		respondOK(w, r, http.StatusAccepted, "otp verification required", models.NewTransferResponse(result), start)
		return
	}

	status := http.StatusCreated
	message := "transfer completed"
	if result.Status != domain.TransactionStatusApproved {
		message = "transfer submitted"
	}
	respondOK(w, r, status, message, models.NewTransferResponse(result), start)
}

func (c *TransferController) quoteFees(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.FeeQuoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.FeeQuoteResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respondError[models.FeeQuoteResponse](w, r, err, start)
		return
	}

	class, _ := domain.ParseTransferClass(req.Type)
	fees, err := c.service.QuoteFees(class, req.Amount, req.Urgent, req.DestinationCurrency)
	if err != nil {
		respondError[models.FeeQuoteResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "fee quote", models.NewFeeQuoteResponse(fees), start)
}
