package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

type OTPController struct {
	service service_interfaces.OTPService
}

func NewOTPController(service service_interfaces.OTPService) *OTPController {
	return &OTPController{service: service}
}

func (c *OTPController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "POST /otp/request", c.request, authMiddleware, false)
	handle(mux, "POST /otp/verify", c.verify, authMiddleware, false)
}

func (c *OTPController) request(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.RequestOTPResponse](w, r, err, start)
		return
	}

	var req models.RequestOTPRequest
	if err := decodeOptionalBody(w, r, &req); err != nil {
		respondError[models.RequestOTPResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	issued, err := c.service.RequestOTP(r.Context(), ownerID, req.PurposeOrDefault(), req.Metadata)
	if err != nil {
		respondError[models.RequestOTPResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusCreated, "otp sent", models.NewRequestOTPResponse(issued), start)
}

func (c *OTPController) verify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.VerifyOTPResponse](w, r, err, start)
		return
	}

	var req models.VerifyOTPRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.VerifyOTPResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respondError[models.VerifyOTPResponse](w, r, err, start)
		return
	}

	proof, err := c.service.VerifyOTP(r.Context(), ownerID, req.PurposeOrDefault(), req.Code)
	if err != nil {
		respondError[models.VerifyOTPResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "otp verified", models.NewVerifyOTPResponse(proof), start)
}
