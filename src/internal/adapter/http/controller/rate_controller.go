package controller

import (
	"net/http"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

type RateController struct {
	service service_interfaces.RateService
}

func NewRateController(service service_interfaces.RateService) *RateController {
	return &RateController{service: service}
}

func (c *RateController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "GET /rates", c.getRates, authMiddleware, false)
}

// getRates lists every quote, or one pair when from and to are given. An
// amount is priced at that pair for display.
func (c *RateController) getRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")
	if from == "" && to == "" {
		rates, err := c.service.GetRates(r.Context())
		if err != nil {
			respondError[[]models.RateResponse](w, r, err, start)
			return
		}
		respondOK(w, r, http.StatusOK, "rates retrieved", models.NewRateResponses(rates), start)
		return
	}

	amount, convert, err := models.ParseQuoteAmount(query.Get("amount"))
	if err != nil {
		respondError[[]models.RateResponse](w, r, err, start)
		return
	}

	rate, err := c.service.GetRate(r.Context(), from, to)
	if err != nil {
		respondError[[]models.RateResponse](w, r, err, start)
		return
	}

	resp := models.NewRateResponse(rate)
	if convert {
		resp = resp.WithConversion(rate, amount)
	}
	respondOK(w, r, http.StatusOK, "rate retrieved", []models.RateResponse{resp}, start)
}
