package controller

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
)

type ScheduleController struct {
	service service_interfaces.ScheduleService
}

func NewScheduleController(service service_interfaces.ScheduleService) *ScheduleController {
	return &ScheduleController{service: service}
}

func (c *ScheduleController) RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler) {
	handle(mux, "POST /scheduled-transfers", c.create, authMiddleware, false)
	handle(mux, "GET /scheduled-transfers", c.list, authMiddleware, false)
	handle(mux, "POST /scheduled-transfers/{id}/pause", c.transition(c.service.PauseSchedule, "schedule paused"), authMiddleware, false)
	handle(mux, "POST /scheduled-transfers/{id}/resume", c.transition(c.service.ResumeSchedule, "schedule resumed"), authMiddleware, false)
	handle(mux, "POST /scheduled-transfers/{id}/cancel", c.transition(c.service.CancelSchedule, "schedule cancelled"), authMiddleware, false)
	handle(mux, "POST /scheduled-transfers/sweep", c.sweep, authMiddleware, true)
}

func (c *ScheduleController) create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ownerID, err := callerID(r)
	if err != nil {
		respondError[models.ScheduleResponse](w, r, err, start)
		return
	}

	var req models.CreateScheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError[models.ScheduleResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	schedule, err := req.ToDomain(ownerID)
	if err != nil {
		respondError[models.ScheduleResponse](w, r, err, start)
		return
	}

	created, err := c.service.CreateSchedule(r.Context(), schedule)
	if err != nil {
		respondError[models.ScheduleResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusCreated, "schedule created", models.NewScheduleResponse(created), start)
}

// list returns the caller's schedules. Admins without an ownerId see all.
func (c *ScheduleController) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	var filter domain.ScheduleFilter
	identity := middleware.IdentityFrom(r.Context())
	if identity.IsAdmin() {
		filter.OwnerID = strings.TrimSpace(r.URL.Query().Get("ownerId"))
	} else {
		ownerID, err := callerID(r)
		if err != nil {
			respondError[[]models.ScheduleResponse](w, r, err, start)
			return
		}
		filter.OwnerID = ownerID
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.ScheduleStatus(strings.ToLower(strings.TrimSpace(part)))
			switch status {
			case domain.ScheduleStatusActive, domain.ScheduleStatusPaused, domain.ScheduleStatusCompleted, domain.ScheduleStatusCancelled:
				filter.Statuses = append(filter.Statuses, status)
			default:
				respondError[[]models.ScheduleResponse](w, r, fmt.Errorf("%w: unknown schedule status %q", domain.ErrValidation, part), start)
				return
			}
		}
	}

	schedules, err := c.service.ListSchedules(r.Context(), filter)
	if err != nil {
		respondError[[]models.ScheduleResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "schedules retrieved", models.NewScheduleResponses(schedules), start)
}

type scheduleTransition func(ctx context.Context, ownerID string, id string) (domain.ScheduledTransfer, error)

func (c *ScheduleController) transition(apply scheduleTransition, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logRequest(r, nil)

		// Admins act on any schedule; owners only on their own.
		ownerID := ""
		if !middleware.IdentityFrom(r.Context()).IsAdmin() {
			var err error
			if ownerID, err = callerID(r); err != nil {
				respondError[models.ScheduleResponse](w, r, err, start)
				return
			}
		}

		schedule, err := apply(r.Context(), ownerID, r.PathValue("id"))
		if err != nil {
			respondError[models.ScheduleResponse](w, r, err, start)
			return
		}

		respondOK(w, r, http.StatusOK, message, models.NewScheduleResponse(schedule), start)
	}
}

func (c *ScheduleController) sweep(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.SweepRequest
	if err := decodeOptionalBody(w, r, &req); err != nil {
		respondError[models.SweepReportResponse](w, r, err, start)
		return
	}
	logRequest(r, req)

	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}

	report, err := c.service.RunSweep(r.Context(), now)
	if err != nil {
		respondError[models.SweepReportResponse](w, r, err, start)
		return
	}

	respondOK(w, r, http.StatusOK, "sweep finished", models.NewSweepReportResponse(report), start)
}
