package controller

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/dto"
)

type DashboardService interface {
	GetDashboardData(ctx context.Context, ref time.Time) (*dto.DashboardDTO, error)
}

type DashboardController struct {
	service  DashboardService
	now      func() time.Time
	location *time.Location
	logger   *zap.Logger
}

func NewDashboardController(service DashboardService, logger *zap.Logger) *DashboardController {
	return &DashboardController{
		service:  service,
		now:      time.Now,
		location: time.Local,
		logger:   logger,
	}
}

// Get serves the figures for the month of ?date=YYYY-MM-DD, or the current
// month when absent.
func (c *DashboardController) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	ref, ok, err := commons.QueryDate(r, "date", c.location)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if !ok {
		ref = c.now().In(c.location)
	}

	data, err := c.service.GetDashboardData(r.Context(), ref)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, data, logger)
}
