package controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/dto"
	apperrors "newsstand/internal/errors"
)

type SaleService interface {
	Create(ctx context.Context, lines []dto.SaleLine, note *string) (*dto.SaleDTO, error)
	GetByID(ctx context.Context, id int64) (*dto.SaleDTO, error)
	GetAll(ctx context.Context) ([]dto.SaleDTO, error)
	GetByPeriod(ctx context.Context, from, to time.Time) ([]dto.SaleDTO, error)
	UpdateNote(ctx context.Context, id int64, note *string) (*dto.SaleDTO, error)
	Remove(ctx context.Context, id int64) error
}

type SaleController struct {
	service   SaleService
	validator *commons.Validator
	location  *time.Location
	logger    *zap.Logger
}

func NewSaleController(service SaleService, validator *commons.Validator, logger *zap.Logger) *SaleController {
	return &SaleController{
		service:   service,
		validator: validator,
		location:  time.Local,
		logger:    logger,
	}
}

func (c *SaleController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	var req dto.CreateSaleRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if err := c.validator.Struct(req); err != nil {
		logger.Warn("invalid create sale request", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	sale, err := c.service.Create(r.Context(), req.Items, req.Note)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, sale, logger)
}

// List serves every sale, or with ?from=&to= the sales sold between the two
// dates inclusive of the whole "to" day.
func (c *SaleController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	from, hasFrom, err := commons.QueryDate(r, "from", c.location)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	to, hasTo, err := commons.QueryDate(r, "to", c.location)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	var sales []dto.SaleDTO
	switch {
	case !hasFrom && !hasTo:
		sales, err = c.service.GetAll(r.Context())
	case hasFrom && hasTo:
		sales, err = c.service.GetByPeriod(r.Context(), from, endOfDay(to))
	default:
		err = apperrors.NewValidationError("invalid period",
			apperrors.ValidationDetail{Field: "from", Message: "from and to must be given together"},
		)
	}
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, sales, logger)
}

func (c *SaleController) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	sale, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if sale == nil {
		commons.WriteError(w, traceID, apperrors.NewNotFoundError(fmt.Sprintf("sale with id %d not found", id)), logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, sale, logger)
}

func (c *SaleController) UpdateNote(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.UpdateSaleNoteRequest
	if err := commons.DecodeJSON(r, &req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if err := c.validator.Struct(req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	sale, err := c.service.UpdateNote(r.Context(), id, req.Note)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, sale, logger)
}

func (c *SaleController) Remove(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.service.Remove(r.Context(), id); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Microsecond)
}
