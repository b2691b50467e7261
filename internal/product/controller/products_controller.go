package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/dto"
	apperrors "newsstand/internal/errors"
)

type ProductService interface {
	GetByID(ctx context.Context, id int64) (*dto.ProductDTO, error)
	GetAll(ctx context.Context) ([]dto.ProductDTO, error)
	GetActive(ctx context.Context) ([]dto.ProductDTO, error)
	SearchByName(ctx context.Context, query string) ([]dto.ProductDTO, error)
	GetLowStock(ctx context.Context, threshold int) ([]dto.ProductDTO, error)
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductDTO, error)
	Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductDTO, error)
	AddStock(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error)
	RemoveStock(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error)
	Activate(ctx context.Context, id int64) (*dto.ProductDTO, error)
	Deactivate(ctx context.Context, id int64) (*dto.ProductDTO, error)
	Remove(ctx context.Context, id int64) error
}

type ProductController struct {
	service   ProductService
	validator *commons.Validator
	logger    *zap.Logger
}

func NewProductController(service ProductService, validator *commons.Validator, logger *zap.Logger) *ProductController {
	return &ProductController{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// List serves every product, only active ones with ?active=true, or a name
// search with ?q=.
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)
	query := r.URL.Query()

	var (
		products []dto.ProductDTO
		err      error
	)
	switch {
	case query.Has("q"):
		products, err = c.service.SearchByName(r.Context(), query.Get("q"))
	case query.Get("active") == "true":
		products, err = c.service.GetActive(r.Context())
	default:
		products, err = c.service.GetAll(r.Context())
	}
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, products, logger)
}

func (c *ProductController) LowStock(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	threshold := 0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			commons.WriteError(w, traceID, apperrors.FieldError("threshold", "threshold must be a non-negative integer"), logger)
			return
		}
		threshold = n
	}

	products, err := c.service.GetLowStock(r.Context(), threshold)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, products, logger)
}

func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	product, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}
	if product == nil {
		commons.WriteError(w, traceID, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id)), logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, product, logger)
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	var req dto.CreateProductRequest
	if err := c.decode(r, &req); err != nil {
		logger.Warn("invalid create product request", zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	product, err := c.service.Create(r.Context(), req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, product, logger)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.UpdateProductRequest
	if err := c.decode(r, &req); err != nil {
		logger.Warn("invalid update product request", zap.Int64("productId", id), zap.Error(err))
		commons.WriteError(w, traceID, err, logger)
		return
	}

	product, err := c.service.Update(r.Context(), id, req)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, product, logger)
}

func (c *ProductController) AddStock(w http.ResponseWriter, r *http.Request) {
	c.changeStock(w, r, c.service.AddStock)
}

func (c *ProductController) RemoveStock(w http.ResponseWriter, r *http.Request) {
	c.changeStock(w, r, c.service.RemoveStock)
}

func (c *ProductController) Activate(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, c.service.Activate)
}

func (c *ProductController) Deactivate(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, c.service.Deactivate)
}

func (c *ProductController) Remove(w http.ResponseWriter, r *http.Request) {
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

func (c *ProductController) changeStock(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error)) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.StockChangeRequest
	if err := c.decode(r, &req); err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	product, err := change(r.Context(), id, req.Quantity)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, product, logger)
}

func (c *ProductController) toggle(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id int64) (*dto.ProductDTO, error)) {
	traceID, logger := commons.Trace(w, c.logger)

	id, err := commons.PathID(r, "id")
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	product, err := action(r.Context(), id)
	if err != nil {
		commons.WriteError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, product, logger)
}

func (c *ProductController) decode(r *http.Request, dst any) error {
	if err := commons.DecodeJSON(r, dst); err != nil {
		return err
	}
	return c.validator.Struct(dst)
}
