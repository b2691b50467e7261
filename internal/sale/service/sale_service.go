package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsstand/internal/domain"
	"newsstand/internal/dto"
	apperrors "newsstand/internal/errors"
	"newsstand/internal/uow"
)

type SaleService struct {
	uow    uow.Factory
	now    func() time.Time
	logger *zap.Logger
}

func NewSaleService(factory uow.Factory, logger *zap.Logger) *SaleService {
	return &SaleService{
		uow:    factory,
		now:    time.Now,
		logger: logger,
	}
}

// Create records a sale with one item per line. Every product must exist and
// the sale must be finalizable; otherwise nothing is written. Product stock is
// left untouched.
func (s *SaleService) Create(ctx context.Context, lines []dto.SaleLine, note *string) (*dto.SaleDTO, error) {
	sale, err := domain.NewSale(note, s.now())
	if err != nil {
		return nil, err
	}

	u, err := s.uow.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to begin unit of work", zap.Error(err))
		return nil, err
	}
	defer u.Rollback()

	for idx, line := range lines {
		product, err := u.Products().FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			s.logger.Warn("sale references unknown product", zap.Int64("productId", line.ProductID), zap.Int("line", idx))
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", line.ProductID))
		}

		if err := sale.AddItem(product, line.Quantity); err != nil {
			return nil, err
		}
	}

	if !sale.CanBeFinalized() {
		return nil, apperrors.NewValidationError("sale cannot be finalized",
			apperrors.ValidationDetail{Field: "items", Message: "a sale needs at least one item and a positive total"},
		)
	}

	if err := u.Sales().Add(ctx, sale); err != nil {
		s.logger.Error("failed to add sale", zap.Error(err))
		return nil, err
	}

	rows, err := u.Commit()
	if err != nil {
		s.logger.Error("failed to commit sale", zap.Error(err))
		return nil, err
	}

	s.logger.Info("sale created",
		zap.Int64("saleId", sale.ID()),
		zap.Int("itemCount", sale.ItemCount()),
		zap.String("total", sale.Total().StringFixed(2)),
		zap.Int64("rowsAffected", rows),
	)

	out := dto.NewSaleDTO(sale)
	return &out, nil
}

// GetByID returns the sale with its items, or nil when it does not exist.
func (s *SaleService) GetByID(ctx context.Context, id int64) (*dto.SaleDTO, error) {
	u, err := s.uow.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	sale, err := u.Sales().FindByID(ctx, id, uow.WithItems())
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, nil
	}

	out := dto.NewSaleDTO(sale)
	return &out, nil
}

// GetAll lists sales newest first, with items.
func (s *SaleService) GetAll(ctx context.Context) ([]dto.SaleDTO, error) {
	u, err := s.uow.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	sales, err := u.Sales().FindAll(ctx, uow.WithItems())
	if err != nil {
		return nil, err
	}

	return dto.NewSaleDTOs(sales), nil
}

// GetByPeriod lists sales sold within [from, to], newest first, with items.
func (s *SaleService) GetByPeriod(ctx context.Context, from, to time.Time) ([]dto.SaleDTO, error) {
	if to.Before(from) {
		return nil, apperrors.NewValidationError("invalid period",
			apperrors.ValidationDetail{Field: "to", Message: "must not be before from"},
		)
	}

	u, err := s.uow.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	sales, err := u.Sales().FindByPeriod(ctx, from, to, uow.WithItems())
	if err != nil {
		return nil, err
	}

	return dto.NewSaleDTOs(sales), nil
}

func (s *SaleService) UpdateNote(ctx context.Context, id int64, note *string) (*dto.SaleDTO, error) {
	u, err := s.uow.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to begin unit of work", zap.Error(err))
		return nil, err
	}
	defer u.Rollback()

	sale, err := u.Sales().FindByID(ctx, id, uow.WithItems())
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sale with id %d not found", id))
	}

	if err := sale.UpdateNote(note); err != nil {
		return nil, err
	}

	if err := u.Sales().Update(ctx, sale); err != nil {
		s.logger.Error("failed to update sale", zap.Int64("saleId", id), zap.Error(err))
		return nil, err
	}

	if _, err := u.Commit(); err != nil {
		s.logger.Error("failed to commit sale note", zap.Int64("saleId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("sale note updated", zap.Int64("saleId", id))

	out := dto.NewSaleDTO(sale)
	return &out, nil
}

// Remove deletes the sale and its items.
func (s *SaleService) Remove(ctx context.Context, id int64) error {
	u, err := s.uow.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to begin unit of work", zap.Error(err))
		return err
	}
	defer u.Rollback()

	if err := u.Sales().Remove(ctx, id); err != nil {
		return err
	}

	rows, err := u.Commit()
	if err != nil {
		s.logger.Error("failed to commit sale removal", zap.Int64("saleId", id), zap.Error(err))
		return err
	}

	s.logger.Info("sale removed", zap.Int64("saleId", id), zap.Int64("rowsAffected", rows))
	return nil
}
