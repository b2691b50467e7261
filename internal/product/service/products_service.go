package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"newsstand/internal/domain"
	"newsstand/internal/dto"
	apperrors "newsstand/internal/errors"
	"newsstand/internal/uow"
)

type ProductService struct {
	uow               uow.Factory
	lowStockThreshold int
	logger            *zap.Logger
}

func NewProductService(factory uow.Factory, lowStockThreshold int, logger *zap.Logger) *ProductService {
	return &ProductService{
		uow:               factory,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

// GetByID returns nil without error when the product does not exist.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*dto.ProductDTO, error) {
	u, err := s.uow.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	product, err := u.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	out := dto.NewProductDTO(product)
	return &out, nil
}

func (s *ProductService) GetAll(ctx context.Context) ([]dto.ProductDTO, error) {
	return s.list(ctx, func(ctx context.Context, repo uow.ProductRepository) ([]*domain.Product, error) {
		return repo.FindAll(ctx)
	})
}

func (s *ProductService) GetActive(ctx context.Context) ([]dto.ProductDTO, error) {
	return s.list(ctx, func(ctx context.Context, repo uow.ProductRepository) ([]*domain.Product, error) {
		return repo.FindActive(ctx)
	})
}

// SearchByName returns an empty result for a blank query.
func (s *ProductService) SearchByName(ctx context.Context, query string) ([]dto.ProductDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []dto.ProductDTO{}, nil
	}

	return s.list(ctx, func(ctx context.Context, repo uow.ProductRepository) ([]*domain.Product, error) {
		return repo.SearchByName(ctx, query)
	})
}

// GetLowStock lists active products at or below threshold, lowest stock
// first. A threshold of zero or less uses the configured default.
func (s *ProductService) GetLowStock(ctx context.Context, threshold int) ([]dto.ProductDTO, error) {
	if threshold <= 0 {
		threshold = s.lowStockThreshold
	}

	return s.list(ctx, func(ctx context.Context, repo uow.ProductRepository) ([]*domain.Product, error) {
		return repo.FindLowStock(ctx, threshold)
	})
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductDTO, error) {
	product, err := domain.NewProduct(req.Name, req.Description, req.Price, req.Quantity, req.Barcode)
	if err != nil {
		return nil, err
	}

	u, err := s.uow.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to begin unit of work", zap.Error(err))
		return nil, err
	}
	defer u.Rollback()

	if err := checkBarcodeFree(ctx, u.Products(), product.Barcode(), 0); err != nil {
		return nil, err
	}

	if err := u.Products().Add(ctx, product); err != nil {
		s.logger.Error("failed to add product", zap.String("name", product.Name()), zap.Error(err))
		return nil, err
	}

	if _, err := u.Commit(); err != nil {
		s.logger.Error("failed to commit product creation", zap.Error(err))
		return nil, err
	}

	s.logger.Info("product created", zap.Int64("productId", product.ID()), zap.String("name", product.Name()))

	out := dto.NewProductDTO(product)
	return &out, nil
}

// Update re-checks barcode uniqueness only when the barcode changes.
func (s *ProductService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductDTO, error) {
	return s.mutate(ctx, id, "updated", func(ctx context.Context, repo uow.ProductRepository, product *domain.Product) error {
		current := product.Barcode()
		if err := product.Update(req.Name, req.Description, req.Price, req.Barcode); err != nil {
			return err
		}

		if next := product.Barcode(); !sameBarcode(current, next) {
			return checkBarcodeFree(ctx, repo, next, product.ID())
		}
		return nil
	})
}

func (s *ProductService) AddStock(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error) {
	return s.mutate(ctx, id, "stock added", func(_ context.Context, _ uow.ProductRepository, product *domain.Product) error {
		return product.AddStock(quantity)
	})
}

// RemoveStock writes stock off and may leave the quantity negative.
func (s *ProductService) RemoveStock(ctx context.Context, id int64, quantity int) (*dto.ProductDTO, error) {
	return s.mutate(ctx, id, "stock removed", func(_ context.Context, _ uow.ProductRepository, product *domain.Product) error {
		return product.RemoveStock(quantity)
	})
}

func (s *ProductService) Activate(ctx context.Context, id int64) (*dto.ProductDTO, error) {
	return s.mutate(ctx, id, "activated", func(_ context.Context, _ uow.ProductRepository, product *domain.Product) error {
		product.Activate()
		return nil
	})
}

func (s *ProductService) Deactivate(ctx context.Context, id int64) (*dto.ProductDTO, error) {
	return s.mutate(ctx, id, "deactivated", func(_ context.Context, _ uow.ProductRepository, product *domain.Product) error {
		product.Deactivate()
		return nil
	})
}

// Remove deletes the product. A product referenced by any sale item is kept
// and a ConflictError is returned.
func (s *ProductService) Remove(ctx context.Context, id int64) error {
	u, err := s.uow.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to begin unit of work", zap.Error(err))
		return err
	}
	defer u.Rollback()

	if err := u.Products().Remove(ctx, id); err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			s.logger.Warn("product still referenced by sales", zap.Int64("productId", id))
		}
		return err
	}

	if _, err := u.Commit(); err != nil {
		s.logger.Error("failed to commit product removal", zap.Int64("productId", id), zap.Error(err))
		return err
	}

	s.logger.Info("product removed", zap.Int64("productId", id))
	return nil
}

// mutate runs the fetch, change, persist and commit cycle on one product.
func (s *ProductService) mutate(
	ctx context.Context,
	id int64,
	action string,
	change func(ctx context.Context, repo uow.ProductRepository, product *domain.Product) error,
) (*dto.ProductDTO, error) {
	u, err := s.uow.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to begin unit of work", zap.Error(err))
		return nil, err
	}
	defer u.Rollback()

	repo := u.Products()

	product, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}

	if err := change(ctx, repo, product); err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, product); err != nil {
		s.logger.Error("failed to update product", zap.Int64("productId", id), zap.Error(err))
		return nil, err
	}

	if _, err := u.Commit(); err != nil {
		s.logger.Error("failed to commit product change", zap.Int64("productId", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("product "+action, zap.Int64("productId", id))

	out := dto.NewProductDTO(product)
	return &out, nil
}

func (s *ProductService) list(
	ctx context.Context,
	query func(ctx context.Context, repo uow.ProductRepository) ([]*domain.Product, error),
) ([]dto.ProductDTO, error) {
	u, err := s.uow.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	products, err := query(ctx, u.Products())
	if err != nil {
		return nil, err
	}

	return dto.NewProductDTOs(products), nil
}

// checkBarcodeFree fails with ConflictError when another product (any id but
// self) already carries barcode. A nil barcode is always free.
func checkBarcodeFree(ctx context.Context, repo uow.ProductRepository, barcode *string, self int64) error {
	if barcode == nil {
		return nil
	}

	existing, err := repo.FindByBarcode(ctx, *barcode)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID() != self {
		return apperrors.NewConflictError(fmt.Sprintf("barcode %s is already used by product %d", *barcode, existing.ID()))
	}
	return nil
}

func sameBarcode(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
