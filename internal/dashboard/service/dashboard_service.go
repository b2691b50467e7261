// Package service aggregates the dashboard read model. It never writes.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"newsstand/internal/dto"
	"newsstand/internal/uow"
)

type DashboardService struct {
	uow               uow.Factory
	lowStockThreshold int
	topProducts       int
	logger            *zap.Logger
}

func NewDashboardService(factory uow.Factory, lowStockThreshold, topProducts int, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		uow:               factory,
		lowStockThreshold: lowStockThreshold,
		topProducts:       topProducts,
		logger:            logger,
	}
}

// GetDashboardData summarizes stock levels and the sales of the calendar
// month containing ref, in ref's location. Sales are loaded with their items
// and aggregated in memory.
func (s *DashboardService) GetDashboardData(ctx context.Context, ref time.Time) (*dto.DashboardDTO, error) {
	u, err := s.uow.BeginReadOnly(ctx)
	if err != nil {
		return nil, err
	}
	defer u.Rollback()

	inStock, err := u.Products().CountInStock(ctx)
	if err != nil {
		return nil, err
	}

	lowStock, err := u.Products().FindLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}

	sales, err := u.Sales().FindByMonth(ctx, ref.Month(), ref.Year(), ref.Location(), uow.WithItems())
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	var groups []*dto.TopProductDTO
	byName := make(map[string]*dto.TopProductDTO)

	// Sales arrive newest first; ties keep the group that appears first.
	for _, sale := range sales {
		total = total.Add(sale.Total())

		for _, item := range sale.Items() {
			g, ok := byName[item.ProductName()]
			if !ok {
				g = &dto.TopProductDTO{ProductName: item.ProductName(), Total: decimal.Zero}
				byName[item.ProductName()] = g
				groups = append(groups, g)
			}
			g.QuantitySold += item.Quantity()
			g.Total = g.Total.Add(item.LineTotal())
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].QuantitySold > groups[j].QuantitySold
	})

	top := make([]dto.TopProductDTO, 0, min(len(groups), s.topProducts))
	for _, g := range groups {
		if len(top) == s.topProducts {
			break
		}
		top = append(top, *g)
	}

	s.logger.Debug("dashboard computed",
		zap.Int("year", ref.Year()),
		zap.String("month", ref.Month().String()),
		zap.Int("sales", len(sales)),
	)

	return &dto.DashboardDTO{
		InStockCount:        inStock,
		LowStockCount:       len(lowStock),
		SalesThisMonth:      len(sales),
		SalesTotalThisMonth: total,
		TopProducts:         top,
	}, nil
}
