package product

import (
	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/config"
	"newsstand/internal/product/controller"
	"newsstand/internal/product/service"
	"newsstand/internal/uow"
)

func NewModule(factory uow.Factory, cfg *config.Config, validator *commons.Validator, logger *zap.Logger) *controller.ProductController {
	svc := service.NewProductService(factory, cfg.Dashboard.LowStockThreshold, logger)
	return controller.NewProductController(svc, validator, logger)
}
