package dashboard

import (
	"go.uber.org/zap"

	"newsstand/internal/config"
	"newsstand/internal/dashboard/controller"
	"newsstand/internal/dashboard/service"
	"newsstand/internal/uow"
)

func NewModule(factory uow.Factory, cfg *config.Config, logger *zap.Logger) *controller.DashboardController {
	svc := service.NewDashboardService(factory, cfg.Dashboard.LowStockThreshold, cfg.Dashboard.TopProducts, logger)
	return controller.NewDashboardController(svc, logger)
}
