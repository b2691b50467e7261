package sale

import (
	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/sale/controller"
	"newsstand/internal/sale/service"
	"newsstand/internal/uow"
)

func NewModule(factory uow.Factory, validator *commons.Validator, logger *zap.Logger) *controller.SaleController {
	svc := service.NewSaleService(factory, logger)
	return controller.NewSaleController(svc, validator, logger)
}
