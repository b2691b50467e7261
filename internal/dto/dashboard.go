package dto

import "github.com/shopspring/decimal"

type DashboardDTO struct {
	InStockCount        int             `json:"inStockCount"`
	LowStockCount       int             `json:"lowStockCount"`
	SalesThisMonth      int             `json:"salesThisMonth"`
	SalesTotalThisMonth decimal.Decimal `json:"salesTotalThisMonth"`
	TopProducts         []TopProductDTO `json:"topProducts"`
}

type TopProductDTO struct {
	ProductName  string          `json:"productName"`
	QuantitySold int             `json:"quantitySold"`
	Total        decimal.Decimal `json:"total"`
}
