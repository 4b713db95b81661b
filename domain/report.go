package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

type SalesBucket struct {
	Period     time.Time       `json:"period"`
	Total      decimal.Decimal `json:"total"`
	OrderCount int64           `json:"order_count"`
}

type ProductSales struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
	Stock       int             `json:"stock"`
}

type SalesReport struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	Period            string          `json:"period"`
	Buckets           []SalesBucket   `json:"buckets"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	OrderCount        int64           `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopProducts       []ProductSales  `json:"top_products"`
}

type Overview struct {
	TotalRevenue   decimal.Decimal       `json:"total_revenue"`
	OrdersByStatus map[OrderStatus]int64 `json:"orders_by_status"`
	PendingReturns int64                 `json:"pending_returns"`
	LowStock       []Product             `json:"low_stock"`
	CustomerCount  int64                 `json:"customer_count"`
	RecentOrders   []Order               `json:"recent_orders"`
}
