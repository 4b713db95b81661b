package dashboard

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"abayaStore/domain"
	"abayaStore/pkg/logger"

	"github.com/tealeg/xlsx"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var orderExportHeader = []string{
	"Order Number", "Date", "Customer", "Email", "Status", "Payment Status",
	"Items", "Subtotal", "Discount", "Shipping", "Tax", "Total",
}

func (s *dashboardService) ExportOrdersCSV(ctx context.Context, filter domain.OrderFilter, w io.Writer) error {
	orders, err := s.orders.ListForExport(ctx, filter)
	if err != nil {
		logger.Error("Failed to load orders for export", err)
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(orderExportHeader); err != nil {
		return err
	}
	for _, o := range orders {
		var name, email string
		if o.User != nil {
			name, email = o.User.FullName, o.User.Email
		}
		record := []string{
			o.OrderNumber,
			o.CreatedAt.Format(exportTimeLayout),
			name,
			email,
			string(o.Status),
			string(o.PaymentStatus),
			strconv.Itoa(o.ItemCount()),
			o.Subtotal.StringFixed(2),
			o.DiscountAmount.StringFixed(2),
			o.ShippingCost.StringFixed(2),
			o.TaxAmount.StringFixed(2),
			o.Total.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *dashboardService) ExportSalesCSV(ctx context.Context, q SalesQuery, w io.Writer) error {
	report, err := s.SalesReport(ctx, q)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Period", "Orders", "Total"}); err != nil {
		return err
	}
	for _, b := range report.Buckets {
		if err := cw.Write([]string{
			b.Period.Format("2006-01-02"),
			strconv.FormatInt(b.OrderCount, 10),
			b.Total.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"Total", strconv.FormatInt(report.OrderCount, 10), report.TotalSales.StringFixed(2)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

var productExportHeader = []string{
	"ID", "Name", "SKU", "Price", "Sale Price", "Stock", "Active", "Featured", "Categories", "Created At", "Updated At",
}

func (s *dashboardService) ExportProductsXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to load products for export", err)
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range productExportHeader {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.SKU)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		if p.SalePrice.Valid {
			row.AddCell().SetValue(p.SalePrice.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetValue("")
		}
		row.AddCell().SetValue(p.Quantity)
		row.AddCell().SetValue(p.IsActive)
		row.AddCell().SetValue(p.IsFeatured)

		var cats string
		for i, c := range p.Categories {
			if i > 0 {
				cats += ", "
			}
			cats += c.Name
		}
		row.AddCell().SetValue(cats)
		row.AddCell().SetValue(p.CreatedAt.Format(exportTimeLayout))
		row.AddCell().SetValue(p.UpdatedAt.Format(exportTimeLayout))
	}

	return file.Write(w)
}
