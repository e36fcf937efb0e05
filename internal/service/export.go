package service

import (
	"bytes"
	"context"
	"fmt"

	"go-roastery-api/internal/model"
	"go-roastery-api/internal/repository"

	"github.com/xuri/excelize/v2"
)

const (
	ordersSheet = "Orders"
	itemsSheet  = "Items"
)

var (
	orderHeadings = []string{"Order ID", "Created At", "Customer", "Email", "Status", "Subscription",
		"Items Total", "Total Override", "Total", "Ship To", "City", "Country", "Locale", "Notes"}
	itemHeadings = []string{"Order ID", "Product", "Quantity", "Price At Purchase", "Free", "Line Total"}
)

// ExportOrders renders the filtered orders as an xlsx workbook
func (s *orderService) ExportOrders(ctx context.Context, filter repository.OrderFilter) ([]byte, error) {
	orders, err := s.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := ordersWorkbook(orders)
	if err != nil {
		return nil, fmt.Errorf("%w: export orders: %v", ErrUnexpected, err)
	}
	return data, nil
}

func ordersWorkbook(orders []model.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, ordersSheet, 1, toCells(orderHeadings)); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, toCells(itemHeadings)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i := range orders {
		o := &orders[i]
		var override interface{}
		if o.TotalOverride != nil {
			override = *o.TotalOverride
		}
		customer, email := "", ""
		if o.User != nil {
			customer, email = o.User.FullName, o.User.Email
		}

		row := []interface{}{
			o.ID.String(), o.CreatedAt, customer, email, string(o.Status), o.IsSubscription,
			o.ItemsTotal(), override, o.Total(), o.ShippingAddress.FullName, o.ShippingAddress.City,
			o.ShippingAddress.Country, o.Locale, o.Notes,
		}
		if err := writeRow(f, ordersSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, it := range o.Items {
			line := int64(0)
			if !it.IsFree {
				line = int64(it.Quantity) * it.PriceAtPurchase
			}
			if err := writeRow(f, itemsSheet, itemRow, []interface{}{
				o.ID.String(), it.ProductSlug, it.Quantity, it.PriceAtPurchase, it.IsFree, line,
			}); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(headings []string) []interface{} {
	cells := make([]interface{}, len(headings))
	for i, h := range headings {
		cells[i] = h
	}
	return cells
}
