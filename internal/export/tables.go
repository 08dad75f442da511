package export

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/internal/stores"
)

// StoreHeader is the literal header of the store list export.
var StoreHeader = []string{"Store Name", "Owner Name", "Email", "Phone", "Address", "City", "State", "Zip Code"}

// Stores builds the store export from already filtered and sorted rows.
func Stores(rows []stores.StoreDTO) Table {
	t := Table{Sheet: "Stores", Header: StoreHeader, Rows: make([][]string, 0, len(rows))}
	for _, s := range rows {
		t.Rows = append(t.Rows, []string{s.Name, s.OwnerName, s.Email, s.Phone, s.Address, s.City, s.State, s.ZipCode})
	}
	return t
}

var OrderHeader = []string{"Order Number", "Store", "Status", "Delivery Date", "Items", "Subtotal", "Tax", "Shipping", "Discount", "Total", "Created At"}

func Orders(rows []orders.OrderDTO) Table {
	t := Table{Sheet: "Orders", Header: OrderHeader, Rows: make([][]string, 0, len(rows))}
	for _, o := range rows {
		delivery := ""
		if o.DeliveryDate != nil {
			delivery = o.DeliveryDate.UTC().Format(time.DateOnly)
		}
		t.Rows = append(t.Rows, []string{
			o.OrderNumber,
			o.StoreName,
			string(o.Status),
			delivery,
			strconv.Itoa(len(o.Items)),
			money(o.SubtotalCents),
			money(o.TaxCents),
			money(o.ShippingCents),
			money(o.DiscountCents),
			money(o.TotalCents),
			o.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return t
}

func money(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
