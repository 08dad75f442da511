package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/producehub/producehub-backend/internal/orders"
	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/pkg/enums"
)

func TestStoresCSVHeaderAndQuoting(t *testing.T) {
	rows := []stores.StoreDTO{
		{Name: "Green Leaf", OwnerName: "Ana", Email: "ana@leaf.test", Phone: "555-0100", Address: "12 Main St, Suite 4", City: "Fresno", State: "CA", ZipCode: "93701"},
		{Name: `Bob's "Best"`, OwnerName: "Bob", Email: "bob@best.test", Phone: "555-0101", Address: "9 Elm", City: "Visalia", State: "CA"},
	}
	var buf bytes.Buffer
	require.NoError(t, Stores(rows).WriteCSV(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Store Name,Owner Name,Email,Phone,Address,City,State,Zip Code", lines[0])
	assert.Equal(t, `Green Leaf,Ana,ana@leaf.test,555-0100,"12 Main St, Suite 4",Fresno,CA,93701`, lines[1])
	assert.Equal(t, `"Bob's ""Best""",Bob,bob@best.test,555-0101,9 Elm,Visalia,CA,`, lines[2], "empty zip still yields eight columns")
}

func TestStoresCSVEmptyListHasHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Stores(nil).WriteCSV(&buf))
	assert.Equal(t, "Store Name,Owner Name,Email,Phone,Address,City,State,Zip Code\n", buf.String())
}

func TestOrdersTableFormatsMoney(t *testing.T) {
	delivery := time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC)
	o := orders.OrderDTO{OrderNumber: "ORD-000042", StoreName: "Green Leaf", Status: enums.OrderStatusPending, DeliveryDate: &delivery, CreatedAt: delivery.AddDate(0, 0, -3)}
	o.SubtotalCents, o.TaxCents, o.TotalCents = 10000, 825, 10825
	o.Items = make([]orders.ItemDTO, 2)

	tbl := Orders([]orders.OrderDTO{o})
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"ORD-000042", "Green Leaf", "pending", "2026-05-14", "2", "100.00", "8.25", "0.00", "0.00", "108.25", "2026-05-11T00:00:00Z"}, tbl.Rows[0])
}

func TestXLSXMatchesCSVRows(t *testing.T) {
	tbl := Stores([]stores.StoreDTO{{Name: "Green Leaf", OwnerName: "Ana", Email: "a@x.test", Phone: "1", Address: "2", City: "3", State: "4", ZipCode: "5"}})
	data, err := tbl.XLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	got, err := f.GetRows("Stores")
	require.NoError(t, err)
	assert.Equal(t, [][]string{StoreHeader, tbl.Rows[0]}, got)
}

func TestRaggedTablesAreRejected(t *testing.T) {
	tbl := Table{Header: []string{"a", "b"}, Rows: [][]string{{"only one"}}}
	assert.Error(t, tbl.WriteCSV(&bytes.Buffer{}))
	_, err := tbl.XLSX()
	assert.Error(t, err)
}
