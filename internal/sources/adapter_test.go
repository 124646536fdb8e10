package sources

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespipe/internal/errors"
	"salespipe/internal/shared/testutil"
)

func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestAdapter(t *testing.T, spec SourceSpec) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(spec, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	require.NoError(t, err)
	return adapter
}

const onlineHeader = "order_id,date,product,category,region,channel,quantity,unit_price,revenue,payment_method,customer_id,discount_pct,return_flag"

func TestAdapterLoad_Online(t *testing.T) {
	content := onlineHeader + "\n" +
		"1001,2024-03-15,Laptop Pro,Electronics,North,Online,2,899.99,1799.98,Credit Card,CUST-88,0.05,0\n" +
		"1002,2024-03-16,Desk Chair,Furniture,South,Online,1,249.50,249.50,PayPal,CUST-12,0,1\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "ONL-1001", first.TransactionID)
	assert.Equal(t, "2024-03-15", first.Date.Format("2006-01-02"))
	assert.Equal(t, "Laptop Pro", first.ProductName)
	assert.Equal(t, "Electronics", first.Category)
	assert.Equal(t, "North", first.Region)
	assert.Equal(t, "Online", first.Channel)
	assert.Equal(t, 2, first.Quantity)
	assert.InDelta(t, 899.99, first.UnitPrice, 1e-9)
	require.NotNil(t, first.Revenue)
	assert.InDelta(t, 1799.98, *first.Revenue, 1e-9)
	assert.Equal(t, "Credit Card", first.PaymentMethod)
	assert.Equal(t, "CUST-88", first.CustomerID)
	assert.InDelta(t, 0.05, first.DiscountPct, 1e-9)
	assert.False(t, first.IsReturned)
	assert.Equal(t, "online", first.Source)

	assert.True(t, records[1].IsReturned)
}

func TestAdapterLoad_RetailNormalizesRegions(t *testing.T) {
	content := "transaction_id,sale_date,item_name,product_cat,store_region,sales_channel,qty_sold,price_each,total_revenue,payment,cust_id,discount,returned\n" +
		"2001,15/03/2024,Notebook,Stationery,north,Retail,3,4.99,14.97,Cash,C-1,0,0\n" +
		"2002,16/03/2024,Notebook,Stationery,SOUTH,Retail,1,4.99,4.99,Cash,C-2,0,0\n" +
		"2003,17/03/2024,Notebook,Stationery,East,Retail,1,4.99,4.99,Cash,C-3,0,0\n" +
		"2004,18/03/2024,Notebook,Stationery,west,Retail,1,4.99,4.99,Cash,C-4,0,0\n" +
		"2005,19/03/2024,Notebook,Stationery,Central,Retail,1,4.99,4.99,Cash,C-5,0,0\n"
	path := writeSourceFile(t, "sales_retail.csv", content)

	records, err := newTestAdapter(t, Retail()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 5)

	regions := make([]string, 0, len(records))
	for _, record := range records {
		regions = append(regions, record.Region)
	}
	assert.Equal(t, []string{"North", "South", "East", "West", "Central"}, regions)

	// Day-first layout: 15/03/2024 is March 15th.
	assert.Equal(t, "2024-03-15", records[0].Date.Format("2006-01-02"))
	assert.Equal(t, "RET-2001", records[0].TransactionID)
}

func TestAdapterLoad_Wholesale(t *testing.T) {
	content := "ref_number,invoice_date,product_name,category,territory,channel,units,unit_cost,gross_revenue,payment_type,account_id,promo_rate,is_returned\n" +
		"3001,2024/03/20,Pallet Paper,Office,West,Wholesale,40,12.00,480.00,Invoice,ACC-7,0.1,1\n"
	path := writeSourceFile(t, "sales_wholesale.csv", content)

	records, err := newTestAdapter(t, Wholesale()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "WHL-3001", record.TransactionID)
	assert.Equal(t, "2024-03-20", record.Date.Format("2006-01-02"))
	assert.Equal(t, "West", record.Region)
	assert.Equal(t, 40, record.Quantity)
	assert.True(t, record.IsReturned)
	assert.Equal(t, "wholesale", record.Source)
}

func TestAdapterLoad_StripsByteOrderMark(t *testing.T) {
	content := "\xEF\xBB\xBF" + onlineHeader + "\n" +
		"1001,2024-03-15,Laptop,Electronics,North,Online,1,100,100,Cash,C-1,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ONL-1001", records[0].TransactionID)
}

func TestAdapterLoad_KeepsExistingPrefix(t *testing.T) {
	content := onlineHeader + "\n" +
		"ONL-1001,2024-03-15,Laptop,Electronics,North,Online,1,100,100,Cash,C-1,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ONL-1001", records[0].TransactionID)
}

func TestAdapterLoad_MissingRevenueStaysNull(t *testing.T) {
	content := onlineHeader + "\n" +
		"1001,2024-03-15,Laptop,Electronics,North,Online,1,100,,Cash,C-1,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Revenue)
	assert.False(t, records[0].HasRevenue())
}

func TestAdapterLoad_BadDateBecomesNull(t *testing.T) {
	content := onlineHeader + "\n" +
		"1001,2024-03-15,Laptop,Electronics,North,Online,1,100,100,Cash,C-1,0,0\n" +
		"1002,not-a-date,Laptop,Electronics,North,Online,1,100,100,Cash,C-2,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].HasDate())
	assert.False(t, records[1].HasDate())
}

func TestAdapterLoad_WrongDateLayoutIsSchemaError(t *testing.T) {
	// Every date row carries the retail day-first layout, so the online
	// layout matches nothing. That is a mapping defect, not bad values.
	content := onlineHeader + "\n" +
		"1001,15/03/2024,Laptop,Electronics,North,Online,1,100,100,Cash,C-1,0,0\n" +
		"1002,16/03/2024,Laptop,Electronics,North,Online,1,100,100,Cash,C-2,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	_, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeSchema, apperrors.GetErrorType(err))
	assert.Contains(t, err.Error(), "date layout")
}

func TestAdapterLoad_MissingColumnIsSchemaError(t *testing.T) {
	// Header without the revenue column.
	content := "order_id,date,product,category,region,channel,quantity,unit_price,payment_method,customer_id,discount_pct,return_flag\n" +
		"1001,2024-03-15,Laptop,Electronics,North,Online,1,100,Cash,C-1,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	_, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeSchema, apperrors.GetErrorType(err))
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestAdapterLoad_MissingFileIsStorageError(t *testing.T) {
	_, err := newTestAdapter(t, Online()).Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.GetErrorType(err))
}

func TestAdapterLoad_SkipsMalformedRows(t *testing.T) {
	content := onlineHeader + "\n" +
		"1001,2024-03-15,Laptop,Electronics,North,Online,1,100,100,Cash,C-1,0,0\n" +
		"1002,2024-03-16,short-row\n" +
		"1003,2024-03-17,Laptop,Electronics,North,Online,1,100,100,Cash,C-3,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := newTestAdapter(t, Online()).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ONL-1001", records[0].TransactionID)
	assert.Equal(t, "ONL-1003", records[1].TransactionID)
}

func TestAdapterLoad_WarnsOnDefectiveValues(t *testing.T) {
	logger, capture := testutil.NewTestLogger()
	adapter, err := NewAdapter(Online(), logger)
	require.NoError(t, err)

	content := onlineHeader + "\n" +
		"1001,2024-03-15,Laptop,Electronics,North,Online,abc,100,100,Cash,C-1,0,0\n" +
		"1002,2024-03-16,short-row\n" +
		"1003,2024-03-17,Laptop,Electronics,North,Online,1,100,100,Cash,C-3,0,0\n"
	path := writeSourceFile(t, "sales_online.csv", content)

	records, err := adapter.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, capture.Contains("loaded source rows"))
	require.Len(t, capture.ByLevel(slog.LevelWarn), 1)
	assert.True(t, capture.Contains("skipped defective source values"))
	assert.True(t, capture.HasAttr("malformed_rows", int64(1)))
	assert.True(t, capture.HasAttr("numeric_defects", int64(1)))
}

func TestNewAdapter_RejectsIncompleteSpec(t *testing.T) {
	spec := Online()
	delete(spec.Columns, FieldDate)

	_, err := NewAdapter(spec, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeConfig, apperrors.GetErrorType(err))
}
