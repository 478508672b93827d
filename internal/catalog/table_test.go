package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTable_CreatesMissingComputedColumns(t *testing.T) {
	records := [][]interface{}{
		{"model", "url1"},
		{"SKU-1", "https://example.com/1"},
		{"SKU-2", "https://example.com/2"},
	}

	table := ParseTable(records)

	assert.Equal(t, 2, table.Len())
	for _, col := range []string{ColPrice, ColPreviousPrice, ColChange, ColPercentChange, ColUpdatePrice, ColStorefrontPrice, ColDate} {
		assert.Contains(t, table.Header, col)
	}
	assert.Equal(t, "", table.Get(0, ColPrice))
	assert.Equal(t, "SKU-1", table.SKU(0))
	assert.Equal(t, "https://example.com/2", table.CompetitorURL(1))
}

func TestRecords_RoundTripPreservesRowsAndColumns(t *testing.T) {
	records := [][]interface{}{
		{"model", "url1", "note", "price1", "price-1", "change", "percent_change", "update_price", "price2", "date"},
		{"SKU-1", "https://example.com/1", "keep me", "95000", "100000", "-5000", "-5", "90000", "98000", "2025-01-01 00:00:00"},
		{"SKU-2", "", "", "", "", "", "", "", "", ""},
	}

	table := ParseTable(records)
	out := table.Records()

	assert.Equal(t, len(records), len(out))
	assert.Equal(t, len(records[0]), len(out[0]))
	for i, record := range records {
		for j, cell := range record {
			assert.Equal(t, cell, out[i][j], "row %d col %d", i, j)
		}
	}
	// The unknown "note" column survives the round trip in place
	assert.Equal(t, "note", out[0][2])
	assert.Equal(t, "keep me", out[1][2])
}

func TestParseTable_PadsShortRows(t *testing.T) {
	records := [][]interface{}{
		{"model", "url1", "price1"},
		{"SKU-1"},
	}

	table := ParseTable(records)

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "SKU-1", table.SKU(0))
	assert.Equal(t, "", table.CompetitorURL(0))
	assert.Equal(t, "", table.Get(0, ColDate))
}

func TestParseTable_NonStringCells(t *testing.T) {
	records := [][]interface{}{
		{"model", "url1", "price1"},
		{"SKU-1", nil, 95000},
	}

	table := ParseTable(records)

	assert.Equal(t, "", table.CompetitorURL(0))
	assert.Equal(t, "95000", table.Get(0, ColPrice))
}

func TestSetIgnoresUnknownColumnAndBadRow(t *testing.T) {
	table := ParseTable([][]interface{}{
		{"model", "url1"},
		{"SKU-1", ""},
	})

	table.Set(0, "nonexistent", "x")
	table.Set(5, ColPrice, "x")
	table.Set(0, ColPrice, "1000")

	assert.Equal(t, "1000", table.Get(0, ColPrice))
	assert.Equal(t, "", table.Get(5, ColPrice))
}

func TestObjects(t *testing.T) {
	table := ParseTable([][]interface{}{
		{"model", "url1"},
		{"SKU-1", "https://example.com/1"},
	})

	objects := table.Objects()
	assert.Len(t, objects, 1)
	assert.Equal(t, "SKU-1", objects[0]["model"])
	assert.Equal(t, "https://example.com/1", objects[0]["url1"])
	assert.Equal(t, "", objects[0][ColDate])
}
