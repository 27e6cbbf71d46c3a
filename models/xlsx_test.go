package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSX_RoundTrip(t *testing.T) {
	in := &Snapshot{
		Columns: []string{ColumnSku, ColumnProductName, ColumnConfidenceScore, ColumnProcessed},
		Rows: []Row{
			{ColumnSku: "A1", ColumnProductName: "Cola 330ml", ColumnConfidenceScore: "100", ColumnProcessed: "FALSE"},
			{ColumnSku: "007", ColumnProductName: "Bread, white", ColumnConfidenceScore: "", ColumnProcessed: "TRUE"},
		},
	}

	data, err := EncodeXLSX(in)
	require.NoError(t, err)

	out, err := DecodeXLSX(data)
	require.NoError(t, err)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, in.Rows, out.Rows)
}

func TestDecodeXLSX_HandlesBlankAndShortRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow(SheetName, "A1", &[]interface{}{"sku", " product_name ", "", "confidence_score"}))
	require.NoError(t, f.SetSheetRow(SheetName, "A2", &[]interface{}{"A1", "Cola", "ignored", 100}))
	require.NoError(t, f.SetSheetRow(SheetName, "A4", &[]interface{}{"B2"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	s, err := DecodeXLSX(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"sku", "product_name", "confidence_score"}, s.Columns)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, Row{"sku": "A1", "product_name": "Cola", "confidence_score": "100"}, s.Rows[0])
	assert.Equal(t, Row{"sku": "B2", "product_name": "", "confidence_score": ""}, s.Rows[1])
}

func TestDecodeXLSX_RejectsGarbage(t *testing.T) {
	_, err := DecodeXLSX([]byte("not a workbook"))
	assert.Error(t, err)
}
