package reports

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAgingXLSX(t *testing.T) {
	rows := []AgingRow{
		{
			PartyCode: "C100", PartyName: "Acme",
			Current: decimal.NewFromInt(100), Days30: decimal.NewFromInt(50),
			Outstanding: decimal.NewFromInt(150),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAgingXLSX(&buf, "AR Aging", rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue("AR Aging", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Party Code", header)

	party, err := f.GetCellValue("AR Aging", "A2")
	require.NoError(t, err)
	assert.Equal(t, "C100", party)

	total, err := f.GetCellValue("AR Aging", "I2")
	require.NoError(t, err)
	assert.Equal(t, "150", total)
}

func TestWriteAgingXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAgingXLSX(&buf, "AP Aging", nil))
	assert.NotZero(t, buf.Len())
}
