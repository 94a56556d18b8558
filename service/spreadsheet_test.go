package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf := new(bytes.Buffer)
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf
}

func TestReadSpreadsheetXLSX(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Parada Geral 2024"},
		{"OM", "Descrição", "Setor", "Data Min"},
		{"123", "Trocar filtro", "A1", 45000},
		{},
		{"124", "Inspecionar bomba", "B2", 12.5},
	})

	sheet, err := ReadSpreadsheet("plano.xlsx", buf)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", sheet.Name)
	assert.Equal(t, []string{"OM", "Descrição", "Setor", "Data Min"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)

	first := sheet.Rows[0]
	assert.Equal(t, "123", first["OM"])
	assert.Equal(t, "Trocar filtro", first["Descrição"])
	assert.Equal(t, float64(45000), first["Data Min"])
	assert.Equal(t, "15/03/2023", FormatCellValue(first["Data Min"]))

	assert.Equal(t, "12,5", FormatCellValue(sheet.Rows[1]["Data Min"]))
}

func TestReadSpreadsheetHeaderNames(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"OM", "", "OM", "Texto"},
		{"1", "x", "2", "y"},
	})

	sheet, err := ReadSpreadsheet("dup.XLSX", buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"OM", "__EMPTY", "OM_1", "Texto"}, sheet.Headers)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "x", sheet.Rows[0]["__EMPTY"])
	assert.Equal(t, "2", sheet.Rows[0]["OM_1"])
}

func TestReadSpreadsheetNoData(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"OM", "Descrição"},
	})

	sheet, err := ReadSpreadsheet("vazio.xlsx", buf)
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows)
}

func TestReadSpreadsheetUnsupported(t *testing.T) {
	_, err := ReadSpreadsheet("plano.csv", strings.NewReader("OM;Descricao"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestHeaderNames(t *testing.T) {
	row := []interface{}{"", "", "A", "A", "A_1"}

	assert.Equal(t, []string{"__EMPTY", "__EMPTY_1", "A", "A_1", "A_1_1", "__EMPTY_2"}, headerNames(row, 6))
}
