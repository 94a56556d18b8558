package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatCellValueSerialDates(t *testing.T) {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

	for n := serialDateMin; n < serialDateMax; n += 7 {
		want := epoch.AddDate(0, 0, n).Format("02/01/2006")
		assert.Equal(t, want, FormatCellValue(float64(n)), "serial %d", n)
	}

	assert.Equal(t, "15/03/2023", FormatCellValue(45000))
	assert.Equal(t, "15/03/2023", FormatCellValue(45000.75))
}

func TestFormatCellValueBoundaries(t *testing.T) {
	assert.Equal(t, "29999", FormatCellValue(29999))
	assert.Equal(t, "60000", FormatCellValue(60000))
	assert.NotEqual(t, "30000", FormatCellValue(30000))
}

func TestFormatCellValue(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"trimmed string", "  Trocar filtro ", "Trocar filtro"},
		{"integer", 123, "123"},
		{"decimal comma", 12.5, "12,5"},
		{"three decimals", 1.23456, "1,235"},
		{"negative", -4.2, "-4,2"},
		{"bool", true, "true"},
		{"time", time.Date(2024, time.May, 2, 13, 0, 0, 0, time.UTC), "02/05/2024"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatCellValue(tc.in))
		})
	}
}

func TestParseTaskDate(t *testing.T) {
	d, ok := ParseTaskDate("15/03/2023")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseTaskDate("5/3/2024")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "05/03/2024", FormatTaskDate(d))

	_, ok = ParseTaskDate("")
	assert.False(t, ok)
	_, ok = ParseTaskDate("2023-03-15")
	assert.False(t, ok)
	_, ok = ParseTaskDate("N/A")
	assert.False(t, ok)
}
