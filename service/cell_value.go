package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// bare numbers in [serialDateMin, serialDateMax) are treated as spreadsheet serial dates
	serialDateMin = 30000
	serialDateMax = 60000

	// serial number of 1970-01-01 in the 1900 date system (epoch 1899-12-30)
	unixEpochSerial = 25569
	millisPerDay    = 86400 * 1000

	taskDateLayout = "02/01/2006"
	// day and month may be one or two digits
	taskDateParseLayout = "2/1/2006"
)

// FormatCellValue renders a raw cell as task text. Dates and serial dates
// become DD/MM/YYYY, other numbers use a decimal comma without grouping.
func FormatCellValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return FormatTaskDate(val)
	case *time.Time:
		if val == nil {
			return ""
		}
		return FormatTaskDate(*val)
	case string:
		return strings.TrimSpace(val)
	case bool:
		return strconv.FormatBool(val)
	}

	if f, ok := toFloat(v); ok {
		if f >= serialDateMin && f < serialDateMax {
			return FormatTaskDate(SerialToTime(f))
		}
		return formatNumber(f)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// SerialToTime converts a spreadsheet serial date to a UTC time, rounding the
// fractional day to the millisecond.
func SerialToTime(serial float64) time.Time {
	ms := math.Round((serial - unixEpochSerial) * millisPerDay)
	return time.UnixMilli(int64(ms)).UTC()
}

// FormatTaskDate renders t as DD/MM/YYYY in UTC
func FormatTaskDate(t time.Time) string {
	return t.UTC().Format(taskDateLayout)
}

// ParseTaskDate parses a DD/MM/YYYY task date, zero padding optional
func ParseTaskDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(taskDateParseLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// formatNumber pt-BR style: at most three decimals, comma separator, no grouping
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	rounded := math.Round(f*1000) / 1000
	if rounded == 0 {
		rounded = 0 // drops negative zero
	}
	return strings.Replace(strconv.FormatFloat(rounded, 'f', -1, 64), ".", ",", 1)
}
