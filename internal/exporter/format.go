package exporter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// formatFloat formats a float64 value with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int64 value
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatCell renders one ranking value for CSV. nil is an empty cell.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return formatInt(x)
	case bool:
		return formatBool(x)
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
