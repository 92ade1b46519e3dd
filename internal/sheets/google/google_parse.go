package google

import (
	"fmt"
	"strconv"
	"strings"

	"fondo/internal/core"
	"fondo/internal/source"
)

// parseValues converts a values matrix (as returned by the Sheets API) into
// records. The first row must be the header.
func parseValues(name string, values [][]interface{}) ([]core.Record, error) {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = toStrings(v)
	}
	return source.Decode(name, 1, rows)
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellString(v)
	}
	return out
}

// cellString renders unformatted cell values. Numbers come back as float64;
// they are printed without exponent so large amounts survive.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
