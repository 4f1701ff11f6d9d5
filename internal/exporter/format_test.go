package exporter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil is empty", nil, ""},
		{"string", "sell-put", "sell-put"},
		{"float rounds to two places", 27.3871, "27.39"},
		{"float pads to two places", 13.4, "13.40"},
		{"negative float", -0.005, "-0.01"},
		{"int", 3, "3"},
		{"int64", int64(1500), "1500"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"decimal", decimal.RequireFromString("215.5"), "215.50"},
		{"date", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2024-02-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatCell(tt.input))
		})
	}
}
