package valueobject

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToNumberOrZero(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"float", 40.5, "40.5"},
		{"nan", math.NaN(), "0"},
		{"inf", math.Inf(1), "0"},
		{"int", 24000, "24000"},
		{"int64", int64(-3), "-3"},
		{"uint", uint(9), "9"},
		{"json number", json.Number("12.25"), "12.25"},
		{"numeric string", " 500 ", "500"},
		{"decimal comma", "40,5", "40.5"},
		{"thousands and comma are garbage", "1.000,50", "0"},
		{"garbage string", "abc", "0"},
		{"empty string", "", "0"},
		{"bool", true, "0"},
		{"map", map[string]any{"x": 1}, "0"},
		{"decimal", decimal.RequireFromString("7.7"), "7.7"},
		{"nil decimal pointer", (*decimal.Decimal)(nil), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumberOrZero(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
