package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyUnmarshalAcceptsStringAndNumber(t *testing.T) {
	var payload struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"19.999","b":5.5,"c":null}`), &payload))
	assert.Equal(t, "20.00", payload.A.String())
	assert.Equal(t, "5.50", payload.B.String())
	assert.True(t, payload.C.IsZero())

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestMoneyArithmetic(t *testing.T) {
	unit := NewMoneyFromDecimal(decimal.RequireFromString("12.345"))
	assert.Equal(t, "12.35", unit.String())
	assert.Equal(t, "37.05", unit.Times(3).String())
	assert.Equal(t, "49.40", SumMoney(unit, unit.Times(3)).String())

	raw, err := json.Marshal(NewMoneyFromInt(89))
	require.NoError(t, err)
	assert.Equal(t, `"89.00"`, string(raw))
}
