package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartLine_UnmarshalLegacy(t *testing.T) {
	raw := `[{"title":"Widget","sku":1001,"price":"100","qty":"2"},{"id":42,"title":"Bolt","sku":"B1","price":5.5,"qty":3}]`

	var lines []CartLine
	require.NoError(t, json.Unmarshal([]byte(raw), &lines))
	require.Len(t, lines, 2)

	assert.Equal(t, CartLine{ID: "", Title: "Widget", SKU: "1001", Price: 100, Qty: 2}, lines[0])
	assert.False(t, lines[0].Resolved())
	assert.Equal(t, CartLine{ID: "42", Title: "Bolt", SKU: "B1", Price: 5.5, Qty: 3}, lines[1])
}

func TestCartLine_FractionalQuantityDecodesAsZero(t *testing.T) {
	var line CartLine
	require.NoError(t, json.Unmarshal([]byte(`{"id":"P1","qty":2.5,"price":1}`), &line))
	assert.Equal(t, 0, line.Qty)
}

func TestCartLine_Label(t *testing.T) {
	assert.Equal(t, "Widget (W1)", CartLine{Title: "Widget", SKU: "W1"}.Label())
	assert.Equal(t, "Widget", CartLine{Title: "Widget"}.Label())
	assert.Equal(t, "W1", CartLine{SKU: "W1"}.Label())
}

func TestNumber_Unmarshal(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12,5"`, 12.5},
		{`" 7 "`, 7},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &n), tt.raw)
		assert.Equal(t, tt.want, float64(n), tt.raw)
	}

	var n Number
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &n))
}

func TestCanonicalID(t *testing.T) {
	assert.Equal(t, "", CanonicalID(nil))
	assert.Equal(t, "U1", CanonicalID(" U1 "))
	assert.Equal(t, "123", CanonicalID(123))
	assert.Equal(t, "123", CanonicalID(int64(123)))
	assert.Equal(t, "123", CanonicalID(123.0))
	assert.Equal(t, "1.5", CanonicalID(1.5))
	assert.Equal(t, "987654321", CanonicalID(json.Number("987654321")))
}

func TestPaymentMethod_Valid(t *testing.T) {
	for _, m := range PaymentMethods {
		assert.True(t, m.Valid(), m)
		assert.NotEmpty(t, m.Label())
	}
	assert.False(t, PaymentMethod("Barter").Valid())
}

func TestSubmissionTransitions(t *testing.T) {
	assert.True(t, CanTransitionTo(SubmissionIdle, SubmissionSubmitting))
	assert.True(t, CanTransitionTo(SubmissionSubmitting, SubmissionSucceeded))
	assert.True(t, CanTransitionTo(SubmissionSubmitting, SubmissionFailed))
	assert.True(t, CanTransitionTo(SubmissionFailed, SubmissionSubmitting))
	assert.False(t, CanTransitionTo(SubmissionSubmitting, SubmissionSubmitting))
	assert.False(t, CanTransitionTo(SubmissionIdle, SubmissionSucceeded))
	assert.True(t, SubmissionSubmitting.InFlight())
}

func TestOrderDraft_Total(t *testing.T) {
	d := OrderDraft{Items: []OrderItem{{ID: "P1", Qty: 2, Price: 100}, {ID: "P2", Qty: 1, Price: 0.5}}}
	assert.Equal(t, 200.5, d.Total())
}
