package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "local trunk prefix", input: "0712345678", want: "254712345678"},
		{name: "country prefix", input: "254712345678", want: "254712345678"},
		{name: "plus country prefix", input: "+254712345678", want: "254712345678"},
		{name: "bare significant digits", input: "712345678", want: "254712345678"},
		{name: "safaricom 1xx range", input: "0110123456", want: "254110123456"},
		{name: "spaces and dashes", input: "0712 345-678", want: "254712345678"},
		{name: "too short", input: "12345", wantErr: true},
		{name: "too long", input: "25471234567890", wantErr: true},
		{name: "landline range", input: "0201234567", wantErr: true},
		{name: "letters", input: "07123456ab", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneEquivalence(t *testing.T) {
	a, err := NormalizePhone("0712345678")
	require.NoError(t, err)
	b, err := NormalizePhone("254712345678")
	require.NoError(t, err)
	c, err := NormalizePhone("+254712345678")
	require.NoError(t, err)

	assert.Equal(t, "254712345678", a)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		want    int
		wantErr bool
	}{
		{name: "rounds up", input: 1500.7, want: 1501},
		{name: "rounds down", input: 1500.3, want: 1500},
		{name: "whole number", input: 250, want: 250},
		{name: "one shilling", input: 1, want: 1},
		{name: "negative", input: -5, wantErr: true},
		{name: "zero", input: 0, wantErr: true},
		{name: "rounds to zero", input: 0.4, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatAmount(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
