package entity

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "integer", raw: "1500", want: "1500"},
		{name: "fraction", raw: "1500.75", want: "1500.75"},
		{name: "trailing point", raw: "42.", want: "42"},
		{name: "surrounding spaces", raw: "  10 ", want: "10"},
		{name: "letters", raw: "12a", wantErr: true},
		{name: "negative", raw: "-5", wantErr: true},
		{name: "comma separator", raw: "1,5", wantErr: true},
		{name: "zero", raw: "0", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "single", raw: "01.24", want: []string{"01.24"}},
		{name: "several", raw: "01.24  02.24\t03.24", want: []string{"01.24", "02.24", "03.24"}},
		{name: "month thirteen", raw: "13.24", wantErr: true},
		{name: "month zero", raw: "00.24", wantErr: true},
		{name: "single digit", raw: "1.24", wantErr: true},
		{name: "garbage token", raw: "01.24 abc", wantErr: true},
		{name: "blank", raw: "   ", wantErr: true},
		{name: "repeated", raw: "01.24 02.24 01.24", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComment(t *testing.T) {
	got, err := ParseComment("   office chairs ")
	require.NoError(t, err)
	assert.Equal(t, "office chairs", got)

	_, err = ParseComment(" \t ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod("Безнал", DefaultPaymentMethods)
	require.NoError(t, err)
	assert.Equal(t, "безнал", got)

	_, err = ParsePaymentMethod("cheque", DefaultPaymentMethods)
	assert.ErrorIs(t, err, ErrValidation)
}
