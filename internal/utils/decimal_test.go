package utils

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestNumericToFloat64(t *testing.T) {
	cases := []struct {
		name  string
		value pgtype.Numeric
		want  float64
	}{
		{"invalid", pgtype.Numeric{}, 0},
		{"whole", pgtype.Numeric{Int: big.NewInt(250), Valid: true}, 250},
		{"cents", pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}, 123.45},
		{"negative", pgtype.Numeric{Int: big.NewInt(-500), Exp: -1, Valid: true}, -50},
	}
	for _, tc := range cases {
		if got := NumericToFloat64(tc.value); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
