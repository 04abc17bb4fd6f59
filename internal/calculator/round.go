package calculator

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds the exact binary value of v to 2 decimal places with
// ties to even. 2.675 is stored below the tie and rounds to 2.67.
func RoundMoney(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromBigRat(new(big.Rat).SetFloat64(v), 64).RoundBank(2).InexactFloat64()
}

// RoundMoneyPtr rounds *v, preserving nil.
func RoundMoneyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := RoundMoney(*v)
	return &r
}
