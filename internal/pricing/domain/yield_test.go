package domain

import (
	"testing"
)

func TestBondYield_RoundTrip(t *testing.T) {
	cases := []BondParameters{
		bond(0.06, 1000, 10, 0.05, 2),
		bond(0, 1000, 2, 0.04, 1),
		bond(0.08, 100, 30, 0.11, 12),
		bond(0.02, 500, 1, -0.005, 4),
		bond(0.05, 1000, 5, 0.35, 1),
	}

	for _, p := range cases {
		pv, err := BondPresentValue(p)
		if err != nil {
			t.Fatalf("pv: %v", err)
		}

		y, err := BondYield(p, pv)
		if err != nil {
			t.Fatalf("yield for %+v: %v", p, err)
		}

		repriced := p
		repriced.YieldToMaturity = y
		got, err := BondPresentValue(repriced)
		if err != nil {
			t.Fatalf("reprice: %v", err)
		}
		if !almostEqual(got, pv, 1e-8) {
			t.Fatalf("round trip mismatch for %+v: got=%v want=%v (y=%v)", p, got, pv, y)
		}
		if !almostEqual(y, p.YieldToMaturity, 1e-9) {
			t.Fatalf("solved yield: got=%v want=%v", y, p.YieldToMaturity)
		}
	}
}

func TestBondYield_Errors(t *testing.T) {
	p := bond(0.05, 1000, 3, 0, 1)

	if _, err := BondYield(p, 0); !IsValidation(err) {
		t.Fatalf("zero target: expected validation error, got %v", err)
	}
	if _, err := BondYield(bond(0.05, 1000, 2.5, 0, 1), 950); !IsValidation(err) {
		t.Fatalf("fractional periods: expected validation error, got %v", err)
	}
	if _, err := BondYield(bond(0.05, 1000, 0, 0, 1), 1000); !IsComputation(err) {
		t.Fatalf("zero maturity: expected computation error, got %v", err)
	}
}
