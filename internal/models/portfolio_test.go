package models

import (
	"math"
	"testing"
)

func TestPosition_PrimaryIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		wantType IdentifierType
		wantID   string
	}{
		{"cusip wins over all", Position{Ticker: "AAPL-US", ISIN: "US0378331005", CUSIP: "037833100"}, IdentifierCUSIP, "037833100"},
		{"isin wins over ticker", Position{Ticker: "AAPL-US", ISIN: "US0378331005"}, IdentifierISIN, "US0378331005"},
		{"ticker only", Position{Ticker: "AAPL-US"}, IdentifierTicker, "AAPL-US"},
		{"nothing", Position{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotID := tt.pos.PrimaryIdentifier()
			if gotType != tt.wantType || gotID != tt.wantID {
				t.Errorf("PrimaryIdentifier() = (%q, %q), want (%q, %q)", gotType, gotID, tt.wantType, tt.wantID)
			}
		})
	}
}

func TestPortfolio_CalculateWeights_BookValue(t *testing.T) {
	p := NewPortfolio("test")
	p.AddPosition(&Position{Ticker: "AAA", Quantity: 10, BookValue: 3000})
	p.AddPosition(&Position{Ticker: "BBB", Quantity: 20, BookValue: 7000})

	p.CalculateWeights()

	if p.TotalValue != 10000 {
		t.Errorf("TotalValue = %v, want 10000", p.TotalValue)
	}
	if p.Positions[0].Weight != 30 {
		t.Errorf("AAA weight = %v, want 30", p.Positions[0].Weight)
	}
	if p.Positions[1].Weight != 70 {
		t.Errorf("BBB weight = %v, want 70", p.Positions[1].Weight)
	}
}

func TestPortfolio_CalculateWeights_MarketBasis(t *testing.T) {
	p := NewPortfolio("test")
	priced := &Position{Ticker: "AAA", Quantity: 10, BookValue: 3000}
	priced.SetMarketValue(6000)
	unpriced := &Position{Ticker: "BBB", Quantity: 20, BookValue: 7000}
	p.AddPosition(priced)
	p.AddPosition(unpriced)

	p.CalculateWeights()

	// Once any position is priced the market basis applies and
	// unpriced positions contribute zero.
	if p.TotalValue != 6000 {
		t.Errorf("TotalValue = %v, want 6000", p.TotalValue)
	}
	if priced.Weight != 100 {
		t.Errorf("priced weight = %v, want 100", priced.Weight)
	}
	if unpriced.Weight != 0 {
		t.Errorf("unpriced weight = %v, want 0", unpriced.Weight)
	}
}

func TestPortfolio_CalculateWeights_SumIsHundred(t *testing.T) {
	p := NewPortfolio("test")
	values := []float64{1234.56, 789.01, 4456.78, 12.34}
	for i, v := range values {
		pos := &Position{Ticker: string(rune('A' + i)), Quantity: 1, BookValue: v}
		p.AddPosition(pos)
	}

	p.CalculateWeights()

	sum := 0.0
	for _, pos := range p.Positions {
		sum += pos.Weight
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("weights sum = %v, want 100 within 1e-6", sum)
	}
}

func TestPortfolio_CalculateWeights_Empty(t *testing.T) {
	p := NewPortfolio("empty")
	p.CalculateWeights()
	if p.TotalValue != 0 {
		t.Errorf("TotalValue = %v, want 0", p.TotalValue)
	}
}

func TestPortfolio_CalculateWeights_ZeroTotal(t *testing.T) {
	p := NewPortfolio("zero")
	p.AddPosition(&Position{Ticker: "AAA", Quantity: 1, BookValue: 0})
	p.CalculateWeights()
	if p.Positions[0].Weight != 0 {
		t.Errorf("weight = %v, want 0 for zero total", p.Positions[0].Weight)
	}
}
