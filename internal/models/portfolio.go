// Package models defines the domain types for Portgraph
package models

import (
	"time"
)

// Position is a single holding inside a portfolio. Identifier fields
// are empty strings when absent.
type Position struct {
	Ticker       string   `json:"ticker,omitempty"`
	ISIN         string   `json:"isin,omitempty"`
	CUSIP        string   `json:"cusip,omitempty"`
	Quantity     float64  `json:"quantity"`
	BookValue    float64  `json:"book_value"`
	MarketValue  *float64 `json:"market_value,omitempty"`
	SecurityType string   `json:"security_type"`
	PurchaseDate string   `json:"purchase_date,omitempty"`
	Weight       float64  `json:"weight"`
}

// IdentifierType names which identifier field PrimaryIdentifier chose.
type IdentifierType string

const (
	IdentifierCUSIP  IdentifierType = "cusip"
	IdentifierISIN   IdentifierType = "isin"
	IdentifierTicker IdentifierType = "ticker"
)

// PrimaryIdentifier returns the strongest identifier on the position.
// Precedence: CUSIP over ISIN over ticker.
func (p *Position) PrimaryIdentifier() (IdentifierType, string) {
	if p.CUSIP != "" {
		return IdentifierCUSIP, p.CUSIP
	}
	if p.ISIN != "" {
		return IdentifierISIN, p.ISIN
	}
	if p.Ticker != "" {
		return IdentifierTicker, p.Ticker
	}
	return "", ""
}

// HasIdentifier reports whether any identifier is present.
func (p *Position) HasIdentifier() bool {
	return p.Ticker != "" || p.ISIN != "" || p.CUSIP != ""
}

// SetMarketValue records an externally sourced market value.
func (p *Position) SetMarketValue(v float64) {
	p.MarketValue = &v
}

// Portfolio is a named collection of positions.
type Portfolio struct {
	Name       string      `json:"name"`
	CreatedAt  time.Time   `json:"created_at"`
	Positions  []*Position `json:"positions"`
	TotalValue float64     `json:"total_value"`
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio(name string) *Portfolio {
	return &Portfolio{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// AddPosition appends a position without recomputing weights.
func (p *Portfolio) AddPosition(pos *Position) {
	p.Positions = append(p.Positions, pos)
}

// CalculateWeights recomputes TotalValue and per-position weights.
// If any position carries a market value the market basis is used and
// positions without one contribute zero; otherwise book values are
// used. Weights are percentages and sum to 100 when TotalValue > 0.
func (p *Portfolio) CalculateWeights() {
	if len(p.Positions) == 0 {
		p.TotalValue = 0
		return
	}

	useMarket := false
	for _, pos := range p.Positions {
		if pos.MarketValue != nil {
			useMarket = true
			break
		}
	}

	total := 0.0
	for _, pos := range p.Positions {
		total += positionValue(pos, useMarket)
	}
	p.TotalValue = total

	for _, pos := range p.Positions {
		if total > 0 {
			pos.Weight = positionValue(pos, useMarket) / total * 100
		} else {
			pos.Weight = 0
		}
	}
}

func positionValue(pos *Position, useMarket bool) float64 {
	if useMarket {
		if pos.MarketValue != nil {
			return *pos.MarketValue
		}
		return 0
	}
	return pos.BookValue
}
