package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/models"
)

func newTestBuilder() *Builder {
	return NewBuilder(common.NewSilentLogger())
}

func TestBuilder_PortfolioNodeMerged(t *testing.T) {
	b := newTestBuilder()
	p := models.NewPortfolio("Growth Fund")
	p.TotalValue = 125000

	b.AddPortfolioNode(p)

	require.Len(t, b.NodeStatements(), 1)
	st := b.NodeStatements()[0]
	assert.Contains(t, st.Query, "UPSERT type::thing('portfolio', $key)")
	assert.Equal(t, "Growth Fund", st.Vars["key"])
}

func TestBuilder_PositionNodesCreatedNotMerged(t *testing.T) {
	b := newTestBuilder()
	positions := []*models.Position{
		{Ticker: "AAPL-US", Quantity: 100, BookValue: 19000, SecurityType: "Common Stock", Weight: 60},
		{CUSIP: "369604103", Quantity: 50, BookValue: 5000, SecurityType: "Bond", Weight: 40},
	}

	b.AddPositionNodes(positions, "Growth Fund")

	require.Len(t, b.NodeStatements(), 2)
	for _, st := range b.NodeStatements() {
		assert.Contains(t, st.Query, "CREATE type::thing('position', $id)")
		assert.NotContains(t, st.Query, "UPSERT")
	}

	// One CONTAINS edge per position, carrying the weight.
	require.Len(t, b.RelationshipStatements(), 2)
	for _, st := range b.RelationshipStatements() {
		assert.Contains(t, st.Query, "->contains->")
	}
	assert.Equal(t, 60.0, b.RelationshipStatements()[0].Vars["weight"])
}

func TestBuilder_PositionOmitsAbsentFields(t *testing.T) {
	b := newTestBuilder()
	b.AddPositionNodes([]*models.Position{
		{CUSIP: "037833AB1", Quantity: 10, BookValue: 1000, SecurityType: "Bond"},
	}, "P")

	st := b.NodeStatements()[0]
	data, ok := st.Vars["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "037833AB1", data["cusip"])
	_, hasTicker := data["ticker"]
	assert.False(t, hasTicker, "absent ticker must not be written")
	_, hasMV := data["market_value"]
	assert.False(t, hasMV, "unpriced position must not carry market_value")
}

func TestBuilder_InvestedInLinksPositionToSecurity(t *testing.T) {
	b := newTestBuilder()
	pos := &models.Position{Ticker: "AAPL-US", Quantity: 100, BookValue: 19000, SecurityType: "Common Stock"}
	b.AddPositionNodes([]*models.Position{pos}, "P")

	b.AddInvestedInRelationships(map[PositionKey]SecurityRef{
		KeyForPosition(pos): {Kind: TableStock, FIBOID: "fibo:stock:037833100"},
	})

	rels := b.RelationshipStatements()
	require.Len(t, rels, 2) // contains + invested_in
	last := rels[len(rels)-1]
	assert.Contains(t, last.Query, "->invested_in->type::thing('stock', $sec)")
	assert.Equal(t, "fibo:stock:037833100", last.Vars["sec"])
	// Position endpoint is the id generated when the node was added.
	assert.NotEmpty(t, last.Vars["pos"])
}

func TestBuilder_InvestedInSkipsUnknownPosition(t *testing.T) {
	b := newTestBuilder()
	b.AddInvestedInRelationships(map[PositionKey]SecurityRef{
		{Ticker: "GHOST", Quantity: 1, BookValue: 1}: {Kind: TableStock, FIBOID: "fibo:stock:X"},
	})
	assert.Empty(t, b.RelationshipStatements())
}

func TestBuilder_IssuedByUsesSecurityTable(t *testing.T) {
	b := newTestBuilder()
	b.AddIssuedByRelationships([]IssuedByLink{
		{Security: SecurityRef{Kind: TableBond, FIBOID: "fibo:bond:369604103"}, CompanyFIBOID: "fibo:company:ge"},
	})

	require.Len(t, b.RelationshipStatements(), 1)
	st := b.RelationshipStatements()[0]
	assert.Contains(t, st.Query, "type::thing('bond', $sec)->issued_by->type::thing('company', $company)")
	assert.Equal(t, "fibo:company:ge", st.Vars["company"])
}

func TestBuilder_HeadquarteredInMergesCountryFirst(t *testing.T) {
	b := newTestBuilder()
	b.AddHeadquarteredInRelationships(map[string]string{"fibo:company:000C7F-E": "US"})

	require.Len(t, b.RelationshipStatements(), 1)
	st := b.RelationshipStatements()[0]
	assert.Contains(t, st.Query, "UPSERT type::thing('country', $iso)")
	assert.Contains(t, st.Query, "->headquartered_in->")
	assert.Equal(t, "US", st.Vars["iso"])
}

func TestBuilder_CompanyRelationshipProperties(t *testing.T) {
	b := newTestBuilder()
	pct := 80.0
	b.AddCompanyRelationships([]models.Relationship{
		{
			Type:       models.RelHasSubsidiary,
			SourceID:   "fibo:company:parent",
			TargetID:   "fibo:company:child",
			SourceKind: "company",
			TargetKind: "company",
			Properties: map[string]any{"ownership_percentage": pct},
		},
	})

	require.Len(t, b.RelationshipStatements(), 1)
	st := b.RelationshipStatements()[0]
	assert.Contains(t, st.Query, "->has_subsidiary->")
	assert.Contains(t, st.Query, "ownership_percentage = $")
	found := false
	for name, val := range st.Vars {
		if strings.HasPrefix(name, "p") && val == pct {
			found = true
		}
	}
	assert.True(t, found, "ownership percentage must be bound")
}

func TestBuilder_CompanyRelationshipUnknownTypeSkipped(t *testing.T) {
	b := newTestBuilder()
	b.AddCompanyRelationships([]models.Relationship{
		{Type: "FRIENDS_WITH", SourceID: "a", TargetID: "b", SourceKind: "company", TargetKind: "company"},
	})
	assert.Empty(t, b.RelationshipStatements())
}

func TestBuilder_UnresolvedBondStillGetsNode(t *testing.T) {
	b := newTestBuilder()
	b.AddSecurityNodes(nil, map[string]*models.Bond{
		"369604103": {FIBOID: "fibo:bond:369604103", CUSIP: "369604103", SecurityType: "Bond", Resolved: false},
	})

	require.Len(t, b.NodeStatements(), 1)
	st := b.NodeStatements()[0]
	assert.Contains(t, st.Query, "UPSERT type::thing('bond', $key)")
	assert.Contains(t, st.Query, "resolved = $")
	// No price property may appear for an unresolved bond.
	assert.NotContains(t, st.Query, "market_price")
}

func TestBuilder_AllStatementsNodesBeforeRelationships(t *testing.T) {
	b := newTestBuilder()
	pos := &models.Position{Ticker: "T", Quantity: 1, BookValue: 1, SecurityType: "Common Stock"}
	b.AddPositionNodes([]*models.Position{pos}, "P")
	b.AddPortfolioNode(models.NewPortfolio("P"))

	all := b.AllStatements()
	require.Len(t, all, 3)
	// Relationship statements trail every node statement regardless of
	// the order methods were called in.
	assert.Contains(t, all[0].Query, "CREATE type::thing('position'")
	assert.Contains(t, all[1].Query, "UPSERT type::thing('portfolio'")
	assert.Contains(t, all[2].Query, "->contains->")
}

func TestBuilder_ClearDropsEverything(t *testing.T) {
	b := newTestBuilder()
	b.AddPortfolioNode(models.NewPortfolio("P"))
	b.AddPositionNodes([]*models.Position{{Ticker: "T", Quantity: 1, BookValue: 1}}, "P")

	b.Clear()

	assert.Empty(t, b.NodeStatements())
	assert.Empty(t, b.RelationshipStatements())
	b.AddInvestedInRelationships(map[PositionKey]SecurityRef{
		{Ticker: "T", Quantity: 1, BookValue: 1}: {Kind: TableStock, FIBOID: "x"},
	})
	assert.Empty(t, b.RelationshipStatements(), "position links must not survive Clear")
}
