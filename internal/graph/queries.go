package graph

// Query templates for portfolio analysis. Every template accepts a
// list of portfolio names and traverses
// position ->invested_in-> (stock|bond) ->issued_by-> company, so
// equity and fixed-income positions aggregate side by side. Tickers
// surface only through the stock hop; bond rows carry NONE.

const positionScope = "WHERE <-contains<-(portfolio WHERE name INSIDE $portfolios)"

// SectorExposure aggregates exposure, weight and position count per
// issuer sector.
func SectorExposure(portfolios []string) Statement {
	query := `
SELECT sector, math::sum(market_value) AS total_exposure, math::sum(weight) AS total_weight, count() AS num_positions
FROM (
    SELECT
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.sector)) AS sector,
        market_value ?? 0 AS market_value,
        weight
    FROM position
    ` + positionScope + `
)
WHERE sector != NONE
GROUP BY sector
ORDER BY total_exposure DESC;`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios}}
}

// CountryBreakdown aggregates exposure per issuer headquarters country.
func CountryBreakdown(portfolios []string) Statement {
	query := `
SELECT country_code, country, math::sum(market_value) AS total_exposure, math::sum(weight) AS total_weight, count() AS num_positions
FROM (
    SELECT
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company->headquartered_in->country.iso_code)) AS country_code,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company->headquartered_in->country.name)) AS country,
        market_value ?? 0 AS market_value,
        weight
    FROM position
    ` + positionScope + `
)
WHERE country_code != NONE
GROUP BY country_code, country
ORDER BY total_exposure DESC;`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios}}
}

// CountryExposure lists issuer companies headquartered in one country
// with the exposure held against each.
func CountryExposure(portfolios []string, countryISO string) Statement {
	query := `
SELECT company, math::sum(market_value) AS exposure, count() AS num_positions
FROM (
    SELECT
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.name)) AS company,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company->headquartered_in->country.iso_code)) AS country_code,
        market_value ?? 0 AS market_value
    FROM position
    ` + positionScope + `
)
WHERE country_code = $iso
GROUP BY company
ORDER BY exposure DESC;`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios, "iso": countryISO}}
}

// SectorPositions lists the individual positions behind one sector.
// The ticker field is NONE for fixed-income rows.
func SectorPositions(portfolios []string, sector string) Statement {
	query := `
SELECT ticker, company, quantity, market_value, weight
FROM (
    SELECT
        array::first(->invested_in->stock.ticker) AS ticker,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.name)) AS company,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.sector)) AS sector,
        quantity,
        market_value ?? 0 AS market_value,
        weight
    FROM position
    ` + positionScope + `
)
WHERE sector = $sector
ORDER BY market_value DESC;`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios, "sector": sector}}
}

// CountryPositions lists the individual positions behind one country.
// The ticker field is NONE for fixed-income rows.
func CountryPositions(portfolios []string, countryISO string) Statement {
	query := `
SELECT ticker, company, quantity, market_value, weight
FROM (
    SELECT
        array::first(->invested_in->stock.ticker) AS ticker,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.name)) AS company,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company->headquartered_in->country.iso_code)) AS country_code,
        quantity,
        market_value ?? 0 AS market_value,
        weight
    FROM position
    ` + positionScope + `
)
WHERE country_code = $iso
ORDER BY market_value DESC;`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios, "iso": countryISO}}
}

// CompanyExposure computes direct exposure to a company plus indirect
// exposure through issuers that are customers of it.
func CompanyExposure(portfolios []string, companyName string) Statement {
	query := `
LET $direct = math::sum((
    SELECT VALUE market_value ?? 0
    FROM position
    ` + positionScope + `
        AND array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.name)) = $company
));
LET $indirect = math::sum((
    SELECT VALUE market_value ?? 0
    FROM position
    ` + positionScope + `
        AND $company INSIDE array::flatten(->invested_in->(stock, bond)->issued_by->company->customer_of->company.name)
));
RETURN [{
    direct_exposure: $direct,
    indirect_exposure: $indirect,
    total_exposure: $direct + $indirect
}];`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios, "company": companyName}}
}

// TotalCompanyExposure computes direct exposure to a company by
// ticker. Subsidiary and supplier exposure are reported as zero until
// ownership-weighted rollups exist.
func TotalCompanyExposure(portfolios []string, ticker string) Statement {
	query := `
LET $rows = (
    SELECT VALUE market_value ?? 0
    FROM position
    ` + positionScope + `
        AND $ticker INSIDE array::flatten(->invested_in->(stock, bond)->issued_by->company.ticker)
);
LET $direct = math::sum($rows);
RETURN [{
    ticker: $ticker,
    direct_exposure: $direct,
    subsidiary_exposure: 0,
    supplier_exposure: 0,
    total_exposure: $direct
}];`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios, "ticker": ticker}}
}

// ExecutiveLookup lists CEOs of issuer companies with the value held
// against each company.
func ExecutiveLookup(portfolios []string) Statement {
	query := `
SELECT company, executive_name, title, math::sum(market_value) AS position_value
FROM (
    SELECT
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company.name)) AS company,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company<-ceo_of<-executive.name)) AS executive_name,
        array::first(array::flatten(->invested_in->(stock, bond)->issued_by->company<-ceo_of<-executive.title)) AS title,
        market_value ?? 0 AS market_value
    FROM position
    ` + positionScope + `
)
WHERE executive_name != NONE
GROUP BY company, executive_name, title
ORDER BY position_value DESC;`
	return Statement{Query: query, Vars: map[string]any{"portfolios": portfolios}}
}
