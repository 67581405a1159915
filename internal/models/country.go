package models

// CountryInfo maps a headquarters country name to its ISO code and
// region for graph materialization.
type CountryInfo struct {
	ISOCode string
	Region  string
}

// countryMapping covers the markets seen in provider profile data.
// Unknown countries are skipped by the relationship enricher.
var countryMapping = map[string]CountryInfo{
	"United States":  {ISOCode: "US", Region: "North America"},
	"Taiwan":         {ISOCode: "TW", Region: "Asia-Pacific"},
	"Japan":          {ISOCode: "JP", Region: "Asia-Pacific"},
	"China":          {ISOCode: "CN", Region: "Asia-Pacific"},
	"South Korea":    {ISOCode: "KR", Region: "Asia-Pacific"},
	"Hong Kong":      {ISOCode: "HK", Region: "Asia-Pacific"},
	"Singapore":      {ISOCode: "SG", Region: "Asia-Pacific"},
	"India":          {ISOCode: "IN", Region: "Asia-Pacific"},
	"Australia":      {ISOCode: "AU", Region: "Asia-Pacific"},
	"Canada":         {ISOCode: "CA", Region: "North America"},
	"Mexico":         {ISOCode: "MX", Region: "North America"},
	"Brazil":         {ISOCode: "BR", Region: "South America"},
	"United Kingdom": {ISOCode: "GB", Region: "Europe"},
	"Germany":        {ISOCode: "DE", Region: "Europe"},
	"France":         {ISOCode: "FR", Region: "Europe"},
	"Netherlands":    {ISOCode: "NL", Region: "Europe"},
	"Switzerland":    {ISOCode: "CH", Region: "Europe"},
	"Sweden":         {ISOCode: "SE", Region: "Europe"},
	"Norway":         {ISOCode: "NO", Region: "Europe"},
	"Denmark":        {ISOCode: "DK", Region: "Europe"},
	"Israel":         {ISOCode: "IL", Region: "Middle East"},
	"UAE":            {ISOCode: "AE", Region: "Middle East"},
	"Saudi Arabia":   {ISOCode: "SA", Region: "Middle East"},
}

// LookupCountry resolves a country name to ISO code and region.
func LookupCountry(name string) (CountryInfo, bool) {
	info, ok := countryMapping[name]
	return info, ok
}
