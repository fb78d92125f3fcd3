package company

import (
	"sort"
	"strings"
)

// Price buckets over the cheapest linked service, in cents.
const (
	PriceAll  = "all"
	PriceLow  = "low"  // under R$100
	PriceMid  = "mid"  // R$100 to R$300
	PriceHigh = "high" // R$300 and up

	priceLowCeil = 10000
	priceMidCeil = 30000
)

const (
	SortRating   = "rating"
	SortName     = "name"
	SortDistance = "distance"

	DefaultPageSize = 8
)

// SearchFilters mirrors the listing query string: q, loc, cat, sort, page,
// price, lat/lng.
type SearchFilters struct {
	Query    string
	Location string
	Category string
	Sort     string
	Price    string
	Page     int
	Lat      float64
	Lng      float64
	HasCoord bool
}

func (f *SearchFilters) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Sort == "" {
		f.Sort = SortRating
	}
	if f.Price == "" {
		f.Price = PriceAll
	}
	if f.Category == "all" {
		f.Category = ""
	}
}

// MatchesPriceBucket reports whether a company's cheapest service price
// falls inside the requested bucket.
func MatchesPriceBucket(minPriceCents int64, bucket string) bool {
	switch bucket {
	case PriceLow:
		return minPriceCents < priceLowCeil
	case PriceMid:
		return minPriceCents >= priceLowCeil && minPriceCents < priceMidCeil
	case PriceHigh:
		return minPriceCents >= priceMidCeil
	default:
		return true
	}
}

// FilterByPrice keeps companies whose cheapest service matches the bucket.
func FilterByPrice(companies []Company, bucket string) []Company {
	if bucket == "" || bucket == PriceAll {
		return companies
	}
	out := companies[:0]
	for _, c := range companies {
		if MatchesPriceBucket(c.MinPrice, bucket) {
			out = append(out, c)
		}
	}
	return out
}

// SortByDistance orders companies nearest first. Companies without a
// resolved distance sink to the end.
func SortByDistance(companies []Company) {
	sort.SliceStable(companies, func(i, j int) bool {
		di, dj := companies[i].DistanceKm, companies[j].DistanceKm
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})
}

var accentFold = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e", "í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u", "ç", "c",
)

// Slugify derives a URL slug from a company name, folding the accented
// characters common in Brazilian Portuguese.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range accentFold.Replace(strings.ToLower(name)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
