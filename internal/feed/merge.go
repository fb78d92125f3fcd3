package feed

import (
	"sort"

	"github.com/tgtdigital45-mvp/tgt-marketplace-sub001/internal/catalog"
)

// Merge combines the remote/hybrid results with the nearby presential ones,
// dropping duplicate ids and ordering by company rating desc, then title.
func Merge(remote, nearby []catalog.Service) []catalog.Service {
	seen := make(map[string]bool, len(remote)+len(nearby))
	merged := make([]catalog.Service, 0, len(remote)+len(nearby))

	for _, list := range [][]catalog.Service{remote, nearby} {
		for _, s := range list {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CompanyRating != merged[j].CompanyRating {
			return merged[i].CompanyRating > merged[j].CompanyRating
		}
		return merged[i].Title < merged[j].Title
	})
	return merged
}
