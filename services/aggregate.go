package services

import "sort"

// Totals is the aggregate record for a filtered item set: one sum per
// derived total field plus a per-update sum keyed by contract update ID.
type Totals struct {
	TotalContractSum    float64            `json:"total_contract_sum"`
	TotalEstimate       float64            `json:"total_estimate"`
	TotalSubmitted      float64            `json:"total_submitted"`
	InternalTotal       float64            `json:"internal_total"`
	ApprovedSignedTotal float64            `json:"approved_signed_total"`
	UpdateSums          map[string]float64 `json:"update_sums"`
}

// CalcTotals sums the derived total fields over the given (already filtered)
// items, plus the revised sum per contract update. It is always a fresh full
// pass over the slice; nothing is cached.
//
// An item with no value record for an update contributes 0 to that update's
// sum. That is deliberately looser than filtering, where a missing value
// fails the predicate: absence should never block a total.
func CalcTotals(items []BOQItem, updates []ContractUpdate, values UpdateValueIndex) Totals {
	totals := Totals{UpdateSums: make(map[string]float64, len(updates))}
	for _, u := range updates {
		totals.UpdateSums[u.ID] = 0
	}

	for _, it := range items {
		totals.TotalContractSum += it.TotalContractSum
		totals.TotalEstimate += it.TotalEstimate
		totals.TotalSubmitted += it.TotalSubmitted
		totals.InternalTotal += it.InternalTotal
		totals.ApprovedSignedTotal += it.ApprovedSignedTotal

		for _, u := range updates {
			if val, ok := values.Lookup(it.ID, u.ID); ok {
				totals.UpdateSums[u.ID] += val.Sum
			}
		}
	}
	return totals
}

// GroupTotal is one roll-up bucket of a grouped summary.
type GroupTotal struct {
	Key       string `json:"key"`
	ItemCount int    `json:"item_count"`
	Totals    Totals `json:"totals"`
}

// GroupTotalsBy buckets items by the given key function and aggregates each
// bucket. Items with an empty key land in the "" bucket so unassigned rows
// still show up in summaries. Buckets come back sorted by key.
func GroupTotalsBy(items []BOQItem, updates []ContractUpdate, values UpdateValueIndex, keyFn func(BOQItem) string) []GroupTotal {
	buckets := map[string][]BOQItem{}
	for _, it := range items {
		key := keyFn(it)
		buckets[key] = append(buckets[key], it)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]GroupTotal, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		groups = append(groups, GroupTotal{
			Key:       key,
			ItemCount: len(bucket),
			Totals:    CalcTotals(bucket, updates, values),
		})
	}
	return groups
}
