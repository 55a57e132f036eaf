package domain

// ItemSetChanged reports whether two item collections refer to
// different item identities. The comparison is a set equality check on
// item IDs: order and duplicates are irrelevant, and edits to an
// existing item's quantity or price do not count as a change.
func ItemSetChanged(before, after []*SaleItem) bool {
	beforeSet := itemIDSet(before)
	afterSet := itemIDSet(after)

	if len(beforeSet) != len(afterSet) {
		return true
	}

	for id := range beforeSet {
		if !afterSet[id] {
			return true
		}
	}

	return false
}

// RemovedItemIDs returns the item identities present before the update
// but absent after it
func RemovedItemIDs(before, after []*SaleItem) []string {
	afterSet := itemIDSet(after)

	removed := make([]string, 0)
	seen := make(map[string]bool)
	for _, item := range before {
		if !afterSet[item.ID] && !seen[item.ID] {
			removed = append(removed, item.ID)
			seen[item.ID] = true
		}
	}

	return removed
}

func itemIDSet(items []*SaleItem) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item.ID] = true
	}
	return set
}
