package dispense

import "sort"

// statusRank orders line items for the kiosk display: items waiting for a
// human hand surface first, fully pending ones sink, complete is a sentinel
// that always sorts last (it is normally filtered out before sorting).
var statusRank = map[Status]int{
	StatusPickup:    1,
	StatusDispensed: 2,
	StatusPending:   3,
	StatusReady:     4,
	StatusError:     5,
	StatusComplete:  999,
}

const rankUnknown = 999

// Rank returns the display priority for a status. Statuses outside the
// closed enum rank last.
func Rank(s Status) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return rankUnknown
}

// Sequence returns the items ordered by status rank. The sort is stable:
// items sharing a rank keep their relative input order, which keeps the
// display from reshuffling across refreshes. The input slice is not
// modified.
func Sequence(items []LineItem) []LineItem {
	out := append([]LineItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return Rank(out[i].Status) < Rank(out[j].Status)
	})
	return out
}

// ActiveItems filters out items that reached a terminal status.
func ActiveItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if !it.Terminal() {
			out = append(out, it)
		}
	}
	return out
}
