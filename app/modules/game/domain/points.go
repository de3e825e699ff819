package gamedomain

import (
	"strconv"

	"github.com/mk-lounge/gatherbot/app/shared/errs"
)

// TotalRaces is the fixed length of an event.
const TotalRaces = 12

// Score awarded per race placement, index 0 = 1st place.
var pointsByRank = [TotalRaces]int{15, 12, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

// PointsFor converts a race placement (1..12) to its score. Any other
// rank fails with InvalidRank.
func PointsFor(rank int) (int, error) {
	if rank < 1 || rank > TotalRaces {
		return 0, errs.InvalidRank()
	}
	return pointsByRank[rank-1], nil
}

// ParseRank parses a textual placement, failing with InvalidRank on
// non-numeric input or a value outside 1..12.
func ParseRank(s string) (int, error) {
	rank, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.InvalidRank()
	}
	if _, err := PointsFor(rank); err != nil {
		return 0, err
	}
	return rank, nil
}
