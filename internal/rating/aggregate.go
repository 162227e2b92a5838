package rating

import (
	"math"

	"venuedir/internal/store"
)

// Aggregate is the read-side summary of a target's ratings.
type Aggregate struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ComputeAggregate returns the arithmetic mean and count of the valid scores
// in the list. Scores outside [1,5] are excluded, not rejected; an empty or
// all-invalid list aggregates to {0, 0}. The average is rounded to one
// decimal place for display.
func ComputeAggregate(ratings []store.Rating) Aggregate {
	var sum, count int
	for _, r := range ratings {
		if r.Score < 1 || r.Score > 5 {
			continue
		}
		sum += r.Score
		count++
	}

	if count == 0 {
		return Aggregate{}
	}
	return Aggregate{
		Average: math.Round(float64(sum)/float64(count)*10) / 10,
		Count:   count,
	}
}
