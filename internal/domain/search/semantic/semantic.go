// Package semantic maps nearest-neighbour distances to bounded relevance scores.
package semantic

import (
	"fmt"
	"math"
)

// DistanceToScore returns 1/(1+max(d,0)), or 0 when the distance is absent.
// The result is in (0,1] and strictly decreasing in distance.
func DistanceToScore(d *float64) float64 {
	if d == nil || math.IsNaN(*d) {
		return 0
	}
	return 1 / (1 + math.Max(*d, 0))
}

// Explain renders the semantic evidence for a hit.
func Explain(distance *float64, score float64) string {
	if distance == nil {
		return fmt.Sprintf("semantic similarity %.3f", score)
	}
	return fmt.Sprintf("semantic similarity %.3f (distance %.4f)", score, *distance)
}
