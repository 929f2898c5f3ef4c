package course

import "calmh.dev/course-watch/internal/geo"

// remainingDistance sums the leg lengths left between the current waypoint
// and the traversal's final waypoint, using the given distance function.
// Forward traversal ends at the last waypoint, reverse traversal at the
// first. The direct vessel→destination distance is not included; callers
// add it.
func remainingDistance(waypoints []geo.Point, currentIndex int, reverse bool, distanceFn func(a, b geo.Point) float64) float64 {
	last := len(waypoints) - 1
	if last < 1 || currentIndex < 0 || currentIndex > last {
		return 0
	}

	start, end := currentIndex, last
	if reverse {
		start, end = 0, currentIndex
	}

	var sum float64
	for i := start; i < end; i++ {
		sum += distanceFn(waypoints[i], waypoints[i+1])
	}
	return sum
}
