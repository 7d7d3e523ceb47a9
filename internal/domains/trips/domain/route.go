package domain

// Point is a geographic coordinate used for sequencing stops.
type Point struct {
	Lat float64
	Lng float64
}

// Stop pairs an order with the location of its store, when known.
type Stop struct {
	OrderID  int64
	Location *Point
}

// SuggestSequence orders stops by repeatedly visiting the nearest
// remaining one, starting from origin. Distances compare squared
// deltas; ties prefer the lower order id. Stops without a location are
// appended after the located ones in their input order. Without an
// origin the input order is returned unchanged.
func SuggestSequence(origin *Point, stops []Stop) []int64 {
	out := make([]int64, 0, len(stops))
	if origin == nil {
		for _, stop := range stops {
			out = append(out, stop.OrderID)
		}
		return out
	}

	located := make([]Stop, 0, len(stops))
	unlocated := make([]Stop, 0)
	for _, stop := range stops {
		if stop.Location != nil {
			located = append(located, stop)
		} else {
			unlocated = append(unlocated, stop)
		}
	}

	current := *origin
	for len(located) > 0 {
		best := 0
		bestDist := squaredDistance(current, *located[0].Location)
		for i := 1; i < len(located); i++ {
			d := squaredDistance(current, *located[i].Location)
			if d < bestDist || (d == bestDist && located[i].OrderID < located[best].OrderID) {
				best = i
				bestDist = d
			}
		}
		out = append(out, located[best].OrderID)
		current = *located[best].Location
		located = append(located[:best], located[best+1:]...)
	}

	for _, stop := range unlocated {
		out = append(out, stop.OrderID)
	}
	return out
}

func squaredDistance(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}
