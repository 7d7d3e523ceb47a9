package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestSequence_NearestNeighbor(t *testing.T) {
	origin := &Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{OrderID: 1, Location: &Point{Lat: 5, Lng: 0}},
		{OrderID: 2, Location: &Point{Lat: 1, Lng: 0}},
		{OrderID: 3, Location: &Point{Lat: 3, Lng: 0}},
	}

	require.Equal(t, []int64{2, 3, 1}, SuggestSequence(origin, stops))
}

func TestSuggestSequence_TieBreaksOnLowerOrderID(t *testing.T) {
	origin := &Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{OrderID: 9, Location: &Point{Lat: 1, Lng: 0}},
		{OrderID: 4, Location: &Point{Lat: 0, Lng: 1}},
	}

	require.Equal(t, []int64{4, 9}, SuggestSequence(origin, stops))
}

func TestSuggestSequence_NoOriginKeepsInputOrder(t *testing.T) {
	stops := []Stop{
		{OrderID: 3, Location: &Point{Lat: 1, Lng: 1}},
		{OrderID: 1, Location: &Point{Lat: 2, Lng: 2}},
	}

	require.Equal(t, []int64{3, 1}, SuggestSequence(nil, stops))
}

func TestSuggestSequence_UnlocatedStopsAppendLast(t *testing.T) {
	origin := &Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{OrderID: 7},
		{OrderID: 2, Location: &Point{Lat: 2, Lng: 0}},
		{OrderID: 5},
		{OrderID: 3, Location: &Point{Lat: 1, Lng: 0}},
	}

	require.Equal(t, []int64{3, 2, 7, 5}, SuggestSequence(origin, stops))
}

func TestSuggestSequence_Empty(t *testing.T) {
	require.Empty(t, SuggestSequence(&Point{}, nil))
}
