package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-surety/internal/model"
)

func TestFlightSearch(t *testing.T) {
	l, ctx := openLedger(t)
	q := l.DB()

	seed := []struct {
		ref, origin, dest string
		takeOff           int64
		airline           model.Address
		status            model.StatusCode
	}{
		{"ND1309", "AMS", "LIS", 100, founder, model.StatusUnknown},
		{"ND1310", "LIS", "AMS", 200, founder, model.StatusOnTime},
		{"KL0101", "AMS", "JFK", 300, other, model.StatusUnknown},
		{"KL0102", "JFK", "AMS", 50, other, model.StatusUnknown},
	}
	for _, s := range seed {
		f := &model.Flight{
			Key: model.FlightKeyOf(s.ref, s.dest, s.takeOff+1), Airline: s.airline,
			FlightRef: s.ref, Origin: s.origin, Destination: s.dest,
			TakeOff: s.takeOff, Landing: s.takeOff + 1, Price: model.Ether(1),
			StatusCode: s.status, CreatedAt: genesis,
		}
		require.NoError(t, l.Flights.Insert(ctx, q, f))
	}

	refs := func(fs []model.Flight) []string {
		out := make([]string, 0, len(fs))
		for _, f := range fs {
			out = append(out, f.FlightRef)
		}
		return out
	}

	got, total, err := l.Flights.Search(ctx, q, FlightSearchQuery{Now: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"ND1309", "ND1310", "KL0101"}, refs(got))

	got, total, err = l.Flights.Search(ctx, q, FlightSearchQuery{TimeFilter: "open"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"KL0102", "ND1309", "KL0101"}, refs(got))

	got, _, err = l.Flights.Search(ctx, q, FlightSearchQuery{TimeFilter: "any", Origin: "ams", Airline: other})
	require.NoError(t, err)
	assert.Equal(t, []string{"KL0101"}, refs(got))

	got, total, err = l.Flights.Search(ctx, q, FlightSearchQuery{TimeFilter: "any", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, []string{"KL0101"}, refs(got))
}
