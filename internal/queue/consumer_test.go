package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTripsByRoutingKey(t *testing.T) {
	in := FlightBooked{
		FlightKey:       "0xabc",
		Passenger:       "0x00000000000000000000000000000000000000aa",
		Price:           decimal.NewFromInt(1000),
		Premium:         decimal.NewFromInt(100),
		InsuranceCredit: decimal.NewFromInt(150),
		OccurredAt:      "2024-01-01T00:00:00Z",
	}
	body, err := json.Marshal(in)
	require.NoError(t, err)

	ev, err := Decode(in.RoutingKey(), body)
	require.NoError(t, err)
	got, ok := ev.(*FlightBooked)
	require.True(t, ok)
	assert.Equal(t, in.FlightKey, got.FlightKey)
	assert.True(t, in.InsuranceCredit.Equal(got.InsuranceCredit))
}

func TestDecodeRejectsUnknownKey(t *testing.T) {
	_, err := Decode("seat.held", []byte(`{}`))
	assert.Error(t, err)
}

func TestJournalLineFormat(t *testing.T) {
	line := JournalLine(StatusResolved{
		FlightKey:       "0xk",
		StatusCode:      20,
		Status:          "Late due to Airline",
		Responses:       3,
		SettledBookings: 2,
		OccurredAt:      "2024-01-01T00:00:00Z",
	})
	assert.Equal(t,
		"[2024-01-01T00:00:00Z] status.resolved | flight=0xk | status=20 (Late due to Airline) | responses=3 | settled=2\n",
		line)
}

func TestHandleMessageAppendsToJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	for _, who := range []string{"0x01", "0x02"} {
		body, err := json.Marshal(AirlineVoted{Candidate: "0xcc", Voter: who, VotesLeft: 1, OccurredAt: "t"})
		require.NoError(t, err)
		require.NoError(t, handleMessage(dir, KeyAirlineVoted, body))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "surety.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "voter=0x02")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	assert.Error(t, handleMessage(t.TempDir(), KeyAirlineFunded, []byte("not json")))
}
