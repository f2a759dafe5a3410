package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-surety/internal/database"
	"github.com/iliyamo/flight-surety/internal/model"
)

var (
	owner   = model.Address("0x00000000000000000000000000000000000000ff")
	founder = model.Address("0x0000000000000000000000000000000000000001")
	other   = model.Address("0x0000000000000000000000000000000000000002")
	genesis = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func openLedger(t *testing.T) (*Ledger, context.Context) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	l := NewLedger(db, nil)
	require.NoError(t, l.Bootstrap(ctx, owner, founder, genesis))
	return l, ctx
}

func TestBootstrapSeedsOnce(t *testing.T) {
	l, ctx := openLedger(t)

	st, err := l.Gate.State(ctx, l.DB())
	require.NoError(t, err)
	assert.True(t, st.IsOperational)
	assert.Equal(t, owner, st.Owner)
	assert.Equal(t, founder, st.Founder)

	a, err := l.Airlines.Get(ctx, l.DB(), founder)
	require.NoError(t, err)
	assert.True(t, a.Registered)
	assert.False(t, a.Funded)
	assert.True(t, a.CreatedAt.Equal(genesis))

	// A second bootstrap with different identities keeps the first seed.
	require.NoError(t, l.Bootstrap(ctx, other, other, genesis))
	st, err = l.Gate.State(ctx, l.DB())
	require.NoError(t, err)
	assert.Equal(t, owner, st.Owner)

	n, err := l.Airlines.CountRegistered(ctx, l.DB())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	l, ctx := openLedger(t)
	boom := errors.New("boom")

	err := l.Update(ctx, func(tx *sql.Tx) error {
		if err := l.Treasury.Deposit(ctx, tx, model.Ether(5)); err != nil {
			return err
		}
		if err := l.Airlines.Insert(ctx, tx, model.NewAirline(other, genesis)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tr, err := l.Treasury.Get(ctx, l.DB())
	require.NoError(t, err)
	assert.True(t, tr.Balance.IsZero())
	_, err = l.Airlines.Get(ctx, l.DB(), other)
	assert.ErrorIs(t, err, ErrAirlineNotFound)
}

func TestVotesAreASet(t *testing.T) {
	l, ctx := openLedger(t)
	q := l.DB()
	v := model.AirlineVote{Candidate: other, Voter: founder, CastAt: genesis}

	require.NoError(t, l.Airlines.AddVote(ctx, q, v))
	assert.Error(t, l.Airlines.AddVote(ctx, q, v), "primary key rejects a repeated vote")

	voted, err := l.Airlines.HasVoted(ctx, q, other, founder)
	require.NoError(t, err)
	assert.True(t, voted)
	n, err := l.Airlines.CountVotes(ctx, q, other)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLargeAmountsSurviveStorage(t *testing.T) {
	l, ctx := openLedger(t)
	huge, err := decimal.NewFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)

	a, err := l.Airlines.Get(ctx, l.DB(), founder)
	require.NoError(t, err)
	a.FundedAmount = huge
	require.NoError(t, l.Airlines.Update(ctx, l.DB(), a))

	got, err := l.Airlines.Get(ctx, l.DB(), founder)
	require.NoError(t, err)
	assert.True(t, huge.Equal(got.FundedAmount))
}

func TestTreasuryDebitNeverGoesNegative(t *testing.T) {
	l, ctx := openLedger(t)
	q := l.DB()

	require.NoError(t, l.Treasury.Deposit(ctx, q, model.Ether(1)))
	assert.ErrorIs(t, l.Treasury.Debit(ctx, q, model.Ether(2)), ErrInsufficientCustody)
	require.NoError(t, l.Treasury.Debit(ctx, q, model.Milliether(400)))

	tr, err := l.Treasury.Get(ctx, q)
	require.NoError(t, err)
	assert.True(t, model.Milliether(600).Equal(tr.Balance))
	assert.True(t, tr.Balance.Equal(tr.TotalIn.Sub(tr.TotalOut)))
}

func TestFlightsBookingsAndRounds(t *testing.T) {
	l, ctx := openLedger(t)
	q := l.DB()
	key := model.FlightKeyOf("ND1309", "LIS", 2)

	_, err := l.Flights.Get(ctx, q, key)
	assert.ErrorIs(t, err, ErrFlightNotFound)

	require.NoError(t, l.Flights.Insert(ctx, q, &model.Flight{
		Key: key, Airline: founder, FlightRef: "ND1309", Origin: "AMS", Destination: "LIS",
		TakeOff: 1, Landing: 2, Price: model.Ether(1), CreatedAt: genesis,
	}))
	for _, p := range []model.Address{other, owner} {
		require.NoError(t, l.Bookings.Insert(ctx, q, &model.Booking{
			FlightKey: key, Passenger: p, TicketPrice: model.Ether(1),
			PremiumPaid: model.Milliether(100), InsuranceCredit: model.Milliether(150), CreatedAt: genesis,
		}))
	}

	_, err = l.Oracles.GetRound(ctx, q, key)
	assert.ErrorIs(t, err, ErrRoundNotFound)
	require.NoError(t, l.Oracles.InsertRound(ctx, q, &model.OracleRound{FlightKey: key, RequestedBy: other, RequestedAt: genesis}))
	require.NoError(t, l.Oracles.InsertResponse(ctx, q, model.OracleResponse{
		FlightKey: key, Oracle: owner, StatusCode: model.StatusLateAirline, SubmittedAt: genesis,
	}))
	n, err := l.Oracles.CountResponses(ctx, q, key, model.StatusLateAirline)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, l.Oracles.ResolveRound(ctx, q, key, model.StatusLateAirline, genesis.Add(time.Hour)))
	require.NoError(t, l.Flights.UpdateStatus(ctx, q, key, model.StatusLateAirline))
	settled, err := l.Bookings.SettleFlight(ctx, q, key)
	require.NoError(t, err)
	assert.Equal(t, 2, settled)
	settled, err = l.Bookings.SettleFlight(ctx, q, key)
	require.NoError(t, err)
	assert.Zero(t, settled)

	round, err := l.Oracles.GetRound(ctx, q, key)
	require.NoError(t, err)
	assert.True(t, round.Resolved)
	require.NotNil(t, round.ResolvedAt)
	assert.Equal(t, []model.Address{owner}, round.Responses[model.StatusLateAirline])

	cover, err := l.Bookings.OutstandingCover(ctx, q)
	require.NoError(t, err)
	assert.True(t, model.Milliether(300).Equal(cover), cover.String())

	require.NoError(t, l.Bookings.ZeroInsurance(ctx, q, key, other, model.Milliether(150)))
	assert.ErrorIs(t, l.Bookings.ZeroInsurance(ctx, q, key, other, model.Milliether(150)), ErrStaleCredit)
	b, err := l.Bookings.Get(ctx, q, key, other)
	require.NoError(t, err)
	assert.True(t, b.Settled)
	assert.False(t, b.Claimable())

	cover, err = l.Bookings.OutstandingCover(ctx, q)
	require.NoError(t, err)
	assert.True(t, model.Milliether(150).Equal(cover), cover.String())
}

func TestForfeitedCoverIsNotOutstanding(t *testing.T) {
	l, ctx := openLedger(t)
	q := l.DB()
	key := model.FlightKeyOf("ND1309", "LIS", 2)
	require.NoError(t, l.Flights.Insert(ctx, q, &model.Flight{
		Key: key, Airline: founder, FlightRef: "ND1309", Origin: "AMS", Destination: "LIS",
		TakeOff: 1, Landing: 2, Price: model.Ether(1), CreatedAt: genesis,
	}))
	require.NoError(t, l.Bookings.Insert(ctx, q, &model.Booking{
		FlightKey: key, Passenger: other, TicketPrice: model.Ether(1),
		PremiumPaid: model.Milliether(100), InsuranceCredit: model.Milliether(150), CreatedAt: genesis,
	}))
	require.NoError(t, l.Flights.UpdateStatus(ctx, q, key, model.StatusLateWeather))

	cover, err := l.Bookings.OutstandingCover(ctx, q)
	require.NoError(t, err)
	assert.True(t, cover.IsZero(), cover.String())

	// Unsettled bookings cannot be drained either.
	assert.ErrorIs(t, l.Bookings.ZeroInsurance(ctx, q, key, other, model.Milliether(150)), ErrStaleCredit)
}

func TestClaimTicketCreditIsConditional(t *testing.T) {
	l, ctx := openLedger(t)
	q := l.DB()

	a, err := l.Airlines.Get(ctx, q, founder)
	require.NoError(t, err)
	a.TicketCredit = model.Ether(2)
	require.NoError(t, l.Airlines.Update(ctx, q, a))

	total, err := l.Airlines.TotalTicketCredit(ctx, q)
	require.NoError(t, err)
	assert.True(t, model.Ether(2).Equal(total))

	assert.ErrorIs(t, l.Airlines.ClaimTicketCredit(ctx, q, founder, model.Ether(1)), ErrStaleCredit)
	require.NoError(t, l.Airlines.ClaimTicketCredit(ctx, q, founder, model.Ether(2)))
	assert.ErrorIs(t, l.Airlines.ClaimTicketCredit(ctx, q, founder, model.Ether(2)), ErrStaleCredit)

	total, err = l.Airlines.TotalTicketCredit(ctx, q)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestMutexLockerHonoursContext(t *testing.T) {
	var m MutexLocker
	unlock, err := m.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := m.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}
