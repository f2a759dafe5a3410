package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-surety/internal/model"
	"github.com/iliyamo/flight-surety/internal/queue"
)

func TestInsuredPassengerIsPaidOnAirlineDelay(t *testing.T) {
	f := newFixture(t)
	f.network(1)
	fl := f.flight(founder, "ND1309", model.Milliether(500))
	passenger := addr(0x200)
	oracles := f.oracles(3)

	b, err := f.book(passenger, fl, model.Milliether(100))
	require.NoError(t, err)
	requireAmount(t, model.Milliether(150), b.InsuranceCredit)

	_, err = f.surety.Oracles.RequestStatus(f.ctx, passenger, fl.Key)
	require.NoError(t, err)

	for i, o := range oracles {
		sub, err := f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusLateAirline)
		require.NoError(t, err)
		assert.Equal(t, i == 2, sub.Resolved)
		if sub.Resolved {
			assert.Equal(t, 1, sub.Settled)
			assert.Equal(t, model.StatusLateAirline, sub.Round.ResolvedStatus)
			assert.Len(t, sub.Round.Responses[model.StatusLateAirline], 3)
		}
	}

	got, err := f.surety.Flights.Flight(f.ctx, fl.Key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLateAirline, got.StatusCode)

	c, err := f.surety.Withdrawals.Credits(f.ctx, passenger)
	require.NoError(t, err)
	requireAmount(t, model.Milliether(150), c.ClaimableCredit)
	assert.True(t, c.PendingInsurance.IsZero())

	p, err := f.surety.Withdrawals.Withdraw(f.ctx, passenger)
	require.NoError(t, err)
	requireAmount(t, model.Milliether(150), p.Amount)
	requireAmount(t, model.Milliether(150), p.InsurancePart)
	assert.True(t, p.TicketPart.IsZero())

	_, err = f.surety.Withdrawals.Withdraw(f.ctx, passenger)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)

	assert.Contains(t, f.events.keys(), queue.KeyStatusResolved)
	assert.Contains(t, f.events.keys(), queue.KeyWithdrawalCompleted)
}

func TestSubmitStatusRejections(t *testing.T) {
	f := newFixture(t)
	f.network(1)
	fl := f.flight(founder, "ND1309", model.Ether(1))
	o := f.oracles(1)[0]

	_, err := f.surety.Oracles.SubmitStatus(f.ctx, addr(0x300), fl.Key, model.StatusOnTime)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusUnknown)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusCode(15))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusOnTime)
	assert.ErrorIs(t, err, ErrNoOpenRequest)

	_, err = f.surety.Oracles.RequestStatus(f.ctx, o, model.FlightKeyOf("XX", "LIS", 1))
	assert.ErrorIs(t, err, ErrFlightNotFound)

	_, err = f.surety.Oracles.RequestStatus(f.ctx, o, fl.Key)
	require.NoError(t, err)
	_, err = f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusOnTime)
	require.NoError(t, err)
	_, err = f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusLateOther)
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	_, err = f.surety.Gate.DeauthorizeCaller(f.ctx, owner, o)
	require.NoError(t, err)
	_, err = f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusOnTime)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequestStatusReusesRound(t *testing.T) {
	f := newFixture(t)
	f.network(1)
	fl := f.flight(founder, "ND1309", model.Ether(1))

	first, err := f.surety.Oracles.RequestStatus(f.ctx, addr(0x200), fl.Key)
	require.NoError(t, err)
	second, err := f.surety.Oracles.RequestStatus(f.ctx, addr(0x201), fl.Key)
	require.NoError(t, err)
	assert.Equal(t, first.RequestedBy, second.RequestedBy)
	assert.True(t, first.RequestedAt.Equal(second.RequestedAt))
	assert.False(t, second.Resolved)
}

func TestSplitReportsDoNotResolve(t *testing.T) {
	f := newFixture(t)
	f.network(1)
	fl := f.flight(founder, "ND1309", model.Ether(1))
	oracles := f.oracles(4)
	_, err := f.surety.Oracles.RequestStatus(f.ctx, addr(0x200), fl.Key)
	require.NoError(t, err)

	codes := []model.StatusCode{model.StatusLateAirline, model.StatusLateAirline, model.StatusLateWeather, model.StatusOnTime}
	for i, o := range oracles {
		sub, err := f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, codes[i])
		require.NoError(t, err)
		assert.False(t, sub.Resolved)
	}

	round, err := f.surety.Oracles.Round(f.ctx, fl.Key)
	require.NoError(t, err)
	assert.False(t, round.Resolved)
	assert.Len(t, round.Responses[model.StatusLateAirline], 2)
}

func TestLateReportsAreInert(t *testing.T) {
	f := newFixture(t)
	f.network(1)
	fl := f.flight(founder, "ND1309", model.Ether(1))
	passenger := addr(0x200)
	_, err := f.book(passenger, fl, model.Milliether(100))
	require.NoError(t, err)

	oracles := f.oracles(6)
	_, err = f.surety.Oracles.RequestStatus(f.ctx, passenger, fl.Key)
	require.NoError(t, err)
	for _, o := range oracles[:3] {
		_, err := f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusOnTime)
		require.NoError(t, err)
	}
	for _, o := range oracles[3:] {
		sub, err := f.surety.Oracles.SubmitStatus(f.ctx, o, fl.Key, model.StatusLateAirline)
		require.NoError(t, err)
		assert.False(t, sub.Resolved)
		assert.Equal(t, model.StatusOnTime, sub.Round.ResolvedStatus)
	}

	got, err := f.surety.Flights.Flight(f.ctx, fl.Key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnTime, got.StatusCode)

	// Cover on a flight that was not late by the airline's fault is forfeited.
	c, err := f.surety.Withdrawals.Credits(f.ctx, passenger)
	require.NoError(t, err)
	assert.True(t, c.ClaimableCredit.IsZero())
	assert.True(t, c.PendingInsurance.IsZero())
	_, err = f.surety.Withdrawals.Withdraw(f.ctx, passenger)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)
}

func TestRoundNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.surety.Oracles.Round(f.ctx, model.FlightKeyOf("ND1", "LIS", 1))
	assert.ErrorIs(t, err, ErrNoOpenRequest)
}
