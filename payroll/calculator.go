/*
calculator.go - Single-trip compensation

PURPOSE:
  Turns one trip plus the year's tariff parameters into its net
  contribution to the monthly statement.

FORMULA:
  distanceComp  = base(distance) * adjustment coefficient
  waitingComp   = waiting hours * hourly waiting rate
  cashDeduction = amount collected, but only for cash trips
  net           = distanceComp + waitingComp - cashDeduction

  Cash collected by the driver substitutes for a company payout, which is
  why it comes straight off the trip's net.

  ComputeTrip is a pure function: the monthly aggregator and the simulator
  call it with identical inputs and get identical results.

SEE ALSO:
  - tariff/resolver.go: produces the base amount
  - engine.go: sums trip results into a statement
*/
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/tariff"
)

// ComputeTrip computes one trip's compensation breakdown. base is the
// resolved distance compensation before the coefficient; config supplies
// the year's coefficient and waiting rate.
func ComputeTrip(trip Trip, base decimal.Decimal, config tariff.Config) TripBreakdown {
	distanceComp := base.Mul(config.AdjustmentCoefficient)
	waitingComp := trip.WaitingHours.Mul(config.HourlyWaitingRate)

	cashDeduction := decimal.Zero
	if trip.PaymentMethod == PaymentCash {
		cashDeduction = trip.AmountCollected
	}

	return TripBreakdown{
		TripID:        trip.ID,
		Date:          trip.Date,
		DistanceKm:    trip.TotalDistanceKm,
		BaseAmount:    base,
		DistanceComp:  distanceComp,
		WaitingComp:   waitingComp,
		CashDeduction: cashDeduction,
		Net:           distanceComp.Add(waitingComp).Sub(cashDeduction),
	}
}
