// Package pricing computes nightly room prices by running a record through an
// ordered chain of adjustment stages, then totals a stay.
package pricing

import (
	"math"
	"staybook/pkg/config"
	"staybook/pkg/model"
	"time"
)

// Quote is what a stage sees: the day's inventory record and the current day
// in UTC.
type Quote struct {
	Inventory model.Inventory
	Today     time.Time
}

// Stage adjusts the running price of a quote.
type Stage struct {
	Name  string
	Apply func(q Quote, price float64) float64
}

type Params struct {
	OccupancyThreshold  float64
	OccupancyMultiplier float64
	UrgencyWindow       time.Duration
	UrgencyMultiplier   float64
	HolidayMultiplier   float64
	Holidays            []time.Time
}

func ParamsFromConfig(cfg *config.Config) Params {
	p := Params{
		OccupancyThreshold:  cfg.OccupancyThreshold,
		OccupancyMultiplier: cfg.OccupancyMultiplier,
		UrgencyWindow:       cfg.UrgencyWindow,
		UrgencyMultiplier:   cfg.UrgencyMultiplier,
		HolidayMultiplier:   cfg.HolidayMultiplier,
	}
	for _, raw := range cfg.HolidayDates {
		if d, err := time.Parse(time.DateOnly, raw); err == nil {
			p.Holidays = append(p.Holidays, d)
		}
	}
	return p
}

// BaseStage starts from the record's base price.
func BaseStage() Stage {
	return Stage{Name: "base", Apply: func(q Quote, _ float64) float64 {
		return q.Inventory.BasePrice
	}}
}

// SurgeStage applies the owner's surge factor. Non-positive factors are
// treated as 1.
func SurgeStage() Stage {
	return Stage{Name: "surge", Apply: func(q Quote, price float64) float64 {
		if q.Inventory.SurgeFactor <= 0 {
			return price
		}
		return price * q.Inventory.SurgeFactor
	}}
}

func OccupancyStage(threshold, multiplier float64) Stage {
	return Stage{Name: "occupancy", Apply: func(q Quote, price float64) float64 {
		if q.Inventory.Occupancy() > threshold {
			return price * multiplier
		}
		return price
	}}
}

// UrgencyStage raises the price of days in [today, today+window).
func UrgencyStage(window time.Duration, multiplier float64) Stage {
	return Stage{Name: "urgency", Apply: func(q Quote, price float64) float64 {
		day := model.Day(q.Inventory.Date)
		today := model.Day(q.Today)
		if !day.Before(today) && day.Before(today.Add(window)) {
			return price * multiplier
		}
		return price
	}}
}

func HolidayStage(holidays []time.Time, multiplier float64) Stage {
	set := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		set[model.Day(h)] = struct{}{}
	}
	return Stage{Name: "holiday", Apply: func(q Quote, price float64) float64 {
		if _, ok := set[model.Day(q.Inventory.Date)]; ok {
			return price * multiplier
		}
		return price
	}}
}

// DefaultStages is the production chain: base, surge, occupancy, urgency,
// holiday.
func DefaultStages(p Params) []Stage {
	return []Stage{
		BaseStage(),
		SurgeStage(),
		OccupancyStage(p.OccupancyThreshold, p.OccupancyMultiplier),
		UrgencyStage(p.UrgencyWindow, p.UrgencyMultiplier),
		HolidayStage(p.Holidays, p.HolidayMultiplier),
	}
}

type Engine struct {
	stages  []Stage
	minimum float64
}

// NewEngine builds an engine whose totals never fall below minimum.
func NewEngine(minimum float64, stages ...Stage) *Engine {
	return &Engine{stages: stages, minimum: minimum}
}

func NewDefaultEngine(cfg *config.Config) *Engine {
	return NewEngine(cfg.MinimumBookingAmount, DefaultStages(ParamsFromConfig(cfg))...)
}

// DailyPrice runs q through every stage in order.
func (e *Engine) DailyPrice(q Quote) float64 {
	var price float64
	for _, s := range e.stages {
		price = s.Apply(q, price)
	}
	return price
}

// Total prices a stay from its locked records. Billable days are
// [checkIn, checkOut); a same-day stay bills checkIn. The result is rounded
// to cents and floored at the engine minimum.
func (e *Engine) Total(records []model.Inventory, checkIn, checkOut time.Time, roomsCount int, now time.Time) float64 {
	checkIn, checkOut = model.Day(checkIn), model.Day(checkOut)
	sameDay := checkIn.Equal(checkOut)

	var perRoom float64
	for _, rec := range records {
		day := model.Day(rec.Date)
		billable := !day.Before(checkIn) && (day.Before(checkOut) || (sameDay && day.Equal(checkIn)))
		if !billable {
			continue
		}
		perRoom += e.DailyPrice(Quote{Inventory: rec, Today: now})
	}

	total := RoundCents(perRoom * float64(roomsCount))
	return math.Max(total, e.minimum)
}

func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ToMinorUnits converts an amount to the gateway's smallest currency unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
