package usecase

import (
	"time"

	"hostilerust-bot/internal/config"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ WipeUseCase = (*wipeUC)(nil)

// WipeUseCase computes occurrences of the recurring server wipe.
//
// The wipe recurs weekly on a fixed weekday. The hour depends on calendar
// position: when the occurrence falls on day-of-month <= 7 (the first such
// weekday of the month) the late hour applies, otherwise the regular hour.
// All arithmetic happens in the configured time zone.
type WipeUseCase interface {
	// NextOccurrence returns the first wipe time strictly after now.
	NextOccurrence(now time.Time) time.Time
	// Countdown returns the remaining time until the next wipe.
	Countdown(now time.Time) time.Duration
	Location() *time.Location
}

// scanHorizonDays bounds the day-by-day scan. Any horizon >= 7 days is
// guaranteed to contain the target weekday; 14 leaves slack for the
// same-day-but-already-past case.
const scanHorizonDays = 14

type wipeUC struct {
	loc           *time.Location
	weekday       time.Weekday
	firstWeekHour int
	regularHour   int
	log           *zerolog.Logger
}

func NewWipeUseCase(cfg config.WipeConfig, logger *zerolog.Logger) (*wipeUC, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &wipeUC{
		loc:           loc,
		weekday:       cfg.Weekday,
		firstWeekHour: cfg.FirstWeekHour,
		regularHour:   cfg.RegularHour,
		log:           logger,
	}, nil
}

func (w *wipeUC) Location() *time.Location { return w.loc }

func (w *wipeUC) NextOccurrence(now time.Time) time.Time {
	local := now.In(w.loc)
	for i := 0; i < scanHorizonDays; i++ {
		d := local.AddDate(0, 0, i)
		if d.Weekday() != w.weekday {
			continue
		}
		hour := w.regularHour
		if d.Day() <= 7 {
			hour = w.firstWeekHour
		}
		candidate := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, w.loc)
		if candidate.After(local) {
			return candidate
		}
	}
	// Unreachable: the weekday recurs at least once in any 7-day window.
	w.log.Error().Time("now", now).Msg("wipe scan found no occurrence inside horizon")
	return time.Time{}
}

func (w *wipeUC) Countdown(now time.Time) time.Duration {
	return w.NextOccurrence(now).Sub(now)
}
