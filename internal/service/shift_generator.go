package service

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/djval79/caresync1/internal/domain"
)

const (
	// AutoScheduleDays days generated for a new client, today inclusive
	AutoScheduleDays = 28
	// maxRecurrenceIterations bounds loop iterations, not emitted shifts.
	// A weekly series therefore stops after roughly seven years.
	maxRecurrenceIterations = 365
)

// ShiftGenerator expands templates and recurrence rules into shifts.
// Ids are s-<unixMilli>-<batch>-<templateIdx>-<seq>; batch increases per
// call so two calls in the same millisecond cannot collide.
type ShiftGenerator struct {
	now   func() time.Time
	loc   *time.Location
	batch atomic.Uint64
}

func NewShiftGenerator(loc *time.Location) *ShiftGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftGenerator{now: time.Now, loc: loc}
}

func (g *ShiftGenerator) nextBatch() (int64, uint64) {
	return g.now().UnixMilli(), g.batch.Add(1)
}

func shiftID(ms int64, batch uint64, templateIdx, seq int) string {
	return fmt.Sprintf("s-%d-%d-%d-%d", ms, batch, templateIdx, seq)
}

// Today the current calendar date in the generator's zone.
func (g *ShiftGenerator) Today() string {
	return g.now().In(g.loc).Format(domain.DateLayout)
}

// AutoSchedule builds AutoScheduleDays days of visits for a client, one per
// active template per day. All shifts are Unassigned and the band comes from
// the template's start hour.
func (g *ShiftGenerator) AutoSchedule(clientID string, templates []domain.VisitTemplate) []domain.Shift {
	ms, batch := g.nextBatch()
	now := g.now().In(g.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var out []domain.Shift
	for day := 0; day < AutoScheduleDays; day++ {
		date := start.AddDate(0, 0, day).Format(domain.DateLayout)
		for idx, tpl := range templates {
			if !tpl.Active {
				continue
			}
			hour, _ := domain.HourOf(tpl.Time)
			out = append(out, domain.Shift{
				ID:        shiftID(ms, batch, idx, day),
				ClientID:  domain.StringPtr(clientID),
				Date:      date,
				Type:      domain.BandForHour(hour),
				StartTime: tpl.Time,
				Duration:  tpl.DurationMinutes,
				Status:    domain.ShiftUnassigned,
			})
		}
	}
	return out
}

// ExpandRecurring copies draft onto each matching date from draft.Date to
// endDate inclusive. The loop runs at most maxRecurrenceIterations times and
// the counter advances on every iteration, emitted or not.
func (g *ShiftGenerator) ExpandRecurring(draft domain.ShiftDraft, kind domain.RecurrenceKind, endDate string) ([]domain.Shift, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, kind)
	}
	cur, err := domain.ParseDate(draft.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrInvalidInput, err)
	}
	end, err := domain.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end date: %v", ErrInvalidInput, err)
	}

	ms, batch := g.nextBatch()
	var out []domain.Shift
	for counter := 0; !cur.After(end) && counter < maxRecurrenceIterations; counter++ {
		emit := true
		if kind == domain.RecurWeekdayOnly {
			wd := cur.Weekday()
			emit = wd != time.Saturday && wd != time.Sunday
		}
		if emit {
			d := draft
			d.Date = cur.Format(domain.DateLayout)
			out = append(out, d.Build(shiftID(ms, batch, 0, counter)))
		}
		if kind == domain.RecurWeekly {
			cur = cur.AddDate(0, 0, 7)
		} else {
			cur = cur.AddDate(0, 0, 1)
		}
	}
	return out, nil
}

// Build turns drafts into shifts with fresh ids from one batch.
func (g *ShiftGenerator) Build(drafts []domain.ShiftDraft) []domain.Shift {
	ms, batch := g.nextBatch()
	out := make([]domain.Shift, len(drafts))
	for i, d := range drafts {
		out[i] = d.Build(shiftID(ms, batch, 0, i))
	}
	return out
}
