package domain

import (
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Structural mutation errors. The service layer maps these onto the HTTP
// error taxonomy (400 invalid day, 404 missing week, 409 duplicate).
var (
	ErrInvalidDayName       = errors.New("day name is not a canonical weekday")
	ErrInvalidBlockRef      = errors.New("block reference is not a valid id")
	ErrInvalidWeekNumber    = errors.New("week number must be at least 1")
	ErrWeekNotFound         = errors.New("week not found in plan")
	ErrDuplicateWeek        = errors.New("duplicate week number in plan")
	ErrDuplicateDay         = errors.New("duplicate day name in week")
	ErrBlockAlreadyAssigned = errors.New("block is already assigned to this day")
)

// NewWeek builds a fully materialized week: all seven days present, empty
// and flagged as rest. Weeks are created eagerly so day arrays never end up
// sparse in some weeks and full in others.
func NewWeek(number int) Week {
	days := make([]Day, len(Weekdays))
	for i, name := range Weekdays {
		days[i] = Day{Name: name, Blocks: []primitive.ObjectID{}, Rest: true}
	}
	return Week{Number: number, Days: days}
}

// settleRest re-derives the rest flag: a day with no blocks is a rest day.
func (d *Day) settleRest() {
	d.Rest = len(d.Blocks) == 0
}

// HasBlock reports whether the day already references blockID.
func (d *Day) HasBlock(blockID primitive.ObjectID) bool {
	for _, id := range d.Blocks {
		if id == blockID {
			return true
		}
	}
	return false
}

// sortDaysCanonical orders days by the weekday calendar. Unknown names
// (which should not exist in stored documents) sort last.
func sortDaysCanonical(days []Day) {
	sort.SliceStable(days, func(i, j int) bool {
		a, b := WeekdayIndex(days[i].Name), WeekdayIndex(days[j].Name)
		if a < 0 {
			return false
		}
		if b < 0 {
			return true
		}
		return a < b
	})
}

// findWeek returns the week with the given number, or nil.
func (p *Plan) findWeek(number int) *Week {
	for i := range p.Weeks {
		if p.Weeks[i].Number == number {
			return &p.Weeks[i]
		}
	}
	return nil
}

// MaterializeWeek returns the week with the given number, creating it fully
// populated if absent. Weeks stay sorted by number.
func (p *Plan) MaterializeWeek(number int) *Week {
	if w := p.findWeek(number); w != nil {
		return w
	}
	p.Weeks = append(p.Weeks, NewWeek(number))
	sort.SliceStable(p.Weeks, func(i, j int) bool {
		return p.Weeks[i].Number < p.Weeks[j].Number
	})
	return p.findWeek(number)
}

// findDay returns the day with the given canonical name, or nil.
func (w *Week) findDay(name string) *Day {
	for i := range w.Days {
		if w.Days[i].Name == name {
			return &w.Days[i]
		}
	}
	return nil
}

// ensureDay returns the named day, creating it as an empty rest day and
// re-sorting the week into canonical order if it was missing. Historical
// documents written under the lazy materialization policy may lack days.
func (w *Week) ensureDay(name string) *Day {
	if d := w.findDay(name); d != nil {
		return d
	}
	w.Days = append(w.Days, Day{Name: name, Blocks: []primitive.ObjectID{}, Rest: true})
	sortDaysCanonical(w.Days)
	return w.findDay(name)
}

// pruneInvalidRefs rebuilds every day's block list dropping zero ids and
// duplicates left behind by historical bad writes, then settles rest flags.
func (w *Week) pruneInvalidRefs() {
	for i := range w.Days {
		d := &w.Days[i]
		seen := make(map[primitive.ObjectID]bool, len(d.Blocks))
		kept := make([]primitive.ObjectID, 0, len(d.Blocks))
		for _, id := range d.Blocks {
			if id.IsZero() || seen[id] {
				continue
			}
			seen[id] = true
			kept = append(kept, id)
		}
		d.Blocks = kept
		d.settleRest()
	}
}

// AssignBlock inserts a block reference into the named day of the given
// week, creating the week (all seven days) and the day as needed. The
// caller is responsible for verifying that blockID resolves to an existing
// block before invoking this.
func (p *Plan) AssignBlock(weekNumber int, dayName string, blockID primitive.ObjectID) error {
	if !IsWeekday(dayName) {
		return ErrInvalidDayName
	}
	if blockID.IsZero() {
		return ErrInvalidBlockRef
	}

	week := p.MaterializeWeek(weekNumber)
	week.pruneInvalidRefs()

	day := week.ensureDay(dayName)
	if day.HasBlock(blockID) {
		return ErrBlockAlreadyAssigned
	}
	day.Blocks = append(day.Blocks, blockID)
	day.Rest = false
	return nil
}

// RemoveBlock filters blockID out of every day of the given week. Removal
// is deliberately week-wide, not day-wide; days left empty revert to rest.
// Removing a block that is not referenced anywhere in the week is a no-op,
// which keeps retries safe.
func (p *Plan) RemoveBlock(weekNumber int, blockID primitive.ObjectID) error {
	week := p.findWeek(weekNumber)
	if week == nil {
		return ErrWeekNotFound
	}
	for i := range week.Days {
		d := &week.Days[i]
		kept := make([]primitive.ObjectID, 0, len(d.Blocks))
		for _, id := range d.Blocks {
			if id != blockID {
				kept = append(kept, id)
			}
		}
		d.Blocks = kept
		d.settleRest()
	}
	return nil
}

// PruneRefs removes every block reference for which exists returns false,
// across all weeks, and settles rest flags. It returns how many references
// were dropped. Used by the cascade purge and the scheduled integrity sweep.
func (p *Plan) PruneRefs(exists func(primitive.ObjectID) bool) int {
	pruned := 0
	for wi := range p.Weeks {
		for di := range p.Weeks[wi].Days {
			d := &p.Weeks[wi].Days[di]
			kept := make([]primitive.ObjectID, 0, len(d.Blocks))
			for _, id := range d.Blocks {
				if !id.IsZero() && exists(id) {
					kept = append(kept, id)
				} else {
					pruned++
				}
			}
			d.Blocks = kept
			d.settleRest()
		}
	}
	return pruned
}

// NormalizeWeeks validates and canonicalizes a replacement week list: week
// numbers must be >=1 and unique, day names canonical and unique per week.
// Block lists are deduplicated, rest flags settled and both weeks and days
// sorted into canonical order. The input slice is not modified.
func NormalizeWeeks(weeks []Week) ([]Week, error) {
	out := make([]Week, 0, len(weeks))
	weekNums := make(map[int]bool, len(weeks))
	for _, w := range weeks {
		if w.Number < 1 {
			return nil, ErrInvalidWeekNumber
		}
		if weekNums[w.Number] {
			return nil, ErrDuplicateWeek
		}
		weekNums[w.Number] = true

		nw := Week{Number: w.Number, Days: make([]Day, 0, len(w.Days))}
		dayNames := make(map[string]bool, len(w.Days))
		for _, d := range w.Days {
			if !IsWeekday(d.Name) {
				return nil, ErrInvalidDayName
			}
			if dayNames[d.Name] {
				return nil, ErrDuplicateDay
			}
			dayNames[d.Name] = true
			nw.Days = append(nw.Days, Day{Name: d.Name, Blocks: append([]primitive.ObjectID{}, d.Blocks...)})
		}
		nw.pruneInvalidRefs()
		sortDaysCanonical(nw.Days)
		out = append(out, nw)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// BlockRefs returns every block id referenced anywhere in the plan,
// deduplicated, in traversal order.
func (p *Plan) BlockRefs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool)
	var refs []primitive.ObjectID
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, id := range d.Blocks {
				if !seen[id] {
					seen[id] = true
					refs = append(refs, id)
				}
			}
		}
	}
	return refs
}

// TotalBlocks counts block references across the whole plan.
func (p *Plan) TotalBlocks() int {
	n := 0
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			n += len(d.Blocks)
		}
	}
	return n
}

// TotalDays counts materialized day entries across the whole plan.
func (p *Plan) TotalDays() int {
	n := 0
	for _, w := range p.Weeks {
		n += len(w.Days)
	}
	return n
}

// TotalRestDays counts days currently flagged as rest.
func (p *Plan) TotalRestDays() int {
	n := 0
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			if d.Rest {
				n++
			}
		}
	}
	return n
}
