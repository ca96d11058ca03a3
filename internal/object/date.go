package object

import "github.com/cwbudde/ecmago/internal/atom"

// DateData is the Date exotic object (spec §4.7 step 4): a single internal
// [[DateValue]] slot, a time value in milliseconds since the epoch, or NaN
// for an Invalid Date. Every other Date behavior (parsing, formatting,
// component getters/setters) belongs to the builtins layer, which has the
// realm needed to throw and the calendar math this package intentionally
// does not own.
type DateData struct {
	*Object
	TimeValue float64
}

func NewDate(tbl *atom.Table, proto JSObject, timeValue float64) *DateData {
	d := &DateData{Object: New(tbl, proto, "Date"), TimeValue: timeValue}
	d.SetSelf(d)
	return d
}
