package schedule

import (
	"io"
	"time"
)

var weekdayColumn = [...]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// ActiveServices returns the set of service_ids running on the given
// calendar date: calendar.txt rows whose date range covers the date and
// whose weekday column is set, unioned with calendar_dates.txt additions
// (exception_type 1) and minus its removals (exception_type 2).
func ActiveServices(calendar, calendarDates io.Reader, dateint int, weekday time.Weekday) (map[string]struct{}, error) {
	services := make(map[string]struct{})
	column := weekdayColumn[weekday]

	if calendar != nil {
		err := readCSV(calendar, func(record []string, idx map[string]int) {
			start := parseIntField(record, idx, "start_date")
			end := parseIntField(record, idx, "end_date")
			if dateint < start || dateint > end {
				return
			}
			if getField(record, idx, column) == "1" {
				services[getField(record, idx, "service_id")] = struct{}{}
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if calendarDates != nil {
		var additions, removals []string
		err := readCSV(calendarDates, func(record []string, idx map[string]int) {
			if parseIntField(record, idx, "date") != dateint {
				return
			}
			serviceID := getField(record, idx, "service_id")
			switch parseIntField(record, idx, "exception_type") {
			case 1:
				additions = append(additions, serviceID)
			case 2:
				removals = append(removals, serviceID)
			}
		})
		if err != nil {
			return nil, err
		}
		for _, s := range removals {
			delete(services, s)
		}
		for _, s := range additions {
			services[s] = struct{}{}
		}
	}

	return services, nil
}
