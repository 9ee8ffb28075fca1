package service

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
)

// ── ICS section import ──────────────────────────────────────
//
// Each VEVENT becomes a section. SUMMARY is the name, DTSTART and DTEND the
// meeting time, and RRULE BYDAY (or the weekday of DTSTART) the days.
// Events sharing name and time are merged into one section.
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	sectionTimezone = "America/New_York"
)

var ErrInvalidCalendar = errors.New("the uploaded file is not a valid iCalendar file")

var icsWeekdays = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

type parsedSection struct {
	Name      string
	IsLecture bool
	StartTime string
	EndTime   string
	Days      int // bit 0 = Sunday
}

// ParseSectionsICS converts an iCalendar export into section requests ready
// for the usual validation.
func ParseSectionsICS(reader io.Reader) ([]dto.SectionRequest, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	loc, err := time.LoadLocation(sectionTimezone)
	if err != nil {
		loc = time.UTC
	}

	var events []parsedSection
	for _, evt := range cal.Events() {
		if p, ok := parseSectionEvent(evt, loc); ok {
			events = append(events, p)
		}
	}

	merged := mergeSections(events)
	out := make([]dto.SectionRequest, len(merged))
	for i := range merged {
		p := merged[i]
		out[i] = dto.SectionRequest{
			Name:      &p.Name,
			IsLecture: &p.IsLecture,
			StartTime: &p.StartTime,
			EndTime:   &p.EndTime,
			DaysCode:  &p.Days,
		}
	}
	return out, nil
}

func parseSectionEvent(evt *ics.VEvent, loc *time.Location) (parsedSection, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return parsedSection{}, false
	}
	name := strings.TrimSpace(summary.Value)

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return parsedSection{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		return parsedSection{}, false
	}

	days := 1 << int(dtStart.Weekday())
	if rrule := evt.GetProperty(ics.ComponentPropertyRrule); rrule != nil {
		if byDay := parseByDay(rrule.Value); byDay != 0 {
			days = byDay
		}
	}

	upper := strings.ToUpper(name)
	return parsedSection{
		Name:      name,
		IsLecture: strings.HasPrefix(upper, "LEC") || strings.Contains(upper, "LECTURE"),
		StartTime: dtStart.Format("15:04:05"),
		EndTime:   dtEnd.Format("15:04:05"),
		Days:      days,
	}, true
}

// parseByDay reads BYDAY from an RRULE such as FREQ=WEEKLY;BYDAY=MO,WE,FR.
// Ordinal prefixes like 1MO are ignored.
func parseByDay(rule string) int {
	days := 0
	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || strings.ToUpper(kv[0]) != "BYDAY" {
			continue
		}
		for _, d := range strings.Split(kv[1], ",") {
			d = strings.ToUpper(strings.TrimSpace(d))
			if len(d) < 2 {
				continue
			}
			if wd, ok := icsWeekdays[d[len(d)-2:]]; ok {
				days |= 1 << int(wd)
			}
		}
	}
	return days
}

// mergeSections ORs the days of events with the same name and time, keeping
// first-seen order.
func mergeSections(events []parsedSection) []parsedSection {
	type key struct {
		Name      string
		StartTime string
		EndTime   string
	}
	merged := make(map[key]*parsedSection)
	order := []key{}

	for _, e := range events {
		k := key{Name: e.Name, StartTime: e.StartTime, EndTime: e.EndTime}
		if existing, ok := merged[k]; ok {
			existing.Days |= e.Days
			continue
		}
		cp := e
		merged[k] = &cp
		order = append(order, k)
	}

	result := make([]parsedSection, 0, len(merged))
	for _, k := range order {
		result = append(result, *merged[k])
	}
	return result
}

// parseICSDateTime reads a DATE-TIME property, honoring a TZID parameter and
// the UTC suffix, and returns it in loc.
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	layouts := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", val)
}
