package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

// ════════════════════════════════════════════════════════════
// ICS parser
// ════════════════════════════════════════════════════════════

// A MWF lecture plus one recitation exported as two single events.
const testSectionsICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Test//EN
BEGIN:VEVENT
UID:1
SUMMARY:LEC A
DTSTART;TZID=America/New_York:20240826T100000
DTEND;TZID=America/New_York:20240826T105000
RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR;COUNT=42
END:VEVENT
BEGIN:VEVENT
UID:2
SUMMARY:R1
DTSTART:20240827T150000Z
DTEND:20240827T165000Z
END:VEVENT
BEGIN:VEVENT
UID:3
SUMMARY:R1
DTSTART:20240829T150000Z
DTEND:20240829T165000Z
END:VEVENT
BEGIN:VEVENT
UID:4
DTSTART:20240829T150000Z
DTEND:20240829T165000Z
END:VEVENT
END:VCALENDAR`

func TestParseSectionsICS(t *testing.T) {
	sections, err := ParseSectionsICS(strings.NewReader(testSectionsICS))
	if err != nil {
		t.Fatalf("ParseSectionsICS: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}

	lec := sections[0]
	if *lec.Name != "LEC A" || !*lec.IsLecture {
		t.Errorf("lecture = %s lecture=%v", *lec.Name, *lec.IsLecture)
	}
	if *lec.StartTime != "10:00:00" || *lec.EndTime != "10:50:00" {
		t.Errorf("lecture time = %s-%s", *lec.StartTime, *lec.EndTime)
	}
	if *lec.DaysCode != 2|8|32 {
		t.Errorf("lecture days = %d, want MWF", *lec.DaysCode)
	}

	rec := sections[1]
	if *rec.IsLecture {
		t.Error("R1 is not a lecture")
	}
	// 15:00Z is 11:00 in New York during daylight saving time.
	if *rec.StartTime != "11:00:00" || *rec.EndTime != "12:50:00" {
		t.Errorf("recitation time = %s-%s", *rec.StartTime, *rec.EndTime)
	}
	if *rec.DaysCode != 4|16 {
		t.Errorf("recitation days = %d, want TuTh merged", *rec.DaysCode)
	}
}

func TestParseSectionsICS_Invalid(t *testing.T) {
	_, err := ParseSectionsICS(strings.NewReader("this is not a calendar"))
	if !errors.Is(err, ErrInvalidCalendar) {
		t.Errorf("err = %v, want ErrInvalidCalendar", err)
	}
}

func TestParseByDay(t *testing.T) {
	cases := map[string]int{
		"FREQ=WEEKLY;BYDAY=TU,TH": 4 | 16,
		"FREQ=MONTHLY;BYDAY=1SU":  1,
		"FREQ=WEEKLY":             0,
		"BYDAY=SA;FREQ=WEEKLY":    64,
	}
	for rule, want := range cases {
		if got := parseByDay(rule); got != want {
			t.Errorf("parseByDay(%q) = %d, want %d", rule, got, want)
		}
	}
}

// ════════════════════════════════════════════════════════════
// Section validation
// ════════════════════════════════════════════════════════════

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }
func intp(n int) *int       { return &n }

func section(name string, lecture bool, start, end string, days int) dto.SectionRequest {
	return dto.SectionRequest{Name: strp(name), IsLecture: boolp(lecture), StartTime: strp(start), EndTime: strp(end), DaysCode: intp(days)}
}

func TestValidateSections(t *testing.T) {
	valid, problems := validateSections([]dto.SectionRequest{
		section("A1", false, "09:00:00", "09:50:00", 2),
		section("", false, "bad", "bad", 999), // skipped
		section("LEC", true, "10:00:00", "09:00:00", 42),
		section("B2", false, "9am", "10:00:00", 2),
		section("C3", false, "09:00:00", "10:00:00", 128),
		{StartTime: strp("09:00:00")},
	})

	if len(valid) != 1 || valid[0].Name != "A1" {
		t.Errorf("valid = %+v", valid)
	}
	want := []string{
		`Lecture "LEC" start time must be before end time`,
		`Section "B2" start time must be a valid time formatted as 20:30:40`,
		`Section "C3" days code must be between 0 and 127`,
		`[Unnamed Section] is missing is_lecture`,
	}
	if len(problems) != len(want) {
		t.Fatalf("problems = %v", problems)
	}
	for i := range want {
		if problems[i] != want[i] {
			t.Errorf("problem %d = %q, want %q", i, problems[i], want[i])
		}
	}
}

// ════════════════════════════════════════════════════════════
// SectionService
// ════════════════════════════════════════════════════════════

func setupTestSectionService() (SectionService, *fakePlatform) {
	platform := newFakePlatform()
	platform.userCourses["prof@buffalo.edu"] = []autolab.Course{{Name: "cse116", DisplayName: "CSE 116", Role: autolab.RoleInstructor}}
	return NewSectionService(platform, zap.NewNop()), platform
}

func TestSectionUpsert(t *testing.T) {
	svc, platform := setupTestSectionService()
	ctx := context.Background()

	resp, err := svc.Upsert(ctx, "cse116", profActor, &dto.UpsertSectionsRequest{Sections: []dto.SectionRequest{
		section("A1", false, "09:00:00", "09:50:00", 2),
	}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if resp.CourseDisplayName != "CSE 116" || len(platform.upserted["cse116"]) != 1 {
		t.Errorf("resp = %+v, upserted = %v", resp, platform.upserted)
	}

	_, err = svc.Upsert(ctx, "cse116", profActor, &dto.UpsertSectionsRequest{Sections: []dto.SectionRequest{
		section("A2", false, "09:00:00", "09:50:00", 2),
		section("B2", false, "10:00:00", "09:50:00", 2),
	}})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrInvalidSections) {
		t.Fatalf("err = %v, want invalid sections", err)
	}
	if platform.upserted["cse116"][0].Name != "A1" {
		t.Error("a rejected request must not reach the platform")
	}

	_, err = svc.Upsert(ctx, "cse116", profActor, &dto.UpsertSectionsRequest{Sections: []dto.SectionRequest{{Name: strp("")}}})
	if !errors.Is(err, ErrNoSections) {
		t.Errorf("err = %v, want ErrNoSections", err)
	}
}

func TestSectionUpsert_Forbidden(t *testing.T) {
	svc, _ := setupTestSectionService()

	_, err := svc.Upsert(context.Background(), "cse116", taActor, &dto.UpsertSectionsRequest{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestSectionImportICS(t *testing.T) {
	svc, platform := setupTestSectionService()

	resp, err := svc.ImportICS(context.Background(), "cse116", profActor, strings.NewReader(testSectionsICS))
	if err != nil {
		t.Fatalf("ImportICS: %v", err)
	}
	if len(resp.Sections) != 2 || len(platform.upserted["cse116"]) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}
