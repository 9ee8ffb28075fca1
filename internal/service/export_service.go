package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
)

// ── Export errors ──

var ErrExportGenerateFail = errors.New("failed to generate the spreadsheet")

// ExportService renders grading assignments as spreadsheets.
//
// The workbook has a "Summary" sheet with one row per grader followed by one
// sheet per grader listing their students. Returned as a buffer so the
// handler can set download headers.
type ExportService interface {
	ExportAssignment(ctx context.Context, assignmentID string, actor Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	grading GradingService
	logger  *zap.Logger
}

// NewExportService creates an ExportService. Access rules and loading are
// shared with the grading service.
func NewExportService(grading GradingService, logger *zap.Logger) ExportService {
	return &exportService{grading: grading, logger: logger}
}

const summarySheet = "Summary"

// sheet names may not contain these, may not start or end with an
// apostrophe, and are limited to 31 characters.
var invalidSheetChars = regexp.MustCompile(`[\[\]:*?/\\]`)

const maxSheetBase = 28

func sheetName(email string, used map[string]bool) string {
	base := email
	if at := strings.IndexByte(base, '@'); at > 0 {
		base = base[:at]
	}
	base = strings.Trim(invalidSheetChars.ReplaceAllString(base, "_"), "'")
	if r := []rune(base); len(r) > maxSheetBase {
		base = strings.TrimRight(string(r[:maxSheetBase]), "'")
	}
	if base == "" || strings.EqualFold(base, summarySheet) {
		base = "grader"
	}
	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		name = fmt.Sprintf("%s~%d", base, n)
	}
	used[strings.ToLower(name)] = true
	return name
}

func (s *exportService) ExportAssignment(ctx context.Context, assignmentID string, actor Actor) (*bytes.Buffer, string, error) {
	detail, err := s.grading.Get(ctx, assignmentID, actor)
	if err != nil {
		return nil, "", err
	}

	buf, err := renderAssignment(detail)
	if err != nil {
		s.logger.Error("render assignment workbook failed", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_%s_grading.xlsx", detail.CourseName, detail.AssessmentName)
	return buf, invalidSheetChars.ReplaceAllString(filename, "_"), nil
}

func renderAssignment(detail *dto.AssignmentDetailResponse) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#005BBB"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	// ── Summary ──
	title := fmt.Sprintf("%s: %s", detail.CourseName, detail.AssessmentDisplayName)
	f.SetCellValue(summarySheet, "A1", title)
	f.MergeCell(summarySheet, "A1", "D1")
	f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)

	f.SetCellValue(summarySheet, "A2", "Grader")
	f.SetCellValue(summarySheet, "B2", "Assigned")
	f.SetCellValue(summarySheet, "C2", "Completed")
	f.SetCellValue(summarySheet, "D2", "Sheet")
	f.SetCellStyle(summarySheet, "A2", "D2", headerStyle)
	f.SetColWidth(summarySheet, "A", "A", 32)
	f.SetColWidth(summarySheet, "B", "C", 12)
	f.SetColWidth(summarySheet, "D", "D", 32)

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for i, g := range detail.Graders {
		row := i + 3
		done := 0
		for _, p := range g.Pairs {
			if p.Completed {
				done++
			}
		}
		name := sheetName(g.GraderEmail, used)

		f.SetCellValue(summarySheet, cell("A", row), g.GraderEmail)
		f.SetCellValue(summarySheet, cell("B", row), len(g.Pairs))
		f.SetCellValue(summarySheet, cell("C", row), done)
		f.SetCellValue(summarySheet, cell("D", row), name)

		if err := renderGraderSheet(f, name, g, headerStyle); err != nil {
			return nil, err
		}
	}

	totalRow := len(detail.Graders) + 3
	f.SetCellValue(summarySheet, cell("A", totalRow), "Total")
	f.SetCellValue(summarySheet, cell("B", totalRow), detail.TotalPairs)
	f.SetCellValue(summarySheet, cell("C", totalRow), detail.CompletedPairs)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func renderGraderSheet(f *excelize.File, name string, g dto.GraderPairsResponse, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	f.SetCellValue(name, "A1", "Student")
	f.SetCellValue(name, "B1", "Version")
	f.SetCellValue(name, "C1", "Submission")
	f.SetCellValue(name, "D1", "Completed")
	f.SetCellStyle(name, "A1", "D1", headerStyle)
	f.SetColWidth(name, "A", "A", 32)
	f.SetColWidth(name, "B", "B", 10)
	f.SetColWidth(name, "C", "C", 60)
	f.SetColWidth(name, "D", "D", 12)

	for i, p := range g.Pairs {
		row := i + 2
		f.SetCellValue(name, cell("A", row), p.StudentEmail)
		f.SetCellValue(name, cell("B", row), p.SubmissionVersion)
		if p.SubmissionURL != "" {
			f.SetCellValue(name, cell("C", row), p.SubmissionURL)
			f.SetCellHyperLink(name, cell("C", row), p.SubmissionURL, "External")
		}
		if p.Completed {
			f.SetCellValue(name, cell("D", row), "yes")
		} else {
			f.SetCellValue(name, cell("D", row), "no")
		}
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
