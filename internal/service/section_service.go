package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/UB-CSE-IT/Autolab-Self-Service/internal/dto"
	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/autolab"
)

// SectionService lecture and recitation meeting times stored on the
// platform. Callers must be instructors of the platform course.
type SectionService interface {
	List(ctx context.Context, courseName string, actor Actor) (*dto.SectionsResponse, error)
	Upsert(ctx context.Context, courseName string, actor Actor, req *dto.UpsertSectionsRequest) (*dto.SectionsResponse, error)
	ImportICS(ctx context.Context, courseName string, actor Actor, file io.Reader) (*dto.SectionsResponse, error)
}

type sectionService struct {
	platform autolab.API
	logger   *zap.Logger
}

// NewSectionService creates a SectionService.
func NewSectionService(platform autolab.API, logger *zap.Logger) SectionService {
	return &sectionService{platform: platform, logger: logger}
}

func toSectionResponses(sections []autolab.Section) []dto.SectionResponse {
	out := make([]dto.SectionResponse, len(sections))
	for i, s := range sections {
		out[i] = dto.SectionResponse{
			Name:      s.Name,
			IsLecture: s.IsLecture,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			DaysCode:  s.DaysCode,
		}
	}
	return out
}

func (s *sectionService) List(ctx context.Context, courseName string, actor Actor) (*dto.SectionsResponse, error) {
	if _, err := requirePlatformInstructor(ctx, s.platform, actor, courseName); err != nil {
		return nil, err
	}

	sections, err := s.platform.CourseSections(ctx, courseName)
	if err != nil {
		s.logger.Warn("fetch sections failed", zap.String("course", courseName), zap.Error(err))
		return nil, upstreamError(err)
	}
	return &dto.SectionsResponse{
		CourseName:        sections.CourseName,
		CourseDisplayName: sections.CourseDisplayName,
		Sections:          toSectionResponses(sections.Sections),
	}, nil
}

func (s *sectionService) Upsert(ctx context.Context, courseName string, actor Actor, req *dto.UpsertSectionsRequest) (*dto.SectionsResponse, error) {
	course, err := requirePlatformInstructor(ctx, s.platform, actor, courseName)
	if err != nil {
		return nil, err
	}
	return s.upsert(ctx, courseName, course, req.Sections)
}

func (s *sectionService) ImportICS(ctx context.Context, courseName string, actor Actor, file io.Reader) (*dto.SectionsResponse, error) {
	course, err := requirePlatformInstructor(ctx, s.platform, actor, courseName)
	if err != nil {
		return nil, err
	}

	sections, err := ParseSectionsICS(file)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sections parsed from calendar", zap.String("course", courseName), zap.Int("sections", len(sections)))
	return s.upsert(ctx, courseName, course, sections)
}

func (s *sectionService) upsert(ctx context.Context, courseName string, course *autolab.Course, input []dto.SectionRequest) (*dto.SectionsResponse, error) {
	valid, problems := validateSections(input)
	if len(problems) > 0 {
		return nil, &ValidationError{Kind: ErrInvalidSections, Problems: problems}
	}
	if len(valid) == 0 {
		return nil, ErrNoSections
	}

	if err := s.platform.UpsertCourseSections(ctx, courseName, valid); err != nil {
		s.logger.Error("upsert sections failed", zap.String("course", courseName), zap.Error(err))
		return nil, upstreamError(err)
	}
	s.logger.Info("sections updated", zap.String("course", courseName), zap.Int("sections", len(valid)))

	resp := &dto.SectionsResponse{CourseName: courseName, Sections: toSectionResponses(valid)}
	if course != nil {
		resp.CourseDisplayName = course.DisplayName
	}
	return resp, nil
}

// validateSections skips sections with an empty name and reports every
// other problem. Any problem means nothing should be written.
func validateSections(sections []dto.SectionRequest) ([]autolab.Section, []string) {
	var problems []string
	valid := make([]autolab.Section, 0, len(sections))

	for _, sec := range sections {
		name := "[Unnamed Section]"
		if sec.Name != nil {
			name = *sec.Name
		}
		if name == "" {
			continue
		}
		if sec.IsLecture == nil {
			problems = append(problems, fmt.Sprintf("%s is missing is_lecture", name))
			continue
		}
		kind := "Section"
		if *sec.IsLecture {
			kind = "Lecture"
		}

		if sec.StartTime == nil {
			problems = append(problems, fmt.Sprintf("%s %q is missing start_time", kind, name))
			continue
		}
		start, err := time.Parse("15:04:05", *sec.StartTime)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %q start time must be a valid time formatted as 20:30:40", kind, name))
			continue
		}
		if sec.EndTime == nil {
			problems = append(problems, fmt.Sprintf("%s %q is missing end_time", kind, name))
			continue
		}
		end, err := time.Parse("15:04:05", *sec.EndTime)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s %q end time must be a valid time formatted as 20:30:40", kind, name))
			continue
		}
		if !start.Before(end) {
			problems = append(problems, fmt.Sprintf("%s %q start time must be before end time", kind, name))
			continue
		}
		if sec.DaysCode == nil {
			problems = append(problems, fmt.Sprintf("%s %q is missing days code", kind, name))
			continue
		}
		if *sec.DaysCode < 0 || *sec.DaysCode > 127 {
			problems = append(problems, fmt.Sprintf("%s %q days code must be between 0 and 127", kind, name))
			continue
		}

		valid = append(valid, autolab.Section{
			Name:      name,
			IsLecture: *sec.IsLecture,
			StartTime: *sec.StartTime,
			EndTime:   *sec.EndTime,
			DaysCode:  *sec.DaysCode,
		})
	}
	return valid, problems
}
