package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	// maxPage keeps (page-1)*limit within int range.
	maxPage = math.MaxInt / maxPageLimit
)

// CourseService implements the catalog and enrollment flows.
type CourseService struct {
	courses ports.CourseRepository
	users   ports.UserRepository
	logger  zerolog.Logger
	now     func() time.Time
}

var _ ports.CourseService = (*CourseService)(nil)

func NewCourseService(courses ports.CourseRepository, users ports.UserRepository, logger zerolog.Logger) *CourseService {
	return &CourseService{courses: courses, users: users, logger: logger, now: time.Now}
}

// List returns one page of published courses matching the filters.
func (s *CourseService) List(ctx context.Context, input ports.ListCoursesInput) (*ports.ListCoursesResult, error) {
	filter := ports.ListCoursesFilter{PublishedOnly: true, Page: input.Page, Limit: input.Limit}

	if input.Language != "" {
		filter.Language = domain.Language(input.Language)
		if !filter.Language.Valid() {
			return nil, domain.Validation("Invalid language filter.")
		}
	}
	if input.Level != "" {
		filter.Level = domain.Level(input.Level)
		if !filter.Level.Valid() {
			return nil, domain.Validation("Invalid level filter.")
		}
	}
	if input.Category != "" {
		filter.Category = domain.Category(input.Category)
		if !filter.Category.Valid() {
			return nil, domain.Validation("Invalid category filter.")
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > maxPage {
		filter.Page = maxPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views, err := s.withInstructors(ctx, courses)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ports.ListCoursesResult{
		Courses: views,
		Pagination: ports.Pagination{
			Total: total,
			Page:  filter.Page,
			Limit: filter.Limit,
			Pages: pages,
		},
	}, nil
}

// ListByInstructor returns every course owned by the caller, drafts included.
func (s *CourseService) ListByInstructor(ctx context.Context, actor domain.Identity) ([]*domain.Course, error) {
	return s.courses.ListByInstructor(ctx, actor.UserID)
}

func (s *CourseService) Get(ctx context.Context, id string) (*ports.CourseView, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.withInstructors(ctx, []*domain.Course{course})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CourseService) Create(ctx context.Context, actor domain.Identity, input ports.CreateCourseInput) (*domain.Course, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Language == "" {
		return nil, domain.Validation("Title and language are required.")
	}

	now := s.now().UTC()
	course := &domain.Course{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Language:     domain.Language(input.Language),
		Level:        domain.Level(input.Level),
		Category:     domain.Category(input.Category),
		Duration:     strings.TrimSpace(input.Duration),
		Modules:      input.Modules,
		InstructorID: actor.UserID,
		Tags:         domain.CleanTags(input.Tags),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if course.Level == "" {
		course.Level = domain.LevelFoundation
	}
	if course.Category == "" {
		course.Category = domain.CategoryGrammar
	}
	if err := domain.ValidateCourse(course); err != nil {
		return nil, err
	}

	if err := s.courses.Create(ctx, course); err != nil {
		s.logger.Error().Err(err).Str("instructor", actor.UserID).Msg("failed to create course")
		return nil, err
	}
	s.logger.Info().Str("course_id", course.ID).Str("instructor", actor.UserID).Msg("course created")
	return course, nil
}

// Update applies patch when the caller owns the course or is an admin.
func (s *CourseService) Update(ctx context.Context, actor domain.Identity, id string, patch domain.CoursePatch) (*domain.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(course.InstructorID) {
		return nil, domain.NewError(domain.ErrForbidden, "Not authorized to update this course.")
	}

	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		patch.Title = &t
	}
	if patch.Tags != nil {
		tags := domain.CleanTags(*patch.Tags)
		patch.Tags = &tags
	}
	if err := domain.ValidatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return course, nil
	}

	updated, err := s.courses.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("course_id", id).Str("actor", actor.UserID).Msg("course updated")
	return updated, nil
}

func (s *CourseService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManage(course.InstructorID) {
		return domain.NewError(domain.ErrForbidden, "Not authorized to delete this course.")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("course_id", id).Str("actor", actor.UserID).Msg("course deleted")
	return nil
}

// Enroll adds the course to the caller's enrollment set and bumps the
// course counter. The append is conditional so a repeated enrollment cannot
// be recorded twice; the counter is only incremented after a successful append.
func (s *CourseService) Enroll(ctx context.Context, actor domain.Identity, id string) (*domain.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, domain.NewError(domain.ErrNotAvailable, "This course is not available yet.")
	}

	if err := s.users.AddEnrollment(ctx, actor.UserID, course.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			return nil, domain.NewError(domain.ErrAlreadyEnrolled, "Already enrolled in this course.")
		}
		return nil, err
	}

	if err := s.courses.IncrementEnrolled(ctx, course.ID); err != nil {
		// The enrollment itself is recorded; only the denormalised counter lags.
		s.logger.Error().Err(err).Str("course_id", course.ID).Str("user_id", actor.UserID).Msg("failed to increment enrolled count")
	} else {
		course.EnrolledCount++
	}

	s.logger.Info().Str("course_id", course.ID).Str("user_id", actor.UserID).Msg("user enrolled")
	return course, nil
}

// Enrolled resolves the caller's enrollment set. Courses deleted since are skipped.
func (s *CourseService) Enrolled(ctx context.Context, actor domain.Identity) ([]*domain.Course, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(user.EnrolledCourses) == 0 {
		return []*domain.Course{}, nil
	}
	return s.courses.FindByIDs(ctx, user.EnrolledCourses)
}

func (s *CourseService) withInstructors(ctx context.Context, courses []*domain.Course) ([]ports.CourseView, error) {
	ids := make([]string, 0, len(courses))
	seen := make(map[string]struct{}, len(courses))
	for _, c := range courses {
		if _, ok := seen[c.InstructorID]; ok || c.InstructorID == "" {
			continue
		}
		seen[c.InstructorID] = struct{}{}
		ids = append(ids, c.InstructorID)
	}

	summaries := map[string]domain.UserSummary{}
	if len(ids) > 0 {
		var err error
		if summaries, err = s.users.FindSummaries(ctx, ids); err != nil {
			return nil, err
		}
	}

	views := make([]ports.CourseView, 0, len(courses))
	for _, c := range courses {
		view := ports.CourseView{Course: c}
		if summary, ok := summaries[c.InstructorID]; ok {
			view.Instructor = &summary
		}
		views = append(views, view)
	}
	return views, nil
}
