package ports

import (
	"context"

	"github.com/vartalang/vartalang-api/internal/core/domain"
)

// ListCoursesInput carries the raw catalog query; enum values are validated by the service.
type ListCoursesInput struct {
	Language string
	Level    string
	Category string
	Page     int
	Limit    int
}

// CourseView is a course with its instructor resolved.
type CourseView struct {
	*domain.Course
	Instructor *domain.UserSummary `json:"instructor"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type ListCoursesResult struct {
	Courses    []CourseView
	Pagination Pagination
}

// CreateCourseInput carries a new course. Empty level/category take their defaults.
type CreateCourseInput struct {
	Title       string
	Description string
	Language    string
	Level       string
	Category    string
	Duration    string
	Modules     int
	Tags        []string
}

type CourseService interface {
	List(ctx context.Context, input ListCoursesInput) (*ListCoursesResult, error)
	ListByInstructor(ctx context.Context, actor domain.Identity) ([]*domain.Course, error)
	Get(ctx context.Context, id string) (*CourseView, error)
	Create(ctx context.Context, actor domain.Identity, input CreateCourseInput) (*domain.Course, error)
	Update(ctx context.Context, actor domain.Identity, id string, patch domain.CoursePatch) (*domain.Course, error)
	Delete(ctx context.Context, actor domain.Identity, id string) error
	Enroll(ctx context.Context, actor domain.Identity, id string) (*domain.Course, error)
	Enrolled(ctx context.Context, actor domain.Identity) ([]*domain.Course, error)
}
