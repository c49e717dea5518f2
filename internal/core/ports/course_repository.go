package ports

import (
	"context"

	"github.com/vartalang/vartalang-api/internal/core/domain"
)

// ListCoursesFilter carries the catalog query. Empty enum fields mean no filter.
type ListCoursesFilter struct {
	PublishedOnly bool
	Language      domain.Language
	Level         domain.Level
	Category      domain.Category
	Page          int // 1-based
	Limit         int
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	// Create inserts c and sets its ID.
	Create(ctx context.Context, c *domain.Course) error
	FindByID(ctx context.Context, id string) (*domain.Course, error)
	// FindByIDs returns the courses that still exist, in the order of ids.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error)
	// List returns one page of matches, newest first, and the total match count.
	List(ctx context.Context, filter ListCoursesFilter) ([]*domain.Course, int64, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]*domain.Course, error)
	Update(ctx context.Context, id string, patch domain.CoursePatch) (*domain.Course, error)
	Delete(ctx context.Context, id string) error
	IncrementEnrolled(ctx context.Context, id string) error
}
