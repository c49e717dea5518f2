package handler

import (
	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

type listCoursesQuery struct {
	Language string `query:"language"`
	Level    string `query:"level"`
	Category string `query:"category"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

type createCourseRequest struct {
	Title       string   `json:"title" validate:"max=100"`
	Description string   `json:"description" validate:"max=1000"`
	Language    string   `json:"language"`
	Level       string   `json:"level"`
	Category    string   `json:"category"`
	Duration    string   `json:"duration" validate:"max=50"`
	Modules     int      `json:"modules" validate:"gte=0"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=30"`
}

// updateCourseRequest lists the mutable fields. instructor and enrolledCount
// are not bindable.
type updateCourseRequest struct {
	Title       *string   `json:"title" validate:"omitempty,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=1000"`
	Language    *string   `json:"language"`
	Level       *string   `json:"level"`
	Category    *string   `json:"category"`
	Duration    *string   `json:"duration" validate:"omitempty,max=50"`
	Modules     *int      `json:"modules" validate:"omitempty,gte=0"`
	IsPublished *bool     `json:"isPublished"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=20,dive,max=30"`
}

type coursesData struct {
	Courses    any               `json:"courses"`
	Pagination *ports.Pagination `json:"pagination,omitempty"`
}

type courseData struct {
	Course any `json:"course"`
}

func (r createCourseRequest) toInput() ports.CreateCourseInput {
	return ports.CreateCourseInput{
		Title:       r.Title,
		Description: r.Description,
		Language:    r.Language,
		Level:       r.Level,
		Category:    r.Category,
		Duration:    r.Duration,
		Modules:     r.Modules,
		Tags:        r.Tags,
	}
}

func (r updateCourseRequest) toPatch() domain.CoursePatch {
	p := domain.CoursePatch{
		Title:       r.Title,
		Description: r.Description,
		Duration:    r.Duration,
		Modules:     r.Modules,
		IsPublished: r.IsPublished,
		Tags:        r.Tags,
	}
	if r.Language != nil {
		v := domain.Language(*r.Language)
		p.Language = &v
	}
	if r.Level != nil {
		v := domain.Level(*r.Level)
		p.Level = &v
	}
	if r.Category != nil {
		v := domain.Category(*r.Category)
		p.Category = &v
	}
	return p
}
