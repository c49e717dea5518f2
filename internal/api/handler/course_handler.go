package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vartalang/vartalang-api/internal/api/metrics"
	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

type CourseHandler struct {
	courseService ports.CourseService
}

func NewCourseHandler(courseService ports.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// List returns published courses, filtered and paginated.
//
// @Summary      List published courses
// @Tags         courses
// @Produce      json
// @Param        language  query     string  false  "Language filter"
// @Param        level     query     string  false  "Level filter"     Enums(foundation, professional, mastery)
// @Param        category  query     string  false  "Category filter"
// @Param        page      query     int     false  "Page (default 1)"
// @Param        limit     query     int     false  "Page size (default 10, max 100)"
// @Success      200       {object}  Response{data=coursesData}
// @Failure      400       {object}  Response
// @Router       /courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	var q listCoursesQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return domain.Validation("Invalid query parameters.")
	}

	res, err := h.courseService.List(c.Request().Context(), ports.ListCoursesInput{
		Language: q.Language,
		Level:    q.Level,
		Category: q.Category,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", coursesData{Courses: res.Courses, Pagination: &res.Pagination})
}

// Mine returns every course owned by the caller, drafts included.
//
// @Summary      Instructor's own courses
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=coursesData}
// @Failure      401  {object}  Response
// @Failure      403  {object}  Response
// @Router       /courses/instructor/mine [get]
func (h *CourseHandler) Mine(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	courses, err := h.courseService.ListByInstructor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", coursesData{Courses: courses})
}

// Enrolled returns the caller's enrolled courses.
//
// @Summary      Enrolled courses
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=coursesData}
// @Failure      401  {object}  Response
// @Router       /courses/user/enrolled [get]
func (h *CourseHandler) Enrolled(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	courses, err := h.courseService.Enrolled(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", coursesData{Courses: courses})
}

// Get returns a single course with its instructor.
//
// @Summary      Get course
// @Tags         courses
// @Produce      json
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  Response{data=courseData}
// @Failure      404  {object}  Response
// @Router       /courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	course, err := h.courseService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", courseData{Course: course})
}

// Create adds a course owned by the caller.
//
// @Summary      Create course
// @Tags         courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCourseRequest  true  "Course"
// @Success      201   {object}  Response{data=courseData}
// @Failure      400   {object}  Response
// @Failure      401   {object}  Response
// @Failure      403   {object}  Response
// @Router       /courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req createCourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := h.courseService.Create(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	metrics.CoursesCreatedTotal.WithLabelValues(string(course.Language)).Inc()
	return respond(c, http.StatusCreated, "Course created!", courseData{Course: course})
}

// Update patches a course. Only the owner or an admin may do this.
//
// @Summary      Update course
// @Tags         courses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Course ID"
// @Param        body  body      updateCourseRequest  true  "Fields to change"
// @Success      200   {object}  Response{data=courseData}
// @Failure      400   {object}  Response
// @Failure      403   {object}  Response
// @Failure      404   {object}  Response
// @Router       /courses/{id} [put]
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req updateCourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	course, err := h.courseService.Update(c.Request().Context(), id, c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course updated!", courseData{Course: course})
}

// Delete removes a course. Only the owner or an admin may do this.
//
// @Summary      Delete course
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  Response
// @Failure      403  {object}  Response
// @Failure      404  {object}  Response
// @Router       /courses/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.courseService.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Course deleted successfully.", nil)
}

// Enroll adds the course to the caller's enrollments.
//
// @Summary      Enroll
// @Tags         courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  Response
// @Failure      404  {object}  Response
// @Router       /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	course, err := h.courseService.Enroll(c.Request().Context(), id, c.Param("id"))
	metrics.EnrollmentsTotal.WithLabelValues(enrollResult(err)).Inc()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf(`Successfully enrolled in "%s"!`, course.Title), nil)
}

func enrollResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, domain.ErrNotAvailable):
		return "not_available"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
