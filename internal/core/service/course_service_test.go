package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

type courseFixture struct {
	svc        *CourseService
	users      *stubUserRepo
	courses    *stubCourseRepo
	instructor domain.Identity
	student    domain.Identity
	admin      domain.Identity
}

func newCourseFixture() *courseFixture {
	users := newStubUserRepo()
	courses := newStubCourseRepo()
	inst := users.seed(&domain.User{Name: "Meera Iyer", Email: "meera@example.com", Role: domain.RoleInstructor, IsActive: true})
	stud := users.seed(&domain.User{Name: "Ravi Kumar", Email: "ravi@example.com", Role: domain.RoleStudent, IsActive: true})
	adm := users.seed(&domain.User{Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin, IsActive: true})
	return &courseFixture{
		svc:        NewCourseService(courses, users, nopLogger),
		users:      users,
		courses:    courses,
		instructor: domain.Identity{UserID: inst.ID, Role: inst.Role},
		student:    domain.Identity{UserID: stud.ID, Role: stud.Role},
		admin:      domain.Identity{UserID: adm.ID, Role: adm.Role},
	}
}

func (f *courseFixture) publishedCourse(lang domain.Language) *domain.Course {
	return f.courses.seed(&domain.Course{
		Title:        "Spoken " + string(lang),
		Language:     lang,
		Level:        domain.LevelFoundation,
		Category:     domain.CategoryConversation,
		IsPublished:  true,
		InstructorID: f.instructor.UserID,
	})
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestCourseService_List_FilterAndPaginate(t *testing.T) {
	f := newCourseFixture()
	for i := 0; i < 12; i++ {
		f.publishedCourse(domain.LanguageHindi)
	}
	for i := 0; i < 3; i++ {
		f.publishedCourse(domain.LanguageTamil)
	}
	f.courses.seed(&domain.Course{Title: "Draft", Language: domain.LanguageHindi, InstructorID: f.instructor.UserID})

	res, err := f.svc.List(context.Background(), ports.ListCoursesInput{Language: "Hindi", Page: 2, Limit: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(res.Courses) != 5 {
		t.Fatalf("expected 5 courses, got %d", len(res.Courses))
	}
	want := ports.Pagination{Total: 12, Page: 2, Limit: 5, Pages: 3}
	if res.Pagination != want {
		t.Errorf("expected pagination %+v, got %+v", want, res.Pagination)
	}
	for _, c := range res.Courses {
		if c.Language != domain.LanguageHindi || !c.IsPublished {
			t.Errorf("unexpected course in page: %+v", c.Course)
		}
		if c.Instructor == nil || c.Instructor.Name != "Meera Iyer" {
			t.Errorf("instructor not populated: %+v", c.Instructor)
		}
	}
	for i := 1; i < len(res.Courses); i++ {
		if res.Courses[i].CreatedAt.After(res.Courses[i-1].CreatedAt) {
			t.Fatal("courses must be sorted newest first")
		}
	}
}

func TestCourseService_List_Defaults(t *testing.T) {
	f := newCourseFixture()
	f.publishedCourse(domain.LanguageEnglish)

	res, err := f.svc.List(context.Background(), ports.ListCoursesInput{Page: -3, Limit: 5000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Pagination.Page != 1 || res.Pagination.Limit != maxPageLimit {
		t.Errorf("unexpected pagination %+v", res.Pagination)
	}

	res, _ = f.svc.List(context.Background(), ports.ListCoursesInput{})
	if res.Pagination.Limit != defaultPageLimit || res.Pagination.Pages != 1 {
		t.Errorf("unexpected default pagination %+v", res.Pagination)
	}
}

func TestCourseService_List_HugePageIsClamped(t *testing.T) {
	f := newCourseFixture()
	f.publishedCourse(domain.LanguageEnglish)

	res, err := f.svc.List(context.Background(), ports.ListCoursesInput{Page: math.MaxInt, Limit: maxPageLimit})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Pagination.Page != maxPage || len(res.Courses) != 0 || res.Pagination.Total != 1 {
		t.Errorf("unexpected result %+v", res.Pagination)
	}
}

func TestCourseService_List_RejectsUnknownEnums(t *testing.T) {
	f := newCourseFixture()

	for _, in := range []ports.ListCoursesInput{
		{Language: "Klingon"},
		{Level: "expert"},
		{Category: "poetry"},
	} {
		_, err := f.svc.List(context.Background(), in)
		assertKind(t, err, domain.ErrValidation)
	}
}

// ---------------------------------------------------------------------------
// Create / Update / Delete
// ---------------------------------------------------------------------------

func TestCourseService_Create_Defaults(t *testing.T) {
	f := newCourseFixture()

	c, err := f.svc.Create(context.Background(), f.instructor, ports.CreateCourseInput{
		Title:    "  Marathi Basics ",
		Language: "Marathi",
		Tags:     []string{" beginner ", ""},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Title != "Marathi Basics" {
		t.Errorf("title not trimmed: %q", c.Title)
	}
	if c.Level != domain.LevelFoundation || c.Category != domain.CategoryGrammar {
		t.Errorf("unexpected defaults %q/%q", c.Level, c.Category)
	}
	if c.InstructorID != f.instructor.UserID {
		t.Errorf("owner must be the caller, got %q", c.InstructorID)
	}
	if c.IsPublished || c.EnrolledCount != 0 {
		t.Error("new courses start unpublished with no enrollments")
	}
	if len(c.Tags) != 1 || c.Tags[0] != "beginner" {
		t.Errorf("unexpected tags %v", c.Tags)
	}
	if f.courses.get(c.ID) == nil {
		t.Fatal("course not persisted")
	}
}

func TestCourseService_Create_Validation(t *testing.T) {
	f := newCourseFixture()

	cases := []ports.CreateCourseInput{
		{Language: "Hindi"},
		{Title: "Hindi 101"},
		{Title: "Hi", Language: "Hindi"},
		{Title: "Hindi 101", Language: "Latin"},
		{Title: "Hindi 101", Language: "Hindi", Level: "expert"},
		{Title: "Hindi 101", Language: "Hindi", Modules: -1},
	}
	for _, in := range cases {
		_, err := f.svc.Create(context.Background(), f.instructor, in)
		assertKind(t, err, domain.ErrValidation)
	}
}

func TestCourseService_Create_RepoError(t *testing.T) {
	f := newCourseFixture()
	f.courses.createErr = errors.New("db unavailable")

	_, err := f.svc.Create(context.Background(), f.instructor, ports.CreateCourseInput{Title: "Hindi 101", Language: "Hindi"})
	if err == nil {
		t.Fatal("expected error when repo fails")
	}
}

func TestCourseService_Update_OwnerAndAdmin(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)

	title := "Hindi Conversation"
	updated, err := f.svc.Update(context.Background(), f.instructor, c.ID, domain.CoursePatch{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title not updated: %q", updated.Title)
	}

	published := false
	if _, err := f.svc.Update(context.Background(), f.admin, c.ID, domain.CoursePatch{IsPublished: &published}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if f.courses.get(c.ID).IsPublished {
		t.Error("admin update not applied")
	}
}

func TestCourseService_Update_NonOwnerForbidden(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)
	other := f.users.seed(&domain.User{Name: "Other", Email: "o@example.com", Role: domain.RoleInstructor, IsActive: true})

	title := "Hijacked"
	_, err := f.svc.Update(context.Background(), domain.Identity{UserID: other.ID, Role: other.Role}, c.ID, domain.CoursePatch{Title: &title})
	assertKind(t, err, domain.ErrForbidden)
	if msg, _ := domain.MessageOf(err); msg != "Not authorized to update this course." {
		t.Errorf("unexpected message %q", msg)
	}
	if f.courses.get(c.ID).Title != c.Title {
		t.Fatal("course must be unchanged")
	}
}

func TestCourseService_Update_InvalidPatch(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)

	lvl := domain.Level("expert")
	_, err := f.svc.Update(context.Background(), f.instructor, c.ID, domain.CoursePatch{Level: &lvl})
	assertKind(t, err, domain.ErrValidation)
}

func TestCourseService_Update_Unknown(t *testing.T) {
	f := newCourseFixture()
	title := "Nothing"
	_, err := f.svc.Update(context.Background(), f.admin, "missing", domain.CoursePatch{Title: &title})
	assertKind(t, err, domain.ErrNotFound)
}

func TestCourseService_Delete(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)

	err := f.svc.Delete(context.Background(), f.student, c.ID)
	assertKind(t, err, domain.ErrForbidden)
	if f.courses.get(c.ID) == nil {
		t.Fatal("forbidden delete must not remove the course")
	}

	if err := f.svc.Delete(context.Background(), f.instructor, c.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if f.courses.get(c.ID) != nil {
		t.Fatal("course still present")
	}

	err = f.svc.Delete(context.Background(), f.instructor, c.ID)
	assertKind(t, err, domain.ErrNotFound)
}

func TestCourseService_Get(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageUrdu)

	view, err := f.svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Instructor == nil || view.Instructor.Email != "meera@example.com" {
		t.Errorf("instructor not populated: %+v", view.Instructor)
	}

	_, err = f.svc.Get(context.Background(), "nope")
	assertKind(t, err, domain.ErrNotFound)
}

func TestCourseService_ListByInstructor_IncludesDrafts(t *testing.T) {
	f := newCourseFixture()
	f.publishedCourse(domain.LanguageHindi)
	f.courses.seed(&domain.Course{Title: "Draft", Language: domain.LanguageHindi, InstructorID: f.instructor.UserID})
	f.courses.seed(&domain.Course{Title: "Someone else", Language: domain.LanguageHindi, InstructorID: "other"})

	list, err := f.svc.ListByInstructor(context.Background(), f.instructor)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(list))
	}
}

// ---------------------------------------------------------------------------
// Enrollment
// ---------------------------------------------------------------------------

func TestCourseService_Enroll_Once(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)

	got, err := f.svc.Enroll(context.Background(), f.student, c.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if got.EnrolledCount != 1 {
		t.Errorf("expected returned count 1, got %d", got.EnrolledCount)
	}

	_, err = f.svc.Enroll(context.Background(), f.student, c.ID)
	assertKind(t, err, domain.ErrAlreadyEnrolled)
	if domain.StatusOf(err) != 400 {
		t.Errorf("expected 400, got %d", domain.StatusOf(err))
	}

	if n := f.courses.get(c.ID).EnrolledCount; n != 1 {
		t.Errorf("expected enrolledCount 1, got %d", n)
	}
	if ids := f.users.get(f.student.UserID).EnrolledCourses; len(ids) != 1 || ids[0] != c.ID {
		t.Errorf("unexpected enrollment set %v", ids)
	}
}

func TestCourseService_Enroll_Concurrent(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Enroll(context.Background(), f.student, c.ID)
		}()
	}
	wg.Wait()

	if n := f.courses.get(c.ID).EnrolledCount; n != 1 {
		t.Errorf("expected enrolledCount 1, got %d", n)
	}
	if ids := f.users.get(f.student.UserID).EnrolledCourses; len(ids) != 1 {
		t.Errorf("expected one enrollment, got %v", ids)
	}
}

func TestCourseService_Enroll_Unpublished(t *testing.T) {
	f := newCourseFixture()
	draft := f.courses.seed(&domain.Course{Title: "Draft", Language: domain.LanguageHindi, InstructorID: f.instructor.UserID})

	_, err := f.svc.Enroll(context.Background(), f.student, draft.ID)
	assertKind(t, err, domain.ErrNotAvailable)

	if f.courses.get(draft.ID).EnrolledCount != 0 {
		t.Error("counter must not change")
	}
	if len(f.users.get(f.student.UserID).EnrolledCourses) != 0 {
		t.Error("enrollment set must not change")
	}
}

func TestCourseService_Enroll_Unknown(t *testing.T) {
	f := newCourseFixture()
	_, err := f.svc.Enroll(context.Background(), f.student, "missing")
	assertKind(t, err, domain.ErrNotFound)
}

func TestCourseService_Enroll_CounterFailureKeepsEnrollment(t *testing.T) {
	f := newCourseFixture()
	c := f.publishedCourse(domain.LanguageHindi)
	f.courses.incErr = errors.New("write conflict")

	if _, err := f.svc.Enroll(context.Background(), f.student, c.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if len(f.users.get(f.student.UserID).EnrolledCourses) != 1 {
		t.Fatal("enrollment must be recorded")
	}
}

func TestCourseService_Enrolled_SkipsDeleted(t *testing.T) {
	f := newCourseFixture()
	a := f.publishedCourse(domain.LanguageHindi)
	b := f.publishedCourse(domain.LanguageTamil)

	for _, id := range []string{a.ID, b.ID} {
		if _, err := f.svc.Enroll(context.Background(), f.student, id); err != nil {
			t.Fatalf("enroll %s: %v", id, err)
		}
	}
	if err := f.courses.Delete(context.Background(), a.ID); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.Enrolled(context.Background(), f.student)
	if err != nil {
		t.Fatalf("enrolled: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("expected only %s, got %+v", b.ID, list)
	}
}
