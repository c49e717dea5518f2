package mongo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vartalang/vartalang-api/internal/core/domain"
	"github.com/vartalang/vartalang-api/internal/core/ports"
)

const collectionCourses = "courses"

type CourseRepository struct {
	col *mongo.Collection
}

var _ ports.CourseRepository = (*CourseRepository)(nil)

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{col: db.Collection(collectionCourses)}
}

type courseDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	Language      string             `bson:"language"`
	Level         string             `bson:"level"`
	Category      string             `bson:"category"`
	Duration      string             `bson:"duration"`
	Modules       int                `bson:"modules"`
	IsPublished   bool               `bson:"isPublished"`
	EnrolledCount int64              `bson:"enrolledCount"`
	Instructor    primitive.ObjectID `bson:"instructor"`
	Tags          []string           `bson:"tags"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *courseDocument) toDomain() *domain.Course {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &domain.Course{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		Language:      domain.Language(d.Language),
		Level:         domain.Level(d.Level),
		Category:      domain.Category(d.Category),
		Duration:      d.Duration,
		Modules:       d.Modules,
		IsPublished:   d.IsPublished,
		EnrolledCount: d.EnrolledCount,
		InstructorID:  d.Instructor.Hex(),
		Tags:          tags,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	instructor, err := objectID(c.InstructorID)
	if err != nil {
		return fmt.Errorf("course instructor: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	res, err := r.col.InsertOne(ctx, courseDocument{
		Title:         c.Title,
		Description:   c.Description,
		Language:      string(c.Language),
		Level:         string(c.Level),
		Category:      string(c.Category),
		Duration:      c.Duration,
		Modules:       c.Modules,
		IsPublished:   c.IsPublished,
		EnrolledCount: c.EnrolledCount,
		Instructor:    instructor,
		Tags:          tags,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID).Hex()
	c.Tags = tags
	return nil
}

// FindByID returns domain.ErrCourseNotFound for unknown and malformed IDs alike.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*domain.Course, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc courseDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CourseRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*domain.Course{}, nil
	}

	found, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	out := make([]*domain.Course, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// List returns the requested page sorted by creation time, newest first.
func (r *CourseRepository) List(ctx context.Context, filter ports.ListCoursesFilter) ([]*domain.Course, int64, error) {
	query := buildCourseFilter(filter)

	countCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	total, err := r.col.CountDocuments(countCtx, query)
	cancel()
	if err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(pageSkip(filter.Page, filter.Limit)).
		SetLimit(int64(filter.Limit))

	courses, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// pageSkip returns the number of documents before page. It never goes
// negative and saturates instead of overflowing.
func pageSkip(page, limit int) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	p, l := int64(page-1), int64(limit)
	if p > math.MaxInt64/l {
		return math.MaxInt64
	}
	return p * l
}

func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]*domain.Course, error) {
	oid, err := objectID(instructorID)
	if err != nil {
		return []*domain.Course{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"instructor": oid}, opts)
}

func (r *CourseRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []courseDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	courses := make([]*domain.Course, 0, len(docs))
	for i := range docs {
		courses = append(courses, docs[i].toDomain())
	}
	return courses, nil
}

// Update applies the patch and returns the stored course.
func (r *CourseRepository) Update(ctx context.Context, id string, patch domain.CoursePatch) (*domain.Course, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": buildCourseSet(patch, time.Now().UTC())}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc courseDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrCourseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// IncrementEnrolled bumps enrolledCount with an atomic $inc.
func (r *CourseRepository) IncrementEnrolled(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return domain.ErrCourseNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"enrolledCount": 1}})
	if err != nil {
		return fmt.Errorf("increment enrolled count: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// EnsureIndexes creates the catalog indexes.
func (r *CourseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "language", Value: 1}, {Key: "level", Value: 1}}},
		{Keys: bson.D{{Key: "instructor", Value: 1}}},
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func buildCourseFilter(f ports.ListCoursesFilter) bson.M {
	filter := bson.M{}
	if f.PublishedOnly {
		filter["isPublished"] = true
	}
	if f.Language != "" {
		filter["language"] = string(f.Language)
	}
	if f.Level != "" {
		filter["level"] = string(f.Level)
	}
	if f.Category != "" {
		filter["category"] = string(f.Category)
	}
	return filter
}

// buildCourseSet maps a patch to a $set document. instructor and
// enrolledCount are never part of it.
func buildCourseSet(p domain.CoursePatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Language != nil {
		set["language"] = string(*p.Language)
	}
	if p.Level != nil {
		set["level"] = string(*p.Level)
	}
	if p.Category != nil {
		set["category"] = string(*p.Category)
	}
	if p.Duration != nil {
		set["duration"] = *p.Duration
	}
	if p.Modules != nil {
		set["modules"] = *p.Modules
	}
	if p.IsPublished != nil {
		set["isPublished"] = *p.IsPublished
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}
	return set
}
