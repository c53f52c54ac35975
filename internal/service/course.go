package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/course_market/internal/cache"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/mykafka"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/service/search"
	"github.com/Skotchmaster/course_market/internal/transport"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type CourseService struct {
	Repo     repo.Store
	Producer mykafka.Publisher
	Search   search.Searcher
	Cache    *cache.CourseCache
}

// afterWrite pushes a course mutation to the broker, the search index and the
// listing cache. None of them is the source of truth, so failures are only logged.
func (s *CourseService) afterWrite(ctx context.Context, eventType string, course models.Course, deleted bool) {
	l := logging.FromContext(ctx).With("svc", "course.after_write", "course_id", course.ID)

	if s.Producer != nil {
		event := map[string]any{
			"type":          eventType,
			"courseID":      course.ID,
			"courseMakerID": course.CourseMakerID,
			"title":         course.Title,
		}
		if err := s.Producer.PublishEvent(ctx, mykafka.CourseEventsTopic, course.ID, event); err != nil {
			l.Error("kafka_publish_error", "type", eventType, "error", err)
		}
	}

	if s.Search != nil {
		var err error
		if deleted {
			err = s.Search.DeleteCourse(ctx, course.ID)
		} else {
			err = s.Search.IndexCourse(ctx, course)
		}
		if err != nil {
			l.Error("search_index_error", "type", eventType, "error", err)
		}
	}

	if err := s.Cache.Invalidate(ctx); err != nil {
		l.Error("cache_invalidate_error", "error", err)
	}
}

func (s *CourseService) ListCourses(ctx context.Context, page, size int) (*transport.CoursePage, error) {
	l := logging.FromContext(ctx).With("svc", "course.list")
	page, size = util.Normalize(page, size)

	var cached transport.CoursePage
	version, hit, cacheErr := s.Cache.GetPage(ctx, page, size, &cached)
	if cacheErr != nil {
		l.Warn("cache_get_error", "error", cacheErr)
	}
	if hit {
		return &cached, nil
	}

	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListCourses(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	result := &transport.CoursePage{
		Data: items,
		Meta: transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: util.TotalPages(total, limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	}

	// without a known version the page could land under a newer one
	if cacheErr == nil {
		if err := s.Cache.SetPage(ctx, version, page, size, result); err != nil {
			l.Warn("cache_set_error", "error", err)
		}
	}
	return result, nil
}

func (s *CourseService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.Repo.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, id)
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) MyCourses(ctx context.Context, makerID string) ([]models.Course, error) {
	return s.Repo.ListCoursesByMaker(ctx, makerID)
}

func (s *CourseService) SearchCourses(ctx context.Context, query string, page, size int) (int64, []models.Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: q is required", ErrValidation)
	}

	offset, limit := util.Calculate(page, size)
	if s.Search == nil {
		return s.Repo.SearchCourses(ctx, query, offset, limit)
	}
	return s.Search.Search(ctx, query, offset, limit)
}

func (s *CourseService) CreateCourse(ctx context.Context, makerID string, req transport.CreateCourseRequest) (*models.Course, error) {
	l := logging.FromContext(ctx).With("svc", "course.create", "course_maker_id", makerID)

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	now := time.Now().UTC()
	course := &models.Course{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Price:         req.Price,
		ImageURL:      req.ImageURL,
		CourseMakerID: makerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.Repo.CreateCourse(ctx, course); err != nil {
		l.Error("create_course_error", "status", 500, "error", err)
		return nil, err
	}

	s.afterWrite(ctx, "course_created", *course, false)
	l.Info("create_course_success", "course_id", course.ID)
	return course, nil
}

// owned loads the course and checks makerID owns it.
func (s *CourseService) owned(ctx context.Context, makerID, courseID string) (*models.Course, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CourseMakerID != makerID {
		return nil, fmt.Errorf("%w: course %s belongs to another course maker", ErrForbidden, courseID)
	}
	return course, nil
}

func (s *CourseService) UpdateCourseContent(ctx context.Context, makerID string, req transport.UpdateCourseContentRequest) (*models.Course, error) {
	l := logging.FromContext(ctx).With("svc", "course.update_content", "course_maker_id", makerID, "course_id", req.CourseID)

	if req.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	course, err := s.owned(ctx, makerID, req.CourseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.ImageURL != nil {
		course.ImageURL = *req.ImageURL
	}
	course.UpdatedAt = time.Now().UTC()

	if err := s.Repo.UpdateCourse(ctx, course); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, req.CourseID)
		}
		l.Error("update_course_error", "status", 500, "error", err)
		return nil, err
	}

	s.afterWrite(ctx, "course_updated", *course, false)
	l.Info("update_course_success")
	return course, nil
}

func (s *CourseService) DeleteCourse(ctx context.Context, makerID, courseID string) error {
	l := logging.FromContext(ctx).With("svc", "course.delete", "course_maker_id", makerID, "course_id", courseID)

	course, err := s.owned(ctx, makerID, courseID)
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteCourse(ctx, course.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: course %s", ErrNotFound, courseID)
		}
		l.Error("delete_course_error", "status", 500, "error", err)
		return err
	}

	s.afterWrite(ctx, "course_deleted", *course, true)
	l.Info("delete_course_success")
	return nil
}
