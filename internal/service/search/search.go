package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
)

// Searcher keeps the course index in sync and answers /course/search.
type Searcher interface {
	IndexCourse(ctx context.Context, c models.Course) error
	DeleteCourse(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Course, error)
}

type ElasticSearcher struct {
	ES    *elasticsearch.Client
	Index string
}

func NewElasticSearcher(es *elasticsearch.Client, index string) *ElasticSearcher {
	return &ElasticSearcher{ES: es, Index: index}
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 1024))
	return fmt.Errorf("search: %s: status %d: %s", op, status, strings.TrimSpace(string(msg)))
}

func (s *ElasticSearcher) IndexCourse(ctx context.Context, c models.Course) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("search: encode course: %w", err)
	}

	res, err := s.ES.Index(
		s.Index,
		&buf,
		s.ES.Index.WithContext(ctx),
		s.ES.Index.WithDocumentID(c.ID),
	)
	if err != nil {
		return fmt.Errorf("search: index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index", res.StatusCode, res.Body)
	}
	return nil
}

func (s *ElasticSearcher) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.ES.Delete(s.Index, id, s.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res.StatusCode, res.Body)
	}
	return nil
}

func (s *ElasticSearcher) Search(ctx context.Context, query string, from, size int) (int64, []models.Course, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, responseError("search", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Course `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	courses := make([]models.Course, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		courses[i] = hit.Source
	}
	return r.Hits.Total.Value, courses, nil
}

// StoreSearcher answers searches straight from the store when no cluster is configured.
type StoreSearcher struct {
	Repo repo.Store
}

func (s StoreSearcher) IndexCourse(context.Context, models.Course) error { return nil }

func (s StoreSearcher) DeleteCourse(context.Context, string) error { return nil }

func (s StoreSearcher) Search(ctx context.Context, query string, from, size int) (int64, []models.Course, error) {
	return s.Repo.SearchCourses(ctx, query, from, size)
}
