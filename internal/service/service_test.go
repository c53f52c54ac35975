package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	pkgdb "github.com/Skotchmaster/course_market/pkg/db"
)

type sentEvent struct {
	Topic string
	Key   string
	Event map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, _ := event.(map[string]any)
	p.events = append(p.events, sentEvent{Topic: topic, Key: key, Event: m})
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type recordingSearcher struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
	err     error
}

func (s *recordingSearcher) IndexCourse(_ context.Context, c models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexed = append(s.indexed, c.ID)
	return s.err
}

func (s *recordingSearcher) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return s.err
}

func (s *recordingSearcher) Search(context.Context, string, int, int) (int64, []models.Course, error) {
	return 0, nil, errors.New("not implemented")
}

func newTestStore(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, ":memory:")
	require.NoError(t, err)

	r := repo.NewGormRepo(db)
	require.NoError(t, r.Migrate(context.Background()))
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func newTestUserService(t *testing.T, store repo.Store, pub *recordingPublisher) *UserService {
	t.Helper()
	return &UserService{
		Repo:      store,
		Producer:  pub,
		JWTSecret: []byte("test-jwt-secret"),
		HashCost:  bcrypt.MinCost,
	}
}
