package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/course_market/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Store is the document store behind the handlers: a users collection and a
// courses collection. GormRepo and MongoRepo implement it.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns the user with Purchases filled in.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// AddPurchase appends courseID to the user's purchases; ErrConflict if it is already there.
	AddPurchase(ctx context.Context, userID, courseID string) error
	ListPurchasedCourses(ctx context.Context, userID string) ([]models.Course, error)

	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	ListCourses(ctx context.Context, offset, limit int) (int64, []models.Course, error)
	ListCoursesByMaker(ctx context.Context, makerID string) ([]models.Course, error)
	UpdateCourse(ctx context.Context, c *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
	SearchCourses(ctx context.Context, q string, offset, limit int) (int64, []models.Course, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
