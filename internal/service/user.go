package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/mykafka"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/transport"
	pkg_hash "github.com/Skotchmaster/course_market/pkg/hash"
	"github.com/Skotchmaster/course_market/pkg/logging"
	"github.com/Skotchmaster/course_market/pkg/tokens"
)

type UserService struct {
	Repo      repo.Store
	Producer  mykafka.Publisher
	JWTSecret []byte
	TokenTTL  time.Duration
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

func (s *UserService) hashCost() int {
	if s.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.HashCost
}

func (s *UserService) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.TokenTTL
}

func (s *UserService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, mykafka.UserEventsTopic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", mykafka.UserEventsTopic, "type", event["type"], "error", err)
	}
}

func (s *UserService) issueToken(u *models.User) (string, error) {
	return tokens.NewAccessToken(u.ID, u.IsCourseMaker, time.Now().Add(s.tokenTTL()), s.JWTSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Signup(ctx context.Context, req transport.SignupRequest) (*transport.SignupResult, error) {
	l := logging.FromContext(ctx).With("svc", "user.signup")

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPasswordCost(req.Password, s.hashCost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: password too long", ErrValidation)
		}
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: pwHash,
		Purchases:    []string{},
		CreatedAt:    time.Now().UTC(),
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsCourseMaker != nil {
		user.IsCourseMaker = *req.IsCourseMaker
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("signup_error", "status", 409, "reason", "email already registered")
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		l.Error("signup_error", "status", 500, "reason", "cannot write user", "error", err)
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type":          "user_signed_up",
		"userID":        user.ID,
		"isCourseMaker": user.IsCourseMaker,
	})

	l.Info("signup_success", "user_id", user.ID)
	return &transport.SignupResult{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResult, error) {
	email := normalizeEmail(req.Email)
	l := logging.FromContext(ctx).With("svc", "user.login")

	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	l = l.With("user_id", user.ID)

	if !pkg_hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot sign token", "error", err)
		return nil, err
	}

	l.Info("login_success")
	return &transport.LoginResult{Token: token, IsCourseMaker: user.IsCourseMaker}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return user, nil
}

// PurchaseCourse looks the course up and appends it to the user's purchases.
func (s *UserService) PurchaseCourse(ctx context.Context, userID, courseID string) error {
	l := logging.FromContext(ctx).With("svc", "user.purchase_course", "user_id", userID, "course_id", courseID)

	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return fmt.Errorf("%w: courseId is required", ErrValidation)
	}

	course, err := s.Repo.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: course %s", ErrNotFound, courseID)
		}
		return err
	}

	if err := s.Repo.AddPurchase(ctx, userID, course.ID); err != nil {
		switch {
		case errors.Is(err, repo.ErrConflict):
			return fmt.Errorf("%w: course already purchased", ErrConflict)
		case errors.Is(err, repo.ErrNotFound):
			return fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		l.Error("purchase_error", "status", 500, "error", err)
		return err
	}

	s.publish(ctx, userID, map[string]any{
		"type":     "course_purchased",
		"userID":   userID,
		"courseID": course.ID,
		"price":    course.Price,
	})

	l.Info("purchase_success")
	return nil
}

func (s *UserService) Purchases(ctx context.Context, userID string) ([]models.Course, error) {
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	return s.Repo.ListPurchasedCourses(ctx, userID)
}
