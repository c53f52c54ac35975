package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/course_market/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

var _ Store = (*GormRepo)(nil)

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case strings.Contains(strings.ToLower(err.Error()), "unique constraint"):
		return ErrConflict
	default:
		return err
	}
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
		// the unique index still catches a concurrent insert
		return translate(tx.Create(u).Error)
	})
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}

	purchases := []string{}
	if err := r.DB.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ?", id).
		Order("id ASC").
		Pluck("course_id", &purchases).Error; err != nil {
		return nil, err
	}
	user.Purchases = purchases

	return &user, nil
}

func (r *GormRepo) AddPurchase(ctx context.Context, userID, courseID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return ErrNotFound
		}

		var count int64
		if err := tx.Model(&models.Purchase{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}
		return translate(tx.Create(&models.Purchase{UserID: userID, CourseID: courseID}).Error)
	})
}

func (r *GormRepo) ListPurchasedCourses(ctx context.Context, userID string) ([]models.Course, error) {
	items := []models.Course{}
	if err := r.DB.WithContext(ctx).
		Model(&models.Course{}).
		Joins("JOIN purchases ON purchases.course_id = courses.id").
		Where("purchases.user_id = ?", userID).
		Order("purchases.id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CreateCourse(ctx context.Context, c *models.Course) error {
	return translate(r.DB.WithContext(ctx).Create(c).Error)
}

func (r *GormRepo) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

func (r *GormRepo) ListCourses(ctx context.Context, offset, limit int) (int64, []models.Course, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Course{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := []models.Course{}
	if err := r.DB.WithContext(ctx).Model(&models.Course{}).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) ListCoursesByMaker(ctx context.Context, makerID string) ([]models.Course, error) {
	items := []models.Course{}
	if err := r.DB.WithContext(ctx).
		Where("course_maker_id = ?", makerID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateCourse(ctx context.Context, c *models.Course) error {
	res := r.DB.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"title":       c.Title,
			"description": c.Description,
			"price":       c.Price,
			"image_url":   c.ImageURL,
			"updated_at":  c.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCourse(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Course{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SearchCourses(ctx context.Context, q string, offset, limit int) (int64, []models.Course, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := r.DB.WithContext(ctx).Model(&models.Course{}).
		Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern).
		Session(&gorm.Session{})

	var total int64
	if err := where.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := []models.Course{}
	if err := where.
		Order("title ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormRepo) Close(context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
