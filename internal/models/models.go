package models

import (
	"time"
)

type User struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" bson:"_id"           json:"id"`
	Email         string    `gorm:"uniqueIndex;not null"         bson:"email"         json:"email"`
	PasswordHash  string    `gorm:"not null"                     bson:"password"      json:"-"`
	FirstName     string    `                                    bson:"firstName"     json:"firstName"`
	LastName      string    `                                    bson:"lastName"      json:"lastName"`
	IsCourseMaker bool      `gorm:"not null;default:false"       bson:"isCourseMaker" json:"isCourseMaker"`
	Purchases     []string  `gorm:"-"                            bson:"purchases"     json:"purchases"`
	CreatedAt     time.Time `                                    bson:"createdAt"     json:"createdAt"`
}

type Course struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)"  bson:"_id"         json:"id"`
	Title         string    `gorm:"not null"                     bson:"title"       json:"title"`
	Description   string    `                                    bson:"description" json:"description"`
	Price         float64   `gorm:"not null;default:0"           bson:"price"       json:"price"`
	ImageURL      string    `                                    bson:"imageUrl"    json:"imageUrl"`
	CourseMakerID string    `gorm:"index;not null;type:varchar(36)" bson:"courseMaker" json:"courseMaker"`
	CreatedAt     time.Time `                                    bson:"createdAt"   json:"createdAt"`
	UpdatedAt     time.Time `                                    bson:"updatedAt"   json:"updatedAt"`
}

// Purchase backs User.Purchases on SQL stores. Document stores keep the ids inline.
type Purchase struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"uniqueIndex:idx_purchase_user_course;not null;type:varchar(36)"`
	CourseID  string    `gorm:"uniqueIndex:idx_purchase_user_course;not null;type:varchar(36)"`
	CreatedAt time.Time
}

// All lists the tables AutoMigrate has to create.
func All() []any {
	return []any{&User{}, &Course{}, &Purchase{}}
}
