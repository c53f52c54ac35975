package transport

import "github.com/Skotchmaster/course_market/internal/models"

type SignupRequest struct {
	Email         string  `json:"email"         validate:"required,email,max=254"`
	Password      string  `json:"password"      validate:"required,max=72"`
	FirstName     *string `json:"firstName"     validate:"omitempty,max=100"`
	LastName      *string `json:"lastName"      validate:"omitempty,max=100"`
	IsCourseMaker *bool   `json:"isCourseMaker"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PurchaseCourseRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}

type CreateCourseRequest struct {
	Title       string  `json:"title"       validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price"       validate:"gte=0"`
	ImageURL    string  `json:"imageUrl"    validate:"omitempty,url"`
}

type DeleteCourseRequest struct {
	CourseID string `json:"courseId" query:"courseId" validate:"required"`
}

type UpdateCourseContentRequest struct {
	CourseID    string   `json:"courseId"    validate:"required"`
	Title       *string  `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	ImageURL    *string  `json:"imageUrl"    validate:"omitempty,url"`
}

func (r UpdateCourseContentRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Price == nil && r.ImageURL == nil
}

type SignupResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type LoginResult struct {
	Token         string `json:"token"`
	IsCourseMaker bool   `json:"isCourseMaker"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

type CoursePage struct {
	Data []models.Course `json:"data"`
	Meta PageMeta        `json:"meta"`
}
