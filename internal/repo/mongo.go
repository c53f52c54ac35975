package repo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/course_market/internal/models"
)

const (
	usersCollection   = "users"
	coursesCollection = "courses"
)

type MongoRepo struct {
	DB      *mongo.Database
	users   *mongo.Collection
	courses *mongo.Collection
}

var _ Store = (*MongoRepo)(nil)

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		DB:      db,
		users:   db.Collection(usersCollection),
		courses: db.Collection(coursesCollection),
	}
}

// EnsureIndexes creates the unique email index and the course-maker lookup index.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := r.courses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "courseMaker", Value: 1}},
	})
	return err
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrConflict
	default:
		return err
	}
}

func (r *MongoRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u.Purchases == nil {
		u.Purchases = []string{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.users.InsertOne(ctx, u)
	return translateMongo(err)
}

func (r *MongoRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translateMongo(err)
	}
	return &user, nil
}

func (r *MongoRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateMongo(err)
	}
	if user.Purchases == nil {
		user.Purchases = []string{}
	}
	return &user, nil
}

func (r *MongoRepo) AddPurchase(ctx context.Context, userID, courseID string) error {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"purchases": courseID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (r *MongoRepo) ListPurchasedCourses(ctx context.Context, userID string) ([]models.Course, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Purchases) == 0 {
		return []models.Course{}, nil
	}

	found, err := r.findCourses(ctx, bson.M{"_id": bson.M{"$in": user.Purchases}}, nil)
	if err != nil {
		return nil, err
	}

	// keep purchase order
	byID := make(map[string]models.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	items := make([]models.Course, 0, len(found))
	for _, id := range user.Purchases {
		if c, ok := byID[id]; ok {
			items = append(items, c)
		}
	}
	return items, nil
}

func (r *MongoRepo) findCourses(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Course, error) {
	cur, err := r.courses.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := []models.Course{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoRepo) CreateCourse(ctx context.Context, c *models.Course) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	_, err := r.courses.InsertOne(ctx, c)
	return translateMongo(err)
}

func (r *MongoRepo) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := r.courses.FindOne(ctx, bson.M{"_id": id}).Decode(&course); err != nil {
		return nil, translateMongo(err)
	}
	return &course, nil
}

var createdOrder = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

func (r *MongoRepo) ListCourses(ctx context.Context, offset, limit int) (int64, []models.Course, error) {
	total, err := r.courses.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, nil, err
	}

	items, err := r.findCourses(ctx, bson.M{}, options.Find().
		SetSort(createdOrder).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *MongoRepo) ListCoursesByMaker(ctx context.Context, makerID string) ([]models.Course, error) {
	return r.findCourses(ctx, bson.M{"courseMaker": makerID}, options.Find().SetSort(createdOrder))
}

func (r *MongoRepo) UpdateCourse(ctx context.Context, c *models.Course) error {
	res, err := r.courses.UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$set": bson.M{
		"title":       c.Title,
		"description": c.Description,
		"price":       c.Price,
		"imageUrl":    c.ImageURL,
		"updatedAt":   c.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) DeleteCourse(ctx context.Context, id string) error {
	res, err := r.courses.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) SearchCourses(ctx context.Context, q string, offset, limit int) (int64, []models.Course, error) {
	rx := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	filter := bson.M{"$or": bson.A{bson.M{"title": rx}, bson.M{"description": rx}}}

	total, err := r.courses.CountDocuments(ctx, filter)
	if err != nil {
		return 0, nil, err
	}
	items, err := r.findCourses(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	return r.DB.Client().Ping(ctx, nil)
}

func (r *MongoRepo) Close(ctx context.Context) error {
	return r.DB.Client().Disconnect(ctx)
}
