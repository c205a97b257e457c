// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control how much data is generated.
type Options struct {
	Users        int
	PostsPerUser int
	MaxDays      int
	Password     string
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.Password == "" {
		opts.Password = "password123"
	}
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser persists a user with a deterministic password so seeded
// accounts can be logged into.
func (f *Factory) CreateUser() (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(f.opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: gofakeit.Username(),
		Email:    gofakeit.Email(),
		Password: string(hashed),
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs an unpersisted post with a realistic created_at spread.
func (f *Factory) BuildPost(user *models.User) *models.Post {
	title := gofakeit.Sentence(5)
	post := &models.Post{
		Title:   title,
		Slug:    fmt.Sprintf("%s-%s", validation.Slugify(title), gofakeit.LetterN(6)),
		Content: gofakeit.Paragraph(2, 4, 8, "\n\n"),
		Status:  models.PostStatusActive,
		UserID:  user.ID,
	}

	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
	return post
}

// Run seeds users and posts according to the options.
func (f *Factory) Run() error {
	for i := 0; i < f.opts.Users; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		posts := make([]*models.Post, 0, f.opts.PostsPerUser)
		for j := 0; j < f.opts.PostsPerUser; j++ {
			posts = append(posts, f.BuildPost(user))
		}
		if len(posts) > 0 {
			if err := f.db.Create(posts).Error; err != nil {
				return fmt.Errorf("failed to create posts for user %d: %w", user.ID, err)
			}
		}
		log.Printf("seeded user %s with %d posts", user.Username, len(posts))
	}
	return nil
}
