package repository

import (
	"context"
	"errors"

	"teamtasks/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

type ProfileRepositoryInterface interface {
	Create(ctx context.Context, profile *model.Profile) error
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	FindByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	List(ctx context.Context, team string) ([]model.Profile, error)
	SetRole(ctx context.Context, email string, role model.Role) error
}

var _ ProfileRepositoryInterface = (*ProfileRepository)(nil)

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	return r.findOne(ctx, "id = ?", id)
}

// findOne returns nil, nil when no profile matches.
func (r *ProfileRepository) findOne(ctx context.Context, query string, arg any) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where(query, arg).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns profiles ordered by first name, optionally limited to a team.
func (r *ProfileRepository) List(ctx context.Context, team string) ([]model.Profile, error) {
	q := r.db.WithContext(ctx).Order("first_name ASC")
	if team != "" {
		q = q.Where("member_team = ?", team)
	}
	var profiles []model.Profile
	err := q.Find(&profiles).Error
	return profiles, err
}

// SetRole changes the role of the profile owning email. RoleNone clears it.
func (r *ProfileRepository) SetRole(ctx context.Context, email string, role model.Role) error {
	var value any
	if role != model.RoleNone {
		value = string(role)
	}
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("email = ?", email).
		Update("role", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
