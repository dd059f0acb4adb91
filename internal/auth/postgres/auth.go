package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/report-hub/internal"
	userDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*coreuser.User, error) {
	var model userDatamodel.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToCore(), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*coreuser.User, error) {
	var model userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToCore(), nil
}

func (r *Repository) Create(ctx context.Context, u *coreuser.User) error {
	model := userDatamodel.FromCore(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return internal.ErrEmailTaken
		}
		return err
	}
	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
