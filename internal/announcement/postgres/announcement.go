package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/report-hub/internal/announcement"
	announcementDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/announcement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// audienceExpr wraps the stored list in commas so one LIKE matches a whole entry.
const audienceExpr = "(',' || target_audience || ',')"

type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) announcement.Repository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *announcement.Announcement) error {
	model := announcement.ToDataModel(a)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	a.ID = model.ID
	a.CreatedAt = model.CreatedAt
	a.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AnnouncementRepository) GetByID(ctx context.Context, id int64) (*announcement.Announcement, error) {
	var model announcementDatamodel.Announcement
	err := r.db.WithContext(ctx).
		Preload("Reads", func(db *gorm.DB) *gorm.DB { return db.Order("read_at ASC") }).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, announcement.ErrAnnouncementNotFound
		}
		return nil, err
	}
	return announcement.FromDataModel(&model), nil
}

func (r *AnnouncementRepository) List(ctx context.Context, filter announcement.ListFilter) (*announcement.ListResult, error) {
	query := r.db.WithContext(ctx).Model(&announcementDatamodel.Announcement{})

	if v := filter.Visibility; v != nil {
		query = query.
			Where("is_published = ?", true).
			Where("(expires_at IS NULL OR expires_at >= ?)", v.Now).
			Where("("+audienceExpr+" LIKE ? OR "+audienceExpr+" LIKE ?)",
				"%,"+announcement.AudienceAll+",%",
				"%,"+string(v.Role)+",%")
	} else if filter.IsPublished != nil {
		query = query.Where("is_published = ?", *filter.IsPublished)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var models []*announcementDatamodel.Announcement
	err := query.
		Preload("Reads", func(db *gorm.DB) *gorm.DB { return db.Order("read_at ASC") }).
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return &announcement.ListResult{
		Announcements: announcement.FromDataModelSlice(models),
		Total:         total,
	}, nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, a *announcement.Announcement) error {
	model := announcement.ToDataModel(a)
	res := r.db.WithContext(ctx).Model(model).
		Select("title", "content", "type", "priority", "is_published", "published_at",
			"expires_at", "target_audience", "attachments", "updated_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return announcement.ErrAnnouncementNotFound
	}
	return nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ?", id).Delete(&announcementDatamodel.Read{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&announcementDatamodel.Announcement{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return announcement.ErrAnnouncementNotFound
		}
		return nil
	})
}

func (r *AnnouncementRepository) AddRead(ctx context.Context, announcementID, userID int64, at time.Time) error {
	read := &announcementDatamodel.Read{
		AnnouncementID: announcementID,
		UserID:         userID,
		ReadAt:         at,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "announcement_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(read).Error
}
