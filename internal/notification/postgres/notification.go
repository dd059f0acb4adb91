package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/report-hub/internal/core/database"
	notificationDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/notification"
	"github.com/frahmantamala/report-hub/internal/notification"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	model := notification.ToDataModel(n)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	n.ID = model.ID
	n.CreatedAt = model.CreatedAt
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	var model notificationDatamodel.Notification
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, err
	}
	return notification.FromDataModel(&model), nil
}

func (r *NotificationRepository) List(ctx context.Context, userID int64, filter notification.ListFilter) ([]*notification.Notification, int64, error) {
	query := database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []*notificationDatamodel.Notification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return notification.FromDataModelSlice(models), total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, at time.Time) error {
	return database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res := database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&notificationDatamodel.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}
