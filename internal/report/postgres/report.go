package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/report-hub/internal/core/database"
	reportDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/report"
	"github.com/frahmantamala/report-hub/internal/report"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// ReportRepository implements the report.Repository interface using GORM
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) report.Repository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	model := report.ToDataModel(rep)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return report.ErrDuplicateReport
		}
		return err
	}
	rep.ID = model.ID
	rep.CreatedAt = model.CreatedAt
	rep.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *ReportRepository) ExistsForDay(ctx context.Context, userID int64, reportType string, day time.Time) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&reportDatamodel.Report{}).
		Where("user_id = ? AND type = ? AND report_date = ?", userID, reportType, day).
		Count(&count).Error
	return count > 0, err
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*report.Report, error) {
	var model reportDatamodel.Report
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, report.ErrReportNotFound
		}
		return nil, err
	}
	return report.FromDataModel(&model), nil
}

func (r *ReportRepository) List(ctx context.Context, filter report.ListFilter) (*report.ListResult, error) {
	query := database.Conn(ctx, r.db).Model(&reportDatamodel.Report{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else if filter.ExcludeStatus != "" {
		query = query.Where("status <> ?", filter.ExcludeStatus)
	}
	if filter.Date != nil {
		query = query.Where("report_date = ?", *filter.Date)
	}
	if filter.StartDate != nil {
		query = query.Where("report_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("report_date <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var models []*reportDatamodel.Report
	err := query.
		Order("report_date DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	return &report.ListResult{
		Reports: report.FromDataModelSlice(models),
		Total:   total,
	}, nil
}

func (r *ReportRepository) Update(ctx context.Context, rep *report.Report, expectedStatus string) error {
	model := report.ToDataModel(rep)
	res := database.Conn(ctx, r.db).Model(model).
		Where("status = ?", expectedStatus).
		Select("tasks", "notes", "status", "submitted_at", "updated_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return report.ErrStaleReport
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	res := database.Conn(ctx, r.db).Where("id = ?", id).Delete(&reportDatamodel.Report{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

// MarkSubmitted moves a draft to submitted; it affects no row if the report
// already left draft.
func (r *ReportRepository) MarkSubmitted(ctx context.Context, id int64, at time.Time) error {
	return r.transition(ctx, id, report.StatusDraft, map[string]interface{}{
		"status":       report.StatusSubmitted,
		"submitted_at": at,
		"updated_at":   at,
	})
}

func (r *ReportRepository) MarkReviewed(ctx context.Context, id int64, status string, reviewerID int64, notes string, at time.Time) error {
	return r.transition(ctx, id, report.StatusSubmitted, map[string]interface{}{
		"status":       status,
		"reviewed_by":  reviewerID,
		"reviewed_at":  at,
		"review_notes": notes,
		"updated_at":   at,
	})
}

// WithinTransaction runs fn in a transaction that repositories sharing this
// database join through the context.
func (r *ReportRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.Transaction(ctx, r.db, fn)
}

func (r *ReportRepository) transition(ctx context.Context, id int64, from string, updates map[string]interface{}) error {
	res := database.Conn(ctx, r.db).Model(&reportDatamodel.Report{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return report.ErrStaleReport
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
