package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/report-hub/internal/report"
	"github.com/jmoiron/sqlx"
)

// StatsRepository runs the aggregation queries with plain SQL through sqlx.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) report.StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CountByStatus(ctx context.Context, userID int64) ([]report.StatusCount, error) {
	query := r.db.Rebind(`
		SELECT status, COUNT(*) AS count
		FROM reports
		WHERE user_id = ?
		GROUP BY status
		ORDER BY status`)

	counts := []report.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("count reports by status: %w", err)
	}
	return counts, nil
}

func (r *StatsRepository) TaskStatusCounts(ctx context.Context, userID int64) (map[string]int, error) {
	query := r.db.Rebind(`SELECT tasks FROM reports WHERE user_id = ?`)

	var rows []string
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("load report tasks: %w", err)
	}

	counts := make(map[string]int)
	for _, raw := range rows {
		if raw == "" {
			continue
		}
		var tasks []report.Task
		if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
			return nil, fmt.Errorf("decode report tasks: %w", err)
		}
		for _, t := range tasks {
			counts[t.Status]++
		}
	}
	return counts, nil
}
