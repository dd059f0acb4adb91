package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/frahmantamala/report-hub/internal/core/clock"
	"github.com/frahmantamala/report-hub/internal/core/events"
	"github.com/frahmantamala/report-hub/internal/notification"
	notificationPostgres "github.com/frahmantamala/report-hub/internal/notification/postgres"
	"github.com/frahmantamala/report-hub/internal/report"
	reportPostgres "github.com/frahmantamala/report-hub/internal/report/postgres"
	"github.com/frahmantamala/report-hub/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect and replay domain events outside the HTTP server`,
}

var replayReviewCmd = &cobra.Command{
	Use:   "replay-review [report-id]",
	Short: "Re-publish the review event of a reviewed report",
	Long: `Publishes report.reviewed for an approved or rejected report so the owner
receives the review notification again, e.g. after restoring notifications from backup.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintf(os.Stderr, "invalid report id %q\n", args[0])
			os.Exit(1)
		}
		if err := replayReview(cmd.Context(), id); err != nil {
			fmt.Fprintf(os.Stderr, "replay failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func replayReview(ctx context.Context, reportID int64) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	gdb, err := initGorm(db)
	if err != nil {
		return err
	}

	r, err := reportPostgres.NewReportRepository(gdb).GetByID(ctx, reportID)
	if err != nil {
		return err
	}
	if !report.IsTerminal(r.Status) || r.ReviewedBy == nil {
		return fmt.Errorf("report %d has not been reviewed (status %s)", reportID, r.Status)
	}

	clk := clock.New()
	bus := events.NewEventBus(lg)
	notification.NewService(notificationPostgres.NewNotificationRepository(gdb), clk, lg).Subscribe(bus)

	at := clk.Now()
	if r.ReviewedAt != nil {
		at = *r.ReviewedAt
	}
	event := events.NewReportReviewedEvent(r.ID, r.UserID, *r.ReviewedBy, r.Status, r.Date, r.ReviewNotes, at)

	lg.Info("replaying review event", "event_id", event.EventID(), "report_id", r.ID, "owner_id", r.UserID)
	if err := bus.PublishSync(ctx, event); err != nil {
		return err
	}
	lg.Info("review event replayed", "report_id", r.ID)
	return nil
}

func init() {
	eventCmd.AddCommand(replayReviewCmd)

	rootCmd.AddCommand(eventCmd)
}
