package report_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	notificationDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/notification"
	reportDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/report"
	"github.com/frahmantamala/report-hub/internal/core/events"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/notification"
	notificationPostgres "github.com/frahmantamala/report-hub/internal/notification/postgres"
	"github.com/frahmantamala/report-hub/internal/report"
	reportPostgres "github.com/frahmantamala/report-hub/internal/report/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) PublishSync(_ context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func openStore() (*gorm.DB, *sqlx.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	Expect(db.AutoMigrate(&reportDatamodel.Report{}, &notificationDatamodel.Notification{})).To(Succeed())
	return db, sqlx.NewDb(sqlDB, "sqlite3")
}

func hours(h float64) *float64 { return &h }

var _ = Describe("Report Service", func() {
	var (
		ctx       context.Context
		db        *gorm.DB
		sdb       *sqlx.DB
		clk       *clock.Fixed
		publisher *recordingPublisher
		service   *report.Service

		john  = coreuser.Caller{ID: 1, Role: coreuser.RoleEmployee}
		jane  = coreuser.Caller{ID: 2, Role: coreuser.RoleEmployee}
		admin = coreuser.Caller{ID: 3, Role: coreuser.RoleAdmin}
	)

	daily := func(date string, status string) report.CreateReportDTO {
		return report.CreateReportDTO{
			Type:   report.TypeDaily,
			Date:   date,
			Status: status,
			Tasks: []report.TaskDTO{
				{Description: "build feature", Duration: hours(3), Status: report.TaskStatusCompleted},
				{Description: "review PRs", Duration: hours(1)},
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		db, sdb = openStore()
		clk = clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
		publisher = &recordingPublisher{}
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = report.NewService(
			reportPostgres.NewReportRepository(db),
			reportPostgres.NewStatsRepository(sdb),
			publisher, clk, slogger)
	})

	AfterEach(func() {
		Expect(sdb.Close()).To(Succeed())
	})

	Describe("CreateReport", func() {
		It("persists a draft owned by the caller", func() {
			r, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(BeNumerically(">", 0))
			Expect(r.UserID).To(Equal(john.ID))
			Expect(r.Status).To(Equal(report.StatusDraft))
			Expect(r.Year).To(Equal(2025))
			Expect(r.WeekNumber).To(BeNil())

			stored, err := service.GetReport(ctx, john, r.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Date).To(BeTemporally("==", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
			Expect(stored.Tasks).To(HaveLen(2))
			Expect(stored.Tasks[1].Status).To(Equal(report.TaskStatusPending))
		})

		It("computes the week number for weekly reports", func() {
			dto := daily("2025-03-12", report.StatusSubmitted)
			dto.Type = report.TypeWeekly
			r, err := service.CreateReport(ctx, john, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(*r.WeekNumber).To(Equal(11))
			Expect(r.SubmittedAt).NotTo(BeNil())
		})

		It("rejects a second report of the same type on the same day", func() {
			_, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateReport(ctx, john, daily("2025-03-10T17:45:00Z", ""))
			Expect(errors.Is(err, report.ErrDuplicateReport)).To(BeTrue())
		})

		It("allows the same day for another type or another user", func() {
			_, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			weekly := daily("2025-03-10", "")
			weekly.Type = report.TypeWeekly
			_, err = service.CreateReport(ctx, john, weekly)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateReport(ctx, jane, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())
		})

		It("enforces uniqueness in the store as well", func() {
			repo := reportPostgres.NewReportRepository(db)
			first := report.NewReport(john.ID, daily("2025-03-10", ""), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), clk.Now())
			Expect(repo.Create(ctx, first)).To(Succeed())

			second := report.NewReport(john.ID, daily("2025-03-10", ""), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), clk.Now())
			err := repo.Create(ctx, second)
			Expect(errors.Is(err, report.ErrDuplicateReport)).To(BeTrue())
		})

		It("refuses initial statuses other than draft or submitted", func() {
			_, err := service.CreateReport(ctx, john, daily("2025-03-10", report.StatusApproved))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})
	})

	Describe("ListReports", func() {
		BeforeEach(func() {
			_, err := service.CreateReport(ctx, john, daily("2025-03-07", report.StatusSubmitted))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateReport(ctx, jane, daily("2025-03-10", report.StatusSubmitted))
			Expect(err).NotTo(HaveOccurred())
		})

		It("shows an employee only their own reports, newest first", func() {
			result, err := service.ListReports(ctx, john, report.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))
			Expect(result.Reports[0].Date.Day()).To(Equal(10))
			for _, r := range result.Reports {
				Expect(r.UserID).To(Equal(john.ID))
			}
		})

		It("ignores a userId filter from an employee", func() {
			result, err := service.ListReports(ctx, john, report.ListFilter{UserID: &jane.ID})
			Expect(err).NotTo(HaveOccurred())
			for _, r := range result.Reports {
				Expect(r.UserID).To(Equal(john.ID))
			}
		})

		It("hides drafts from admins unless asked", func() {
			result, err := service.ListReports(ctx, admin, report.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))

			drafts, err := service.ListReports(ctx, admin, report.ListFilter{Status: report.StatusDraft})
			Expect(err).NotTo(HaveOccurred())
			Expect(drafts.Total).To(Equal(int64(1)))
		})

		It("filters by date range", func() {
			start := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
			result, err := service.ListReports(ctx, admin, report.ListFilter{StartDate: &start})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(1)))
			Expect(result.Reports[0].UserID).To(Equal(jane.ID))
		})
	})

	Describe("GetReport", func() {
		It("denies other employees and answers not found for missing ids", func() {
			r, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetReport(ctx, jane, r.ID)
			Expect(errors.Is(err, report.ErrAccessDenied)).To(BeTrue())

			_, err = service.GetReport(ctx, admin, r.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetReport(ctx, john, 9999)
			Expect(errors.Is(err, report.ErrReportNotFound)).To(BeTrue())
		})
	})

	Describe("UpdateReport", func() {
		var draft *report.Report

		BeforeEach(func() {
			var err error
			draft, err = service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets the owner replace tasks and notes while draft", func() {
			notes := "wrapped up"
			tasks := []report.TaskDTO{{Description: "only task", Duration: hours(8), Priority: report.PriorityHigh}}
			r, err := service.UpdateReport(ctx, john, draft.ID, report.UpdateReportDTO{Tasks: &tasks, Notes: &notes})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Tasks).To(HaveLen(1))

			stored, err := service.GetReport(ctx, john, draft.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Notes).To(Equal("wrapped up"))
			Expect(stored.Tasks[0].Priority).To(Equal(report.PriorityHigh))
		})

		It("submits through a status change", func() {
			status := report.StatusSubmitted
			r, err := service.UpdateReport(ctx, john, draft.ID, report.UpdateReportDTO{Status: &status})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(report.StatusSubmitted))
			Expect(r.SubmittedAt).NotTo(BeNil())
		})

		It("refuses to approve through update", func() {
			status := report.StatusApproved
			_, err := service.UpdateReport(ctx, admin, draft.ID, report.UpdateReportDTO{Status: &status})
			Expect(errors.Is(err, report.ErrInvalidStatus)).To(BeTrue())
		})

		It("locks the owner out once submitted but lets an admin edit", func() {
			_, err := service.SubmitReport(ctx, john, draft.ID)
			Expect(err).NotTo(HaveOccurred())

			notes := "late edit"
			_, err = service.UpdateReport(ctx, john, draft.ID, report.UpdateReportDTO{Notes: &notes})
			Expect(errors.Is(err, report.ErrReportNotDraft)).To(BeTrue())

			r, err := service.UpdateReport(ctx, admin, draft.ID, report.UpdateReportDTO{Notes: &notes})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Notes).To(Equal("late edit"))
			Expect(r.Status).To(Equal(report.StatusSubmitted))
		})

		It("does not let an admin submit on the owner's behalf", func() {
			status := report.StatusSubmitted
			_, err := service.UpdateReport(ctx, admin, draft.ID, report.UpdateReportDTO{Status: &status})
			Expect(errors.Is(err, report.ErrOnlyOwnerSubmits)).To(BeTrue())
		})
	})

	Describe("SubmitReport", func() {
		It("moves a draft to submitted exactly once", func() {
			r, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			submitted, err := service.SubmitReport(ctx, john, r.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(submitted.Status).To(Equal(report.StatusSubmitted))
			Expect(*submitted.SubmittedAt).To(BeTemporally("==", clk.Now()))

			_, err = service.SubmitReport(ctx, john, r.ID)
			Expect(errors.Is(err, report.ErrAlreadySubmitted)).To(BeTrue())
		})

		It("is owner only", func() {
			r, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SubmitReport(ctx, jane, r.ID)
			Expect(errors.Is(err, report.ErrOnlyOwnerSubmits)).To(BeTrue())
			_, err = service.SubmitReport(ctx, admin, r.ID)
			Expect(errors.Is(err, report.ErrOnlyOwnerSubmits)).To(BeTrue())
		})
	})

	Describe("ReviewReport", func() {
		var submitted *report.Report

		BeforeEach(func() {
			var err error
			submitted, err = service.CreateReport(ctx, john, daily("2025-03-10", report.StatusSubmitted))
			Expect(err).NotTo(HaveOccurred())
		})

		It("approves, stamps the reviewer and publishes one event", func() {
			clk.Advance(2 * time.Hour)
			r, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusApproved, ReviewNotes: "Great"})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(report.StatusApproved))
			Expect(*r.ReviewedBy).To(Equal(admin.ID))
			Expect(*r.ReviewedAt).To(BeTemporally("==", clk.Now()))

			Expect(publisher.events).To(HaveLen(1))
			event := publisher.events[0].(*events.ReportReviewedEvent)
			Expect(event.OwnerID).To(Equal(john.ID))
			Expect(event.Status).To(Equal(report.StatusApproved))
			Expect(event.ReviewNotes).To(Equal("Great"))

			stored, err := service.GetReport(ctx, john, submitted.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(report.StatusApproved))
			Expect(stored.ReviewNotes).To(Equal("Great"))
		})

		It("cannot review twice", func() {
			_, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusRejected})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusApproved})
			Expect(errors.Is(err, report.ErrReportNotSubmitted)).To(BeTrue())
			Expect(publisher.events).To(HaveLen(1))
		})

		It("cannot review a draft", func() {
			draft, err := service.CreateReport(ctx, jane, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ReviewReport(ctx, admin, draft.ID, report.ReviewReportDTO{Status: report.StatusApproved})
			Expect(errors.Is(err, report.ErrReportNotSubmitted)).To(BeTrue())
			Expect(publisher.events).To(BeEmpty())
		})

		It("is admin only", func() {
			_, err := service.ReviewReport(ctx, jane, submitted.ID, report.ReviewReportDTO{Status: report.StatusApproved})
			Expect(errors.Is(err, internal.ErrAdminRequired)).To(BeTrue())
		})

		It("rejects a review status outside approved and rejected", func() {
			_, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusDraft})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("surfaces a failed notification and leaves the report reviewable", func() {
			publisher.err = errors.New("bus down")
			_, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusApproved})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))

			stored, err := service.GetReport(ctx, admin, submitted.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(report.StatusSubmitted))
			Expect(stored.ReviewedBy).To(BeNil())

			publisher.err = nil
			r, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusApproved})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Status).To(Equal(report.StatusApproved))
			Expect(publisher.events).To(HaveLen(1))
		})

		Context("with the notification subscriber on a real bus", func() {
			var bus *events.EventBus

			countNotifications := func() int64 {
				var n int64
				Expect(db.Model(&notificationDatamodel.Notification{}).Count(&n).Error).To(Succeed())
				return n
			}

			BeforeEach(func() {
				slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
				bus = events.NewEventBus(slogger)
				notification.NewService(notificationPostgres.NewNotificationRepository(db), clk, slogger).Subscribe(bus)
				service = report.NewService(
					reportPostgres.NewReportRepository(db),
					reportPostgres.NewStatsRepository(sdb),
					bus, clk, slogger)
			})

			It("commits the review and its notification together", func() {
				_, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusRejected, ReviewNotes: "redo"})
				Expect(err).NotTo(HaveOccurred())
				Expect(countNotifications()).To(Equal(int64(1)))
			})

			It("rolls back the notification and the status when a later subscriber fails", func() {
				bus.Subscribe(events.EventTypeReportReviewed, func(context.Context, events.Event) error {
					return errors.New("audit sink down")
				})

				_, err := service.ReviewReport(ctx, admin, submitted.ID, report.ReviewReportDTO{Status: report.StatusApproved})
				Expect(err).To(HaveOccurred())
				Expect(countNotifications()).To(BeZero())

				stored, err := service.GetReport(ctx, john, submitted.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.Status).To(Equal(report.StatusSubmitted))
			})
		})
	})

	Describe("DeleteReport", func() {
		It("lets the owner or an admin delete, nobody else", func() {
			r, err := service.CreateReport(ctx, john, daily("2025-03-10", ""))
			Expect(err).NotTo(HaveOccurred())

			err = service.DeleteReport(ctx, jane, r.ID)
			Expect(errors.Is(err, report.ErrAccessDenied)).To(BeTrue())

			Expect(service.DeleteReport(ctx, john, r.ID)).To(Succeed())
			_, err = service.GetReport(ctx, admin, r.ID)
			Expect(errors.Is(err, report.ErrReportNotFound)).To(BeTrue())

			other, err := service.CreateReport(ctx, jane, daily("2025-03-10", report.StatusSubmitted))
			Expect(err).NotTo(HaveOccurred())
			Expect(service.DeleteReport(ctx, admin, other.ID)).To(Succeed())
		})
	})

	Describe("GetStats", func() {
		BeforeEach(func() {
			_, err := service.CreateReport(ctx, john, daily("2025-03-01", report.StatusSubmitted))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateReport(ctx, john, daily("2025-03-09", ""))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateReport(ctx, jane, daily("2025-03-09", ""))
			Expect(err).NotTo(HaveOccurred())
		})

		It("aggregates the caller's reports and tasks", func() {
			stats, err := service.GetStats(ctx, john, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalReports).To(Equal(int64(2)))
			Expect(stats.StatusStats).To(ConsistOf(
				report.StatusCount{Status: report.StatusDraft, Count: 1},
				report.StatusCount{Status: report.StatusSubmitted, Count: 1},
			))
			Expect(stats.TaskStats.Total).To(Equal(4))
			Expect(stats.TaskStats.Completed).To(Equal(2))
			Expect(stats.TaskStats.Pending).To(Equal(2))
			Expect(stats.WeeklyReports).To(HaveLen(1))
		})

		It("ignores userId for employees and honors it for admins", func() {
			stats, err := service.GetStats(ctx, jane, &john.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalReports).To(Equal(int64(1)))

			stats, err = service.GetStats(ctx, admin, &john.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalReports).To(Equal(int64(2)))
		})
	})
})
