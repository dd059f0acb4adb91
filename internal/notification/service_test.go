package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/report-hub/internal/core/clock"
	notificationDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/notification"
	"github.com/frahmantamala/report-hub/internal/core/events"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/notification"
	notificationPostgres "github.com/frahmantamala/report-hub/internal/notification/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Notification Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		clk     *clock.Fixed
		bus     *events.EventBus
		service *notification.Service

		owner    = coreuser.Caller{ID: 1, Role: coreuser.RoleEmployee}
		stranger = coreuser.Caller{ID: 2, Role: coreuser.RoleEmployee}
		admin    = coreuser.Caller{ID: 3, Role: coreuser.RoleAdmin}
		day      = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	)

	review := func(reportID int64, status, notes string) {
		event := events.NewReportReviewedEvent(reportID, owner.ID, admin.ID, status, day, notes, clk.Now())
		Expect(bus.PublishSync(ctx, event)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&notificationDatamodel.Notification{})).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clk = clock.NewFixed(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
		bus = events.NewEventBus(slogger)
		service = notification.NewService(notificationPostgres.NewNotificationRepository(db), clk, slogger)
		service.Subscribe(bus)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("HandleReportReviewed", func() {
		It("creates exactly one notification for the owner", func() {
			review(42, "approved", "")

			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(1)))
			Expect(result.UnreadCount).To(Equal(int64(1)))

			n := result.Notifications[0]
			Expect(n.Type).To(Equal(notification.TypeReportApproved))
			Expect(n.Title).To(Equal("Report Approved"))
			Expect(n.Message).To(Equal("Your report for 2025-03-10 has been approved."))
			Expect(*n.RelatedReportID).To(Equal(int64(42)))
			Expect(n.IsRead).To(BeFalse())

			others, err := service.ListNotifications(ctx, admin, notification.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(others.Total).To(BeZero())
		})

		It("appends reviewer feedback to rejections", func() {
			review(7, "rejected", "Add more detail")

			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Notifications[0].Type).To(Equal(notification.TypeReportRejected))
			Expect(result.Notifications[0].Message).To(Equal("Your report for 2025-03-10 has been rejected. Feedback: Add more detail"))
		})

		It("refuses foreign payloads", func() {
			err := service.HandleReportReviewed(ctx, events.BaseEvent{ID: "x", Type: events.EventTypeReportReviewed})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("MarkRead", func() {
		var id int64

		BeforeEach(func() {
			review(1, "approved", "")
			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			id = result.Notifications[0].ID
		})

		It("marks the owner's notification read and is idempotent", func() {
			n, err := service.MarkRead(ctx, owner, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.IsRead).To(BeTrue())
			Expect(n.ReadAt).NotTo(BeNil())
			firstRead := *n.ReadAt

			clk.Advance(time.Hour)
			again, err := service.MarkRead(ctx, owner, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(*again.ReadAt).To(BeTemporally("==", firstRead))

			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{UnreadOnly: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(BeZero())
		})

		It("forbids other users, admins included", func() {
			_, err := service.MarkRead(ctx, stranger, id)
			Expect(errors.Is(err, notification.ErrAccessDenied)).To(BeTrue())

			_, err = service.MarkRead(ctx, admin, id)
			Expect(errors.Is(err, notification.ErrAccessDenied)).To(BeTrue())
		})

		It("answers not found for a missing id", func() {
			_, err := service.MarkRead(ctx, owner, 999)
			Expect(errors.Is(err, notification.ErrNotificationNotFound)).To(BeTrue())
		})
	})

	Describe("MarkAllRead", func() {
		It("clears the unread count", func() {
			review(1, "approved", "")
			review(2, "rejected", "")

			updated, err := service.MarkAllRead(ctx, owner)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal(int64(2)))

			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.UnreadCount).To(BeZero())
			Expect(result.Total).To(Equal(int64(2)))
		})
	})

	Describe("DeleteNotification", func() {
		It("removes only the caller's own notification", func() {
			review(1, "approved", "")
			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			id := result.Notifications[0].ID

			err = service.DeleteNotification(ctx, stranger, id)
			Expect(errors.Is(err, notification.ErrAccessDenied)).To(BeTrue())

			Expect(service.DeleteNotification(ctx, owner, id)).To(Succeed())

			err = service.DeleteNotification(ctx, owner, id)
			Expect(errors.Is(err, notification.ErrNotificationNotFound)).To(BeTrue())
		})
	})

	Describe("ListNotifications", func() {
		It("pages newest first", func() {
			for i := int64(1); i <= 3; i++ {
				review(i, "approved", "")
				clk.Advance(time.Minute)
			}

			result, err := service.ListNotifications(ctx, owner, notification.ListFilter{Page: 1, Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(3)))
			Expect(result.Notifications).To(HaveLen(2))
			Expect(*result.Notifications[0].RelatedReportID).To(Equal(int64(3)))
		})
	})
})
