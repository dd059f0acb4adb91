package announcement_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/report-hub/internal"
	"github.com/frahmantamala/report-hub/internal/announcement"
	announcementPostgres "github.com/frahmantamala/report-hub/internal/announcement/postgres"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	announcementDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/announcement"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Announcement visibility", func() {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	employee := coreuser.Caller{ID: 1, Role: coreuser.RoleEmployee}
	admin := coreuser.Caller{ID: 2, Role: coreuser.RoleAdmin}

	DescribeTable("Visible",
		func(caller coreuser.Caller, a announcement.Announcement, expected bool) {
			Expect(announcement.Visible(caller, &a, now)).To(Equal(expected))
		},
		Entry("published to all", employee, announcement.Announcement{IsPublished: true, TargetAudience: []string{"all"}}, true),
		Entry("published to employees", employee, announcement.Announcement{IsPublished: true, TargetAudience: []string{"employee"}}, true),
		Entry("published to admins only", employee, announcement.Announcement{IsPublished: true, TargetAudience: []string{"admin"}}, false),
		Entry("unpublished", employee, announcement.Announcement{IsPublished: false, TargetAudience: []string{"all"}}, false),
		Entry("expired", employee, announcement.Announcement{IsPublished: true, ExpiresAt: &past, TargetAudience: []string{"all"}}, false),
		Entry("not yet expired", employee, announcement.Announcement{IsPublished: true, ExpiresAt: &future, TargetAudience: []string{"all"}}, true),
		Entry("admins see unpublished", admin, announcement.Announcement{IsPublished: false, TargetAudience: []string{"employee"}}, true),
		Entry("admins see expired", admin, announcement.Announcement{IsPublished: true, ExpiresAt: &past, TargetAudience: []string{"all"}}, true),
	)

	It("stamps publishedAt only the first time", func() {
		a := &announcement.Announcement{}
		a.Publish(true, past)
		a.Publish(false, now)
		a.Publish(true, future)
		Expect(a.IsPublished).To(BeTrue())
		Expect(*a.PublishedAt).To(Equal(past))
	})

	It("tells an absent expiresAt from an explicit null", func() {
		var absent, cleared announcement.UpdateAnnouncementDTO
		Expect(json.Unmarshal([]byte(`{"title":"t"}`), &absent)).To(Succeed())
		Expect(json.Unmarshal([]byte(`{"expiresAt":null}`), &cleared)).To(Succeed())

		Expect(absent.ExpiresAt.Set).To(BeFalse())
		Expect(cleared.ExpiresAt.Set).To(BeTrue())
		Expect(cleared.ExpiresAt.Value).To(BeNil())
	})
})

var _ = Describe("Announcement Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		clk     *clock.Fixed
		service *announcement.Service

		admin    = coreuser.Caller{ID: 1, Role: coreuser.RoleAdmin}
		employee = coreuser.Caller{ID: 2, Role: coreuser.RoleEmployee}
		other    = coreuser.Caller{ID: 3, Role: coreuser.RoleEmployee}
	)

	create := func(dto announcement.CreateAnnouncementDTO) *announcement.Announcement {
		a, err := service.CreateAnnouncement(ctx, admin, dto)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return a
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
		Expect(db.AutoMigrate(&announcementDatamodel.Announcement{}, &announcementDatamodel.Read{})).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		clk = clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
		service = announcement.NewService(announcementPostgres.NewAnnouncementRepository(db), clk, slogger)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("CreateAnnouncement", func() {
		It("applies defaults and stamps publishedAt", func() {
			a := create(announcement.CreateAnnouncementDTO{Title: "Hello", Content: "World", IsPublished: true})

			Expect(a.ID).To(BeNumerically(">", 0))
			Expect(a.Type).To(Equal(announcement.TypeGeneral))
			Expect(a.Priority).To(Equal(announcement.PriorityMedium))
			Expect(a.TargetAudience).To(Equal([]string{announcement.AudienceAll}))
			Expect(a.AuthorID).To(Equal(admin.ID))
			Expect(*a.PublishedAt).To(BeTemporally("==", clk.Now()))
		})

		It("leaves drafts unstamped", func() {
			a := create(announcement.CreateAnnouncementDTO{Title: "Draft", Content: "Soon"})
			Expect(a.IsPublished).To(BeFalse())
			Expect(a.PublishedAt).To(BeNil())
		})

		It("is admin only", func() {
			_, err := service.CreateAnnouncement(ctx, employee, announcement.CreateAnnouncementDTO{Title: "x", Content: "y"})
			Expect(errors.Is(err, internal.ErrAdminRequired)).To(BeTrue())
		})

		It("validates audience entries and title length", func() {
			long := make([]byte, announcement.MaxTitleLength+1)
			for i := range long {
				long[i] = 't'
			}
			_, err := service.CreateAnnouncement(ctx, admin, announcement.CreateAnnouncementDTO{
				Title:          string(long),
				Content:        "y",
				TargetAudience: []string{"contractors"},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details.(internal.ValidationErrors).Errors).To(HaveLen(2))
		})
	})

	Describe("ListAnnouncements", func() {
		BeforeEach(func() {
			expired := clk.Now().Add(-time.Minute)
			create(announcement.CreateAnnouncementDTO{Title: "All hands", Content: "c", IsPublished: true})
			create(announcement.CreateAnnouncementDTO{Title: "Admins", Content: "c", IsPublished: true, TargetAudience: []string{"admin"}})
			create(announcement.CreateAnnouncementDTO{Title: "Hidden", Content: "c"})
			create(announcement.CreateAnnouncementDTO{Title: "Old", Content: "c", IsPublished: true, ExpiresAt: &expired})
			create(announcement.CreateAnnouncementDTO{Title: "Staff", Content: "c", IsPublished: true, TargetAudience: []string{"employee", "admin"}})
		})

		It("shows employees only published, current, targeted entries", func() {
			result, err := service.ListAnnouncements(ctx, employee, announcement.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))

			titles := []string{}
			for _, a := range result.Announcements {
				titles = append(titles, a.Title)
			}
			Expect(titles).To(ConsistOf("All hands", "Staff"))
		})

		It("ignores the published filter for employees", func() {
			unpublished := false
			result, err := service.ListAnnouncements(ctx, employee, announcement.ListFilter{IsPublished: &unpublished})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(2)))
		})

		It("shows admins everything and honors their filter", func() {
			result, err := service.ListAnnouncements(ctx, admin, announcement.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(int64(5)))

			unpublished := false
			drafts, err := service.ListAnnouncements(ctx, admin, announcement.ListFilter{IsPublished: &unpublished})
			Expect(err).NotTo(HaveOccurred())
			Expect(drafts.Total).To(Equal(int64(1)))
		})
	})

	Describe("GetAnnouncement", func() {
		It("hides what the caller may not see behind not found", func() {
			hidden := create(announcement.CreateAnnouncementDTO{Title: "Hidden", Content: "c"})

			_, err := service.GetAnnouncement(ctx, employee, hidden.ID)
			Expect(errors.Is(err, announcement.ErrAnnouncementNotFound)).To(BeTrue())

			a, err := service.GetAnnouncement(ctx, admin, hidden.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Title).To(Equal("Hidden"))
		})
	})

	Describe("MarkRead", func() {
		It("records one receipt per user however often it is called", func() {
			a := create(announcement.CreateAnnouncementDTO{Title: "Read me", Content: "c", IsPublished: true})

			Expect(service.MarkRead(ctx, employee, a.ID)).To(Succeed())
			clk.Advance(time.Hour)
			Expect(service.MarkRead(ctx, employee, a.ID)).To(Succeed())
			Expect(service.MarkRead(ctx, other, a.ID)).To(Succeed())

			loaded, err := service.GetAnnouncement(ctx, admin, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ReadCount).To(Equal(2))
			Expect(loaded.HasRead(employee.ID)).To(BeTrue())
			Expect(loaded.ReadBy[0].UserID).To(Equal(employee.ID))
		})

		It("ignores a duplicate receipt at the store", func() {
			a := create(announcement.CreateAnnouncementDTO{Title: "Race", Content: "c", IsPublished: true})
			repo := announcementPostgres.NewAnnouncementRepository(db)

			Expect(repo.AddRead(ctx, a.ID, employee.ID, clk.Now())).To(Succeed())
			Expect(repo.AddRead(ctx, a.ID, employee.ID, clk.Now())).To(Succeed())

			loaded, err := repo.GetByID(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ReadCount).To(Equal(1))
		})

		It("cannot mark a hidden announcement", func() {
			a := create(announcement.CreateAnnouncementDTO{Title: "Admins", Content: "c", IsPublished: true, TargetAudience: []string{"admin"}})
			err := service.MarkRead(ctx, employee, a.ID)
			Expect(errors.Is(err, announcement.ErrAnnouncementNotFound)).To(BeTrue())
		})
	})

	Describe("UpdateAnnouncement", func() {
		It("publishes a draft and clears expiry on explicit null", func() {
			exp := clk.Now().Add(24 * time.Hour)
			a := create(announcement.CreateAnnouncementDTO{Title: "Draft", Content: "c", ExpiresAt: &exp})

			var dto announcement.UpdateAnnouncementDTO
			Expect(json.Unmarshal([]byte(`{"isPublished":true,"expiresAt":null,"priority":"high"}`), &dto)).To(Succeed())

			clk.Advance(time.Hour)
			updated, err := service.UpdateAnnouncement(ctx, admin, a.ID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsPublished).To(BeTrue())
			Expect(*updated.PublishedAt).To(BeTemporally("==", clk.Now()))
			Expect(updated.ExpiresAt).To(BeNil())

			stored, err := service.GetAnnouncement(ctx, employee, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Priority).To(Equal(announcement.PriorityHigh))
			Expect(stored.ExpiresAt).To(BeNil())
		})

		It("is admin only and answers not found for missing ids", func() {
			title := "x"
			_, err := service.UpdateAnnouncement(ctx, employee, 1, announcement.UpdateAnnouncementDTO{Title: &title})
			Expect(errors.Is(err, internal.ErrAdminRequired)).To(BeTrue())

			_, err = service.UpdateAnnouncement(ctx, admin, 999, announcement.UpdateAnnouncementDTO{Title: &title})
			Expect(errors.Is(err, announcement.ErrAnnouncementNotFound)).To(BeTrue())
		})
	})

	Describe("DeleteAnnouncement", func() {
		It("removes the announcement and its receipts", func() {
			a := create(announcement.CreateAnnouncementDTO{Title: "Bye", Content: "c", IsPublished: true})
			Expect(service.MarkRead(ctx, employee, a.ID)).To(Succeed())

			Expect(service.DeleteAnnouncement(ctx, admin, a.ID)).To(Succeed())

			var receipts int64
			Expect(db.Model(&announcementDatamodel.Read{}).Where("announcement_id = ?", a.ID).Count(&receipts).Error).To(Succeed())
			Expect(receipts).To(BeZero())

			err := service.DeleteAnnouncement(ctx, admin, a.ID)
			Expect(errors.Is(err, announcement.ErrAnnouncementNotFound)).To(BeTrue())
		})
	})
})
