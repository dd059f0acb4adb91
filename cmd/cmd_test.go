package cmd

import (
	"time"

	"github.com/frahmantamala/report-hub/internal/core/clock"
	announcementDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/announcement"
	notificationDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/notification"
	reportDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/report"
	userDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Config", func() {
	It("loads the checked-in config file", func() {
		cfg, err := loadConfig("..")
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Server.Port).To(Equal(5000))
		Expect(cfg.Server.Origins()).To(ContainElement("http://localhost:3000"))
		Expect(cfg.Security.AccessTokenDuration).To(Equal(24 * time.Hour))
		Expect(cfg.Security.JWTAccessSecret).NotTo(Equal(cfg.Security.JWTRefreshSecret))
		Expect(cfg.RateLimit.Enabled).To(BeTrue())
	})

	It("registers every subcommand", func() {
		names := []string{}
		for _, c := range rootCmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements("server", "migrate", "seed", "event"))
	})
})

var _ = Describe("Seeder", func() {
	var db *gorm.DB

	count := func(model interface{}) int64 {
		var n int64
		ExpectWithOffset(1, db.Model(model).Count(&n).Error).To(Succeed())
		return n
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(
			&userDatamodel.User{},
			&reportDatamodel.Report{},
			&notificationDatamodel.Notification{},
			&announcementDatamodel.Announcement{},
			&announcementDatamodel.Read{},
		)).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("seeds once and stays idempotent", func() {
		clk := clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

		Expect(seed(db, clk, bcrypt.MinCost, false)).To(Succeed())
		Expect(seed(db, clk, bcrypt.MinCost, false)).To(Succeed())

		Expect(count(&userDatamodel.User{})).To(Equal(int64(3)))
		Expect(count(&announcementDatamodel.Announcement{})).To(Equal(int64(2)))
		Expect(count(&reportDatamodel.Report{})).To(Equal(int64(2)))

		var admin userDatamodel.User
		Expect(db.Where("email = ?", "admin@example.com").First(&admin).Error).To(Succeed())
		Expect(admin.Role).To(Equal("admin"))
		Expect(bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123"))).To(Succeed())
	})

	It("rebuilds from scratch with clear", func() {
		clk := clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
		Expect(seed(db, clk, bcrypt.MinCost, false)).To(Succeed())

		Expect(db.Model(&userDatamodel.User{}).Where("email = ?", "john@example.com").Update("name", "Renamed").Error).To(Succeed())

		Expect(seed(db, clk, bcrypt.MinCost, true)).To(Succeed())

		var john userDatamodel.User
		Expect(db.Where("email = ?", "john@example.com").First(&john).Error).To(Succeed())
		Expect(john.Name).To(Equal("John Doe"))
		Expect(count(&reportDatamodel.Report{})).To(Equal(int64(2)))
	})
})
