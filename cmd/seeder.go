package cmd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/report-hub/internal/announcement"
	"github.com/frahmantamala/report-hub/internal/core/clock"
	announcementDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/announcement"
	notificationDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/notification"
	reportDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/report"
	userDatamodel "github.com/frahmantamala/report-hub/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if err := seed(gdb, clock.New(), cfg.Security.BCryptCost, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

type seedUser struct {
	Email      string
	Name       string
	Password   string
	Role       coreuser.Role
	Department string
	Position   string
}

var seedUsers = []seedUser{
	{"admin@example.com", "Admin User", "admin123", coreuser.RoleAdmin, "Management", "System Administrator"},
	{"john@example.com", "John Doe", "password123", coreuser.RoleEmployee, "Engineering", "Software Developer"},
	{"jane@example.com", "Jane Smith", "password123", coreuser.RoleEmployee, "Marketing", "Marketing Specialist"},
}

func seed(db *gorm.DB, clk clock.Clock, bcryptCost int, clear bool) error {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if clear {
			for _, model := range []interface{}{
				&announcementDatamodel.Read{},
				&notificationDatamodel.Notification{},
				&reportDatamodel.Report{},
				&announcementDatamodel.Announcement{},
				&userDatamodel.User{},
			} {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
					return fmt.Errorf("clear %T: %w", model, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		ids := make(map[string]int64, len(seedUsers))
		for _, su := range seedUsers {
			id, err := ensureUser(tx, su, bcryptCost)
			if err != nil {
				return err
			}
			ids[su.Email] = id
		}

		now := clk.Now()
		adminID := ids["admin@example.com"]
		announcements := []*announcementDatamodel.Announcement{
			{
				Title:          "Welcome to Report Hub",
				Content:        "Submit your daily and weekly reports here. Reach out to your admin with any questions.",
				Type:           announcement.TypeGeneral,
				Priority:       announcement.PriorityMedium,
				AuthorID:       adminID,
				IsPublished:    true,
				PublishedAt:    &now,
				TargetAudience: announcementDatamodel.AudienceList{announcement.AudienceAll},
			},
			{
				Title:          "Urgent: System Maintenance",
				Content:        "The system will be down for maintenance this weekend.",
				Type:           announcement.TypeUrgent,
				Priority:       announcement.PriorityHigh,
				AuthorID:       adminID,
				IsPublished:    true,
				PublishedAt:    &now,
				ExpiresAt:      ptrTime(now.AddDate(0, 0, 7)),
				TargetAudience: announcementDatamodel.AudienceList{announcement.AudienceAll},
			},
		}
		for _, a := range announcements {
			var count int64
			if err := tx.Model(&announcementDatamodel.Announcement{}).Where("title = ?", a.Title).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(a).Error; err != nil {
				return fmt.Errorf("seed announcement %q: %w", a.Title, err)
			}
			fmt.Println("Seeded announcement:", a.Title)
		}

		today := clock.StartOfDay(now)
		samples := []struct {
			email  string
			status string
			dto    report.CreateReportDTO
		}{
			{"john@example.com", report.StatusSubmitted, report.CreateReportDTO{
				Type: report.TypeDaily,
				Tasks: []report.TaskDTO{
					{Description: "Implemented report filters", Duration: ptrFloat(4), Status: report.TaskStatusCompleted, Priority: report.PriorityHigh},
					{Description: "Code review", Duration: ptrFloat(2), Status: report.TaskStatusCompleted},
				},
				Notes: "Productive day",
			}},
			{"jane@example.com", report.StatusDraft, report.CreateReportDTO{
				Type: report.TypeDaily,
				Tasks: []report.TaskDTO{
					{Description: "Campaign planning", Duration: ptrFloat(3), Status: report.TaskStatusInProgress},
				},
			}},
		}
		for _, s := range samples {
			s.dto.Status = s.status
			var count int64
			err := tx.Model(&reportDatamodel.Report{}).
				Where("user_id = ? AND type = ? AND report_date = ?", ids[s.email], s.dto.Type, today).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			r := report.NewReport(ids[s.email], s.dto, today, now)
			if err := tx.Create(report.ToDataModel(r)).Error; err != nil {
				return fmt.Errorf("seed report for %s: %w", s.email, err)
			}
			fmt.Printf("Seeded %s report for %s\n", s.status, s.email)
		}

		fmt.Println("Seed data created successfully")
		fmt.Println("  admin@example.com / admin123")
		fmt.Println("  john@example.com / password123")
		fmt.Println("  jane@example.com / password123")
		return nil
	})
}

func ensureUser(tx *gorm.DB, su seedUser, bcryptCost int) (int64, error) {
	var existing userDatamodel.User
	err := tx.Where("email = ?", su.Email).First(&existing).Error
	if err == nil {
		fmt.Println("user already exists:", su.Email)
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcryptCost)
	if err != nil {
		return 0, err
	}
	model := &userDatamodel.User{
		Email:        su.Email,
		Name:         su.Name,
		PasswordHash: string(hash),
		Role:         string(su.Role),
		Department:   su.Department,
		Position:     su.Position,
		IsActive:     true,
	}
	if err := tx.Create(model).Error; err != nil {
		return 0, fmt.Errorf("seed user %s: %w", su.Email, err)
	}
	fmt.Println("Seeded user:", su.Email)
	return model.ID, nil
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(f float64) *float64 { return &f }
