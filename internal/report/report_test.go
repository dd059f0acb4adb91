package report_test

import (
	"time"

	"github.com/frahmantamala/report-hub/internal"
	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
	"github.com/frahmantamala/report-hub/internal/report"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Report rules", func() {
	var (
		owner    = coreuser.Caller{ID: 1, Role: coreuser.RoleEmployee}
		stranger = coreuser.Caller{ID: 2, Role: coreuser.RoleEmployee}
		admin    = coreuser.Caller{ID: 3, Role: coreuser.RoleAdmin}
	)

	withStatus := func(status string) *report.Report {
		return &report.Report{ID: 10, UserID: owner.ID, Status: status}
	}

	DescribeTable("CanView",
		func(caller coreuser.Caller, expected bool) {
			Expect(report.CanView(caller, withStatus(report.StatusSubmitted))).To(Equal(expected))
		},
		Entry("owner", owner, true),
		Entry("admin", admin, true),
		Entry("another employee", stranger, false),
	)

	DescribeTable("CanEdit",
		func(caller coreuser.Caller, status string, expected bool) {
			Expect(report.CanEdit(caller, withStatus(status))).To(Equal(expected))
		},
		Entry("owner on draft", owner, report.StatusDraft, true),
		Entry("owner on submitted", owner, report.StatusSubmitted, false),
		Entry("owner on approved", owner, report.StatusApproved, false),
		Entry("admin on submitted", admin, report.StatusSubmitted, true),
		Entry("admin on rejected", admin, report.StatusRejected, true),
		Entry("another employee on draft", stranger, report.StatusDraft, false),
	)

	DescribeTable("CanTransition",
		func(caller coreuser.Caller, from, to string, expected bool) {
			Expect(report.CanTransition(caller, withStatus(from), to)).To(Equal(expected))
		},
		Entry("owner submits draft", owner, report.StatusDraft, report.StatusSubmitted, true),
		Entry("admin cannot submit for the owner", admin, report.StatusDraft, report.StatusSubmitted, false),
		Entry("owner cannot resubmit", owner, report.StatusSubmitted, report.StatusSubmitted, false),
		Entry("admin approves submitted", admin, report.StatusSubmitted, report.StatusApproved, true),
		Entry("admin rejects submitted", admin, report.StatusSubmitted, report.StatusRejected, true),
		Entry("admin cannot approve draft", admin, report.StatusDraft, report.StatusApproved, false),
		Entry("admin cannot re-review", admin, report.StatusApproved, report.StatusRejected, false),
		Entry("owner cannot approve", owner, report.StatusSubmitted, report.StatusApproved, false),
		Entry("nothing moves back to draft", admin, report.StatusSubmitted, report.StatusDraft, false),
	)

	Describe("Period", func() {
		It("leaves daily reports without a week", func() {
			year, week := report.Period(report.TypeDaily, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
			Expect(year).To(Equal(2025))
			Expect(week).To(BeNil())
		})

		It("uses ISO weeks for weekly reports", func() {
			year, week := report.Period(report.TypeWeekly, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
			Expect(year).To(Equal(2025))
			Expect(*week).To(Equal(11))
		})

		It("keeps the calendar year across the ISO boundary", func() {
			year, week := report.Period(report.TypeWeekly, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))
			Expect(year).To(Equal(2024))
			Expect(*week).To(Equal(1))
		})
	})

	Describe("NewReport", func() {
		now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
		dur := 2.5

		It("defaults to draft and fills task defaults", func() {
			r := report.NewReport(owner.ID, report.CreateReportDTO{
				Type:  report.TypeDaily,
				Tasks: []report.TaskDTO{{Description: "write tests", Duration: &dur}},
			}, time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC), now)

			Expect(r.Status).To(Equal(report.StatusDraft))
			Expect(r.SubmittedAt).To(BeNil())
			Expect(r.Date).To(Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
			Expect(r.Tasks).To(Equal([]report.Task{{
				Description: "write tests",
				Duration:    2.5,
				Status:      report.TaskStatusPending,
				Priority:    report.PriorityMedium,
			}}))
		})

		It("stamps submittedAt when created as submitted", func() {
			r := report.NewReport(owner.ID, report.CreateReportDTO{
				Type:   report.TypeWeekly,
				Status: report.StatusSubmitted,
				Tasks:  []report.TaskDTO{{Description: "summary", Duration: &dur}},
			}, now, now)

			Expect(r.Status).To(Equal(report.StatusSubmitted))
			Expect(r.SubmittedAt).NotTo(BeNil())
			Expect(*r.SubmittedAt).To(Equal(now))
			Expect(r.WeekNumber).NotTo(BeNil())
		})
	})

	Describe("CreateReportDTO.Validate", func() {
		dur := 1.0

		It("accepts plain dates and RFC3339", func() {
			d, err := report.CreateReportDTO{Type: "daily", Date: "2025-03-10", Tasks: []report.TaskDTO{{Description: "x", Duration: &dur}}}.Validate()
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

			d, err = report.CreateReportDTO{Type: "daily", Date: "2025-03-10T23:00:00-02:00", Tasks: []report.TaskDTO{{Description: "x", Duration: &dur}}}.Validate()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Day()).To(Equal(11))
		})

		It("itemizes every problem", func() {
			neg := -1.0
			_, err := report.CreateReportDTO{
				Type:  "monthly",
				Date:  "yesterday",
				Tasks: []report.TaskDTO{{Description: "", Duration: &neg}},
			}.Validate()
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors).To(HaveLen(4))
		})

		It("requires at least one task", func() {
			_, err := report.CreateReportDTO{Type: "daily", Date: "2025-03-10"}.Validate()
			Expect(err).To(HaveOccurred())
		})

		It("rejects notes over the limit", func() {
			long := make([]byte, report.MaxNotesLength+1)
			for i := range long {
				long[i] = 'a'
			}
			_, err := report.CreateReportDTO{Type: "daily", Date: "2025-03-10", Notes: string(long), Tasks: []report.TaskDTO{{Description: "x", Duration: &dur}}}.Validate()
			Expect(err).To(HaveOccurred())
		})
	})
})
