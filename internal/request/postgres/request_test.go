package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/request"
)

func TestRequestRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RequestRepository Suite")
}

// sqlite-safe schema mirrors, without the postgres column defaults
type SQLiteTravelRequest struct {
	ID                int64     `gorm:"primaryKey"`
	EmployeeID        int64     `gorm:"column:employee_id;not null"`
	ManagerID         int64     `gorm:"column:manager_id;not null"`
	DateOfSub         time.Time `gorm:"column:date_of_sub"`
	Purpose           string    `gorm:"not null"`
	FromLoc           string    `gorm:"column:from_loc"`
	ToLoc             string    `gorm:"column:to_loc"`
	TravelMode        string    `gorm:"column:travel_mode"`
	FromDate          time.Time `gorm:"column:from_date"`
	ToDate            time.Time `gorm:"column:to_date"`
	LodgingRequired   string    `gorm:"column:lodging_required"`
	AdditionalRequest string    `gorm:"column:additional_request"`
	ManagerNote       string    `gorm:"column:manager_note"`
	AdminNote         string    `gorm:"column:admin_note"`
	NoOfResub         int       `gorm:"column:no_of_resub"`
	ManagerStatus     string    `gorm:"column:manager_status"`
	AdminStatus       string    `gorm:"column:admin_status"`
	Version           int64     `gorm:"column:version"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (SQLiteTravelRequest) TableName() string {
	return "travel_requests"
}

type SQLiteEmployee struct {
	ID        int64  `gorm:"primaryKey"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
	ManagerID int64  `gorm:"column:manager_id"`
}

func (SQLiteEmployee) TableName() string {
	return "employees"
}

var _ = Describe("RequestRepository", func() {
	var (
		db   *gorm.DB
		repo request.Repository
	)

	date := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		Expect(err).NotTo(HaveOccurred())
		return d
	}

	seedTicket := func(employeeID, managerID int64, from, to string, managerStatus, adminStatus string) *request.TravelRequest {
		req := &request.TravelRequest{
			EmployeeID:    employeeID,
			ManagerID:     managerID,
			DateOfSub:     date(from),
			Purpose:       "Site visit",
			FromLoc:       "Jakarta",
			ToLoc:         "Medan",
			TravelMode:    request.TravelModeFlight,
			FromDate:      date(from),
			ToDate:        date(to),
			NoOfResub:     1,
			ManagerStatus: managerStatus,
			AdminStatus:   adminStatus,
			Version:       1,
		}
		Expect(repo.Create(req)).To(Succeed())
		return req
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteTravelRequest{}, &SQLiteEmployee{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&SQLiteEmployee{ID: 10, FirstName: "Budi", LastName: "Santoso", ManagerID: 20}).Error).To(Succeed())
		Expect(db.Create(&SQLiteEmployee{ID: 11, FirstName: "Siti", LastName: "Rahma", ManagerID: 21}).Error).To(Succeed())

		repo = NewRequestRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and GetByID", func() {
		It("persists and reads back a ticket", func() {
			req := seedTicket(10, 20, "2026-09-15", "2026-09-17", request.ManagerStatusPending, request.AdminStatusNotClosed)
			Expect(req.ID).To(BeNumerically(">", 0))

			fetched, err := repo.GetByID(req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.Purpose).To(Equal("Site visit"))
			Expect(fetched.Version).To(Equal(int64(1)))
		})

		It("reports a missing ticket", func() {
			_, err := repo.GetByID(9999)
			Expect(err).To(Equal(internal.ErrTicketNotFound))
		})
	})

	Describe("UpdateGuarded", func() {
		It("applies updates and bumps the version", func() {
			req := seedTicket(10, 20, "2026-09-15", "2026-09-17", request.ManagerStatusPending, request.AdminStatusNotClosed)

			err := repo.UpdateGuarded(req.ID, 1, map[string]interface{}{
				"manager_status": request.ManagerStatusApproved,
				"manager_note":   "ok",
			})
			Expect(err).NotTo(HaveOccurred())

			fetched, err := repo.GetByID(req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched.ManagerStatus).To(Equal(request.ManagerStatusApproved))
			Expect(fetched.ManagerNote).To(Equal("ok"))
			Expect(fetched.Version).To(Equal(int64(2)))
		})

		It("rejects a stale version", func() {
			req := seedTicket(10, 20, "2026-09-15", "2026-09-17", request.ManagerStatusPending, request.AdminStatusNotClosed)

			Expect(repo.UpdateGuarded(req.ID, 1, map[string]interface{}{
				"manager_note": "first writer",
			})).To(Succeed())

			err := repo.UpdateGuarded(req.ID, 1, map[string]interface{}{
				"manager_note": "second writer",
			})
			Expect(err).To(Equal(internal.ErrVersionConflict))
		})

		It("distinguishes a vanished row from a conflict", func() {
			err := repo.UpdateGuarded(9999, 1, map[string]interface{}{
				"manager_note": "ghost",
			})
			Expect(err).To(Equal(internal.ErrTicketNotFound))
		})
	})

	Describe("Delete", func() {
		It("removes the ticket", func() {
			req := seedTicket(10, 20, "2026-09-15", "2026-09-17", request.ManagerStatusPending, request.AdminStatusNotClosed)

			Expect(repo.Delete(req.ID)).To(Succeed())

			_, err := repo.GetByID(req.ID)
			Expect(err).To(Equal(internal.ErrTicketNotFound))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			seedTicket(10, 20, "2026-09-10", "2026-09-12", request.ManagerStatusPending, request.AdminStatusNotClosed)
			seedTicket(10, 20, "2026-10-01", "2026-10-05", request.ManagerStatusApproved, request.AdminStatusClosed)
			seedTicket(11, 21, "2026-09-20", "2026-09-22", request.ManagerStatusApproved, request.AdminStatusNotClosed)
		})

		It("joins the employee name onto each row", func() {
			rows, err := repo.List(request.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))

			names := make(map[int64]string)
			for _, row := range rows {
				names[row.EmployeeID] = row.FirstName
			}
			Expect(names[10]).To(Equal("Budi"))
			Expect(names[11]).To(Equal("Siti"))
		})

		It("scopes by employee", func() {
			rows, err := repo.List(request.ListFilter{ScopeEmployeeID: 11})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].EmployeeID).To(Equal(int64(11)))
		})

		It("scopes by assigned manager", func() {
			rows, err := repo.List(request.ListFilter{ScopeManagerID: 20})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})

		It("filters by employee name, case-insensitively", func() {
			rows, err := repo.List(request.ListFilter{EmployeeName: "sit"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].FirstName).To(Equal("Siti"))
		})

		It("filters by both statuses conjunctively", func() {
			rows, err := repo.List(request.ListFilter{
				ManagerStatus: request.ManagerStatusApproved,
				AdminStatus:   request.AdminStatusNotClosed,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].EmployeeID).To(Equal(int64(11)))
		})

		It("filters trips inside a date range", func() {
			start := date("2026-09-01")
			end := date("2026-09-30")
			rows, err := repo.List(request.ListFilter{StartDate: &start, EndDate: &end})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
		})

		It("sorts by an allow-listed field", func() {
			rows, err := repo.List(request.ListFilter{SortBy: "from_date", SortDesc: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0].FromDate.After(rows[2].FromDate)).To(BeTrue())
		})

		It("falls back to submission order for an unknown sort field", func() {
			rows, err := repo.List(request.ListFilter{SortBy: "evil; DROP TABLE"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0].DateOfSub.After(rows[2].DateOfSub)).To(BeTrue())
		})
	})
})
