package cmd

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/directory"
	directorypg "github.com/frahmantamala/travel-request/internal/directory/postgres"
	"github.com/frahmantamala/travel-request/internal/request"
	requestpg "github.com/frahmantamala/travel-request/internal/request/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
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

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"travel_requests", "employees", "managers", "admins", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		dirService := directory.NewService(directorypg.NewDirectoryRepository(db), cfg.Security.BCryptCost, slog.Default())

		manager, err := dirService.CreateManager(&directory.CreateManagerDTO{
			Username:  "rina.manager",
			FirstName: "Rina",
			LastName:  "Wijaya",
			Email:     "rina@mail.com",
			Password:  "password",
		})
		if err != nil {
			if err == internal.ErrDuplicateIdentity {
				fmt.Println("seed data already exists, skipping")
				return
			}
			log.Fatalf("failed to seed manager: %v", err)
		}
		fmt.Println("Seeded manager:", manager.Email)

		employee, err := dirService.CreateEmployee(&directory.CreateEmployeeDTO{
			Username:  "budi.employee",
			FirstName: "Budi",
			LastName:  "Santoso",
			Email:     "budi@mail.com",
			Password:  "password",
			ManagerID: manager.ID,
		})
		if err != nil {
			log.Fatalf("failed to seed employee: %v", err)
		}
		fmt.Println("Seeded employee:", employee.Email)

		repo := requestpg.NewRequestRepository(db)
		samples := []*request.CreateRequestDTO{
			{
				Purpose:         "Client onboarding in Surabaya",
				FromLoc:         "Jakarta",
				ToLoc:           "Surabaya",
				TravelMode:      request.TravelModeFlight,
				FromDate:        "2026-09-15",
				ToDate:          "2026-09-17",
				LodgingRequired: request.LodgingYes,
			},
			{
				Purpose:         "Regional sales review",
				FromLoc:         "Jakarta",
				ToLoc:           "Bandung",
				TravelMode:      request.TravelModeTrain,
				FromDate:        "2026-10-01",
				ToDate:          "2026-10-02",
				LodgingRequired: request.LodgingNo,
			},
		}

		for _, dto := range samples {
			if err := dto.Validate(); err != nil {
				log.Fatalf("bad seed request: %v", err)
			}
			fromDate, toDate := dto.Dates()
			ticket := &request.TravelRequest{
				EmployeeID:        employee.ID,
				ManagerID:         manager.ID,
				DateOfSub:         dto.SubmissionDate(),
				Purpose:           dto.Purpose,
				FromLoc:           dto.FromLoc,
				ToLoc:             dto.ToLoc,
				TravelMode:        dto.TravelMode,
				FromDate:          fromDate,
				ToDate:            toDate,
				LodgingRequired:   dto.LodgingRequired,
				AdditionalRequest: dto.AdditionalRequest,
				NoOfResub:         1,
				ManagerStatus:     request.ManagerStatusPending,
				AdminStatus:       request.AdminStatusNotClosed,
				Version:           1,
			}
			if err := repo.Create(ticket); err != nil {
				log.Fatalf("failed to seed travel request: %v", err)
			}
			fmt.Println("Seeded travel request:", ticket.ID)
		}
	},
}
