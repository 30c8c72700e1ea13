package directory_test

import (
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/directory"
)

func TestDirectoryService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Directory Service Suite")
}

// Mock repository for testing
type mockDirectoryRepository struct {
	managers    map[int64]*directory.Manager
	employees   map[int64]*directory.Employee
	admins      map[int64]*directory.Admin
	credentials map[int64]*directory.Credential
	logins      map[int64]string

	identities map[string]bool

	nextRoleID int64
	nextUserID int64
}

func newMockDirectoryRepository() *mockDirectoryRepository {
	return &mockDirectoryRepository{
		managers:    make(map[int64]*directory.Manager),
		employees:   make(map[int64]*directory.Employee),
		admins:      make(map[int64]*directory.Admin),
		credentials: make(map[int64]*directory.Credential),
		logins:      make(map[int64]string),
		identities:  make(map[string]bool),
		nextRoleID:  1,
		nextUserID:  1,
	}
}

func (m *mockDirectoryRepository) registerIdentity(cred *directory.Credential) error {
	if m.identities[cred.Username] || m.identities[cred.Email] {
		return internal.ErrDuplicateIdentity
	}
	m.identities[cred.Username] = true
	m.identities[cred.Email] = true
	cred.ID = m.nextUserID
	m.nextUserID++
	m.credentials[cred.ID] = cred
	return nil
}

func (m *mockDirectoryRepository) CreateManager(mgr *directory.Manager, cred *directory.Credential) error {
	if err := m.registerIdentity(cred); err != nil {
		return err
	}
	mgr.ID = m.nextRoleID
	m.nextRoleID++
	mgr.UserID = cred.ID
	m.managers[mgr.ID] = mgr
	return nil
}

func (m *mockDirectoryRepository) GetManager(id int64) (*directory.Manager, error) {
	mgr, exists := m.managers[id]
	if !exists {
		return nil, internal.ErrManagerNotFound
	}
	return mgr, nil
}

func (m *mockDirectoryRepository) UpdateManager(mgr *directory.Manager, newLogin string) error {
	if newLogin != "" {
		m.logins[mgr.UserID] = newLogin
	}
	m.managers[mgr.ID] = mgr
	return nil
}

func (m *mockDirectoryRepository) DeleteManager(id int64) error {
	for _, e := range m.employees {
		if e.ManagerID == id {
			return internal.ErrRecordReferenced
		}
	}
	delete(m.managers, id)
	return nil
}

func (m *mockDirectoryRepository) ListManagers() ([]directory.DirectoryEntry, error) {
	var entries []directory.DirectoryEntry
	for _, mgr := range m.managers {
		entries = append(entries, directory.DirectoryEntry{
			ID: mgr.ID, FirstName: mgr.FirstName, LastName: mgr.LastName, Email: mgr.Email,
		})
	}
	return entries, nil
}

func (m *mockDirectoryRepository) CreateEmployee(e *directory.Employee, cred *directory.Credential) error {
	if err := m.registerIdentity(cred); err != nil {
		return err
	}
	e.ID = m.nextRoleID
	m.nextRoleID++
	e.UserID = cred.ID
	m.employees[e.ID] = e
	return nil
}

func (m *mockDirectoryRepository) GetEmployee(id int64) (*directory.Employee, error) {
	e, exists := m.employees[id]
	if !exists {
		return nil, internal.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *mockDirectoryRepository) UpdateEmployee(e *directory.Employee, newLogin string) error {
	if newLogin != "" {
		m.logins[e.UserID] = newLogin
	}
	m.employees[e.ID] = e
	return nil
}

func (m *mockDirectoryRepository) DeleteEmployee(id int64) error {
	delete(m.employees, id)
	return nil
}

func (m *mockDirectoryRepository) ListEmployees() ([]directory.DirectoryEntry, error) {
	var entries []directory.DirectoryEntry
	for _, e := range m.employees {
		entries = append(entries, directory.DirectoryEntry{
			ID: e.ID, FirstName: e.FirstName, LastName: e.LastName, Email: e.Email,
		})
	}
	return entries, nil
}

func (m *mockDirectoryRepository) CreateAdmin(a *directory.Admin, cred *directory.Credential) error {
	if err := m.registerIdentity(cred); err != nil {
		return err
	}
	a.ID = m.nextRoleID
	m.nextRoleID++
	a.UserID = cred.ID
	m.admins[a.ID] = a
	return nil
}

func (m *mockDirectoryRepository) GetAdmin(id int64) (*directory.Admin, error) {
	a, exists := m.admins[id]
	if !exists {
		return nil, internal.ErrAdminNotFound
	}
	return a, nil
}

var _ = Describe("DirectoryService", func() {
	var (
		service  *directory.Service
		mockRepo *mockDirectoryRepository
	)

	BeforeEach(func() {
		mockRepo = newMockDirectoryRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = directory.NewService(mockRepo, bcrypt.MinCost, logger)
	})

	Describe("CreateManager", func() {
		It("creates the manager with a hashed credential", func() {
			manager, err := service.CreateManager(&directory.CreateManagerDTO{
				Username:  "rina.manager",
				FirstName: "Rina",
				LastName:  "Wijaya",
				Email:     "rina@mail.com",
				Password:  "secret-password",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(manager.ID).To(BeNumerically(">", 0))
			Expect(manager.ActiveStatus).To(Equal(directory.StatusActive))

			cred := mockRepo.credentials[manager.UserID]
			Expect(cred).ToNot(BeNil())
			Expect(cred.PasswordHash).ToNot(Equal("secret-password"))
			Expect(bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte("secret-password"))).To(Succeed())
		})

		It("rejects a duplicate username or email", func() {
			dto := &directory.CreateManagerDTO{
				Username:  "rina.manager",
				FirstName: "Rina",
				LastName:  "Wijaya",
				Email:     "rina@mail.com",
				Password:  "secret-password",
			}

			_, err := service.CreateManager(dto)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.CreateManager(dto)
			Expect(err).To(Equal(internal.ErrDuplicateIdentity))
		})

		It("rejects missing required fields", func() {
			_, err := service.CreateManager(&directory.CreateManagerDTO{Username: "only-a-username"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("CreateEmployee", func() {
		var managerID int64

		BeforeEach(func() {
			manager, err := service.CreateManager(&directory.CreateManagerDTO{
				Username:  "rina.manager",
				FirstName: "Rina",
				LastName:  "Wijaya",
				Email:     "rina@mail.com",
				Password:  "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())
			managerID = manager.ID
		})

		It("pins the employee to an existing manager", func() {
			employee, err := service.CreateEmployee(&directory.CreateEmployeeDTO{
				Username:  "budi.employee",
				FirstName: "Budi",
				LastName:  "Santoso",
				Email:     "budi@mail.com",
				Password:  "secret-password",
				ManagerID: managerID,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(employee.ManagerID).To(Equal(managerID))
		})

		It("rejects an unknown manager", func() {
			_, err := service.CreateEmployee(&directory.CreateEmployeeDTO{
				Username:  "budi.employee",
				FirstName: "Budi",
				LastName:  "Santoso",
				Email:     "budi@mail.com",
				Password:  "secret-password",
				ManagerID: 999,
			})

			Expect(err).To(Equal(internal.ErrManagerNotFound))
		})

		It("requires a manager_id", func() {
			_, err := service.CreateEmployee(&directory.CreateEmployeeDTO{
				Username:  "budi.employee",
				FirstName: "Budi",
				LastName:  "Santoso",
				Email:     "budi@mail.com",
				Password:  "secret-password",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("UpdateEmployee", func() {
		var employeeID, employeeUserID int64

		BeforeEach(func() {
			manager, err := service.CreateManager(&directory.CreateManagerDTO{
				Username: "rina.manager", FirstName: "Rina", LastName: "Wijaya",
				Email: "rina@mail.com", Password: "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())

			employee, err := service.CreateEmployee(&directory.CreateEmployeeDTO{
				Username: "budi.employee", FirstName: "Budi", LastName: "Santoso",
				Email: "budi@mail.com", Password: "secret-password", ManagerID: manager.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			employeeID = employee.ID
			employeeUserID = employee.UserID
		})

		It("moves the credential login when the email changes", func() {
			newEmail := "budi.new@mail.com"

			updated, err := service.UpdateEmployee(employeeID, &directory.UpdateEmployeeDTO{
				Email: &newEmail,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Email).To(Equal(newEmail))
			Expect(mockRepo.logins[employeeUserID]).To(Equal(newEmail))
		})

		It("leaves the credential alone for non-email edits", func() {
			newName := "Budiman"

			_, err := service.UpdateEmployee(employeeID, &directory.UpdateEmployeeDTO{
				FirstName: &newName,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.logins).ToNot(HaveKey(employeeUserID))
		})

		It("rejects moving the employee to an unknown manager", func() {
			badManager := int64(999)

			_, err := service.UpdateEmployee(employeeID, &directory.UpdateEmployeeDTO{
				ManagerID: &badManager,
			})

			Expect(err).To(Equal(internal.ErrManagerNotFound))
		})
	})

	Describe("CreateAdmin", func() {
		It("creates the admin with a hashed credential", func() {
			admin, err := service.CreateAdmin(&directory.CreateAdminDTO{
				Username: "ops.admin",
				Email:    "ops@mail.com",
				Password: "secret-password",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(admin.ID).To(BeNumerically(">", 0))

			cred := mockRepo.credentials[admin.UserID]
			Expect(cred).ToNot(BeNil())
			Expect(bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte("secret-password"))).To(Succeed())

			fetched, err := service.GetAdmin(admin.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(fetched.Username).To(Equal("ops.admin"))
		})

		It("rejects missing required fields", func() {
			_, err := service.CreateAdmin(&directory.CreateAdminDTO{Username: "ops.admin"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("reports an unknown admin", func() {
			_, err := service.GetAdmin(999)
			Expect(err).To(Equal(internal.ErrAdminNotFound))
		})
	})

	Describe("DeleteManager", func() {
		It("refuses while employees still report to the manager", func() {
			manager, err := service.CreateManager(&directory.CreateManagerDTO{
				Username: "rina.manager", FirstName: "Rina", LastName: "Wijaya",
				Email: "rina@mail.com", Password: "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.CreateEmployee(&directory.CreateEmployeeDTO{
				Username: "budi.employee", FirstName: "Budi", LastName: "Santoso",
				Email: "budi@mail.com", Password: "secret-password", ManagerID: manager.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.DeleteManager(manager.ID)).To(Equal(internal.ErrRecordReferenced))
		})

		It("deletes a manager with no reports", func() {
			manager, err := service.CreateManager(&directory.CreateManagerDTO{
				Username: "rina.manager", FirstName: "Rina", LastName: "Wijaya",
				Email: "rina@mail.com", Password: "secret-password",
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.DeleteManager(manager.ID)).To(Succeed())
			_, err = service.GetManager(manager.ID)
			Expect(err).To(Equal(internal.ErrManagerNotFound))
		})
	})
})
