package directory

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/travel-request/internal"
	"golang.org/x/crypto/bcrypt"
)

// Repository writes role records and their paired credential rows. The
// paired mutations (create, email change, delete) must be atomic: both
// succeed or both fail, never an orphaned credential.
type Repository interface {
	CreateManager(m *Manager, cred *Credential) error
	GetManager(id int64) (*Manager, error)
	UpdateManager(m *Manager, newLogin string) error
	DeleteManager(id int64) error
	ListManagers() ([]DirectoryEntry, error)

	CreateEmployee(e *Employee, cred *Credential) error
	GetEmployee(id int64) (*Employee, error)
	UpdateEmployee(e *Employee, newLogin string) error
	DeleteEmployee(id int64) error
	ListEmployees() ([]DirectoryEntry, error)

	CreateAdmin(a *Admin, cred *Credential) error
	GetAdmin(id int64) (*Admin, error)
}

// Service is the role directory: CRUD over employees, managers and admins,
// each paired one-to-one with an identity credential.
type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) credentialFor(username, email, password string) (*Credential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}
	return &Credential{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

func (s *Service) CreateManager(dto *CreateManagerDTO) (*Manager, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cred, err := s.credentialFor(dto.Username, dto.Email, dto.Password)
	if err != nil {
		return nil, err
	}

	status := dto.ActiveStatus
	if status == "" {
		status = StatusActive
	}

	manager := &Manager{
		Username:     dto.Username,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		ActiveStatus: status,
		DateIn:       dto.JoinDate(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.CreateManager(manager, cred); err != nil {
		s.logger.Error("failed to create manager", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("manager created", "manager_id", manager.ID, "username", manager.Username)
	return manager, nil
}

func (s *Service) UpdateManager(id int64, dto *UpdateManagerDTO) (*Manager, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	manager, err := s.repo.GetManager(id)
	if err != nil {
		return nil, internal.ErrManagerNotFound
	}

	var newLogin string
	if dto.FirstName != nil {
		manager.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		manager.LastName = *dto.LastName
	}
	if dto.Email != nil && *dto.Email != manager.Email {
		manager.Email = *dto.Email
		newLogin = *dto.Email
	}
	if dto.ActiveStatus != nil {
		manager.ActiveStatus = *dto.ActiveStatus
	}
	manager.UpdatedAt = time.Now()

	if err := s.repo.UpdateManager(manager, newLogin); err != nil {
		s.logger.Error("failed to update manager", "error", err, "manager_id", id)
		return nil, err
	}

	s.logger.Info("manager updated", "manager_id", id)
	return manager, nil
}

func (s *Service) DeleteManager(id int64) error {
	if _, err := s.repo.GetManager(id); err != nil {
		return internal.ErrManagerNotFound
	}

	if err := s.repo.DeleteManager(id); err != nil {
		s.logger.Error("failed to delete manager", "error", err, "manager_id", id)
		return err
	}

	s.logger.Info("manager deleted", "manager_id", id)
	return nil
}

func (s *Service) CreateEmployee(dto *CreateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	// every employee is pinned to exactly one manager
	if _, err := s.repo.GetManager(dto.ManagerID); err != nil {
		return nil, internal.ErrManagerNotFound
	}

	cred, err := s.credentialFor(dto.Username, dto.Email, dto.Password)
	if err != nil {
		return nil, err
	}

	status := dto.ActiveStatus
	if status == "" {
		status = StatusActive
	}

	employee := &Employee{
		Username:     dto.Username,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		ManagerID:    dto.ManagerID,
		ActiveStatus: status,
		DateIn:       dto.JoinDate(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.CreateEmployee(employee, cred); err != nil {
		s.logger.Error("failed to create employee", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("employee created",
		"employee_id", employee.ID,
		"username", employee.Username,
		"manager_id", employee.ManagerID)
	return employee, nil
}

func (s *Service) UpdateEmployee(id int64, dto *UpdateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	employee, err := s.repo.GetEmployee(id)
	if err != nil {
		return nil, internal.ErrEmployeeNotFound
	}

	var newLogin string
	if dto.FirstName != nil {
		employee.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		employee.LastName = *dto.LastName
	}
	if dto.Email != nil && *dto.Email != employee.Email {
		employee.Email = *dto.Email
		newLogin = *dto.Email
	}
	if dto.ManagerID != nil {
		if _, err := s.repo.GetManager(*dto.ManagerID); err != nil {
			return nil, internal.ErrManagerNotFound
		}
		employee.ManagerID = *dto.ManagerID
	}
	if dto.ActiveStatus != nil {
		employee.ActiveStatus = *dto.ActiveStatus
	}
	employee.UpdatedAt = time.Now()

	if err := s.repo.UpdateEmployee(employee, newLogin); err != nil {
		s.logger.Error("failed to update employee", "error", err, "employee_id", id)
		return nil, err
	}

	s.logger.Info("employee updated", "employee_id", id)
	return employee, nil
}

func (s *Service) DeleteEmployee(id int64) error {
	if _, err := s.repo.GetEmployee(id); err != nil {
		return internal.ErrEmployeeNotFound
	}

	if err := s.repo.DeleteEmployee(id); err != nil {
		s.logger.Error("failed to delete employee", "error", err, "employee_id", id)
		return err
	}

	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

func (s *Service) CreateAdmin(dto *CreateAdminDTO) (*Admin, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cred, err := s.credentialFor(dto.Username, dto.Email, dto.Password)
	if err != nil {
		return nil, err
	}

	joined := time.Now()
	if dto.DateIn != "" {
		joined, _ = time.Parse(dateLayout, dto.DateIn)
	}

	admin := &Admin{
		Username:  dto.Username,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		DateIn:    joined,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.repo.CreateAdmin(admin, cred); err != nil {
		s.logger.Error("failed to create admin", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("admin created", "admin_id", admin.ID, "username", admin.Username)
	return admin, nil
}

func (s *Service) GetEmployee(id int64) (*Employee, error) {
	return s.repo.GetEmployee(id)
}

func (s *Service) GetManager(id int64) (*Manager, error) {
	return s.repo.GetManager(id)
}

func (s *Service) GetAdmin(id int64) (*Admin, error) {
	return s.repo.GetAdmin(id)
}

func (s *Service) ListEmployees() ([]DirectoryEntry, error) {
	return s.repo.ListEmployees()
}

func (s *Service) ListManagers() ([]DirectoryEntry, error) {
	return s.repo.ListManagers()
}
