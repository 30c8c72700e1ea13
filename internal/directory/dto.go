package directory

import (
	"time"

	"github.com/frahmantamala/travel-request/internal"
)

const dateLayout = "2006-01-02"

// Credential is the users-table row paired one-to-one with each role
// record. Role and credential are written in the same transaction; neither
// has an independent lifecycle.
type Credential struct {
	ID           int64     `json:"-" gorm:"primaryKey"`
	Username     string    `json:"-" gorm:"uniqueIndex;not null"`
	Email        string    `json:"-" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	IsActive     bool      `json:"-" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"-" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"-" gorm:"column:updated_at;default:now()"`
}

func (Credential) TableName() string {
	return "users"
}

type CreateManagerDTO struct {
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	DateIn       string `json:"date_in,omitempty"`
	ActiveStatus string `json:"active_status,omitempty"`
}

func (dto *CreateManagerDTO) Validate() error {
	if dto.Username == "" || dto.FirstName == "" || dto.LastName == "" || dto.Email == "" || dto.Password == "" {
		return internal.NewValidationError("All fields are required", internal.ErrCodeValidationFailed)
	}
	if dto.ActiveStatus != "" && !ValidActiveStatus(dto.ActiveStatus) {
		return internal.NewValidationError("active_status must be Active or Inactive", internal.ErrCodeValidationFailed)
	}
	if dto.DateIn != "" {
		if _, err := time.Parse(dateLayout, dto.DateIn); err != nil {
			return internal.NewValidationError("Invalid date format, use YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

func (dto *CreateManagerDTO) JoinDate() time.Time {
	if dto.DateIn == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	d, _ := time.Parse(dateLayout, dto.DateIn)
	return d
}

type CreateEmployeeDTO struct {
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ManagerID    int64  `json:"manager_id"`
	DateIn       string `json:"date_in,omitempty"`
	ActiveStatus string `json:"active_status,omitempty"`
}

func (dto *CreateEmployeeDTO) Validate() error {
	if dto.Username == "" || dto.FirstName == "" || dto.LastName == "" || dto.Email == "" || dto.Password == "" {
		return internal.NewValidationError("All fields are required", internal.ErrCodeValidationFailed)
	}
	if dto.ManagerID == 0 {
		return internal.NewValidationError("manager_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.ActiveStatus != "" && !ValidActiveStatus(dto.ActiveStatus) {
		return internal.NewValidationError("active_status must be Active or Inactive", internal.ErrCodeValidationFailed)
	}
	if dto.DateIn != "" {
		if _, err := time.Parse(dateLayout, dto.DateIn); err != nil {
			return internal.NewValidationError("Invalid date format, use YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

func (dto *CreateEmployeeDTO) JoinDate() time.Time {
	if dto.DateIn == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	d, _ := time.Parse(dateLayout, dto.DateIn)
	return d
}

type CreateAdminDTO struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	DateIn    string `json:"date_in,omitempty"`
}

func (dto *CreateAdminDTO) Validate() error {
	if dto.Username == "" || dto.Password == "" || dto.Email == "" {
		return internal.NewValidationError("username, email and password are required", internal.ErrCodeValidationFailed)
	}
	if dto.DateIn != "" {
		if _, err := time.Parse(dateLayout, dto.DateIn); err != nil {
			return internal.NewValidationError("Invalid date format, use YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// UpdateManagerDTO is a partial edit. A changed email also rewrites the
// paired credential's login inside the same transaction.
type UpdateManagerDTO struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	ActiveStatus *string `json:"active_status,omitempty"`
}

func (dto *UpdateManagerDTO) Validate() error {
	if dto.Email != nil && *dto.Email == "" {
		return internal.NewValidationError("email cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.ActiveStatus != nil && !ValidActiveStatus(*dto.ActiveStatus) {
		return internal.NewValidationError("active_status must be Active or Inactive", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateEmployeeDTO struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	ManagerID    *int64  `json:"manager_id,omitempty"`
	ActiveStatus *string `json:"active_status,omitempty"`
}

func (dto *UpdateEmployeeDTO) Validate() error {
	if dto.Email != nil && *dto.Email == "" {
		return internal.NewValidationError("email cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.ManagerID != nil && *dto.ManagerID == 0 {
		return internal.NewValidationError("manager_id cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.ActiveStatus != nil && !ValidActiveStatus(*dto.ActiveStatus) {
		return internal.NewValidationError("active_status must be Active or Inactive", internal.ErrCodeValidationFailed)
	}
	return nil
}

// DirectoryEntry is the list projection for admin directory views.
type DirectoryEntry struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}
