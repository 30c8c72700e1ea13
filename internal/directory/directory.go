package directory

import (
	"time"
)

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Employee is a role record pinned to exactly one manager. The paired users
// row (UserID) holds the credentials; the two are created and deleted as a
// single unit.
type Employee struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"-" gorm:"column:user_id;uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	FirstName    string    `json:"first_name" gorm:"column:first_name;not null"`
	LastName     string    `json:"last_name" gorm:"column:last_name;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	ManagerID    int64     `json:"manager_id" gorm:"column:manager_id;not null"`
	ActiveStatus string    `json:"active_status" gorm:"column:active_status;default:Active"`
	DateIn       time.Time `json:"date_in" gorm:"column:date_in;type:date"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Employee) TableName() string {
	return "employees"
}

type Manager struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"-" gorm:"column:user_id;uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	FirstName    string    `json:"first_name" gorm:"column:first_name;not null"`
	LastName     string    `json:"last_name" gorm:"column:last_name;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	ActiveStatus string    `json:"active_status" gorm:"column:active_status;default:Active"`
	DateIn       time.Time `json:"date_in" gorm:"column:date_in;type:date"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Manager) TableName() string {
	return "managers"
}

type Admin struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"-" gorm:"column:user_id;uniqueIndex;not null"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	FirstName string    `json:"first_name" gorm:"column:first_name"`
	LastName  string    `json:"last_name" gorm:"column:last_name"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	DateIn    time.Time `json:"date_in" gorm:"column:date_in;type:date"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Admin) TableName() string {
	return "admins"
}

func (e *Employee) IsActive() bool {
	return e.ActiveStatus == StatusActive
}

func (m *Manager) IsActive() bool {
	return m.ActiveStatus == StatusActive
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func (m *Manager) FullName() string {
	return m.FirstName + " " + m.LastName
}

func ValidActiveStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}
