package request

import (
	"time"
)

// TravelRequest is the central entity: one travel ticket with a dual
// approval status. employee_id and manager_id are fixed at creation; the
// manager is derived from the employee's manager at submission time.
type TravelRequest struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	EmployeeID        int64     `json:"employee_id" gorm:"column:employee_id;not null"`
	ManagerID         int64     `json:"manager_id" gorm:"column:manager_id;not null"`
	DateOfSub         time.Time `json:"date_of_sub" gorm:"column:date_of_sub;type:date"`
	Purpose           string    `json:"purpose" gorm:"not null"`
	FromLoc           string    `json:"from_loc" gorm:"column:from_loc;not null"`
	ToLoc             string    `json:"to_loc" gorm:"column:to_loc;not null"`
	TravelMode        string    `json:"travel_mode" gorm:"column:travel_mode;not null"`
	FromDate          time.Time `json:"from_date" gorm:"column:from_date;type:date"`
	ToDate            time.Time `json:"to_date" gorm:"column:to_date;type:date"`
	LodgingRequired   string    `json:"lodging_required" gorm:"column:lodging_required;default:No"`
	AdditionalRequest string    `json:"additional_request" gorm:"column:additional_request"`
	ManagerNote       string    `json:"manager_note" gorm:"column:manager_note"`
	AdminNote         string    `json:"admin_note" gorm:"column:admin_note"`
	NoOfResub         int       `json:"no_of_resub" gorm:"column:no_of_resub;default:1"`
	ManagerStatus     string    `json:"manager_status" gorm:"column:manager_status;default:Pending"`
	AdminStatus       string    `json:"admin_status" gorm:"column:admin_status;default:Not_Closed"`
	Version           int64     `json:"-" gorm:"column:version;default:1"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (TravelRequest) TableName() string {
	return "travel_requests"
}

const (
	ManagerStatusPending  = "Pending"
	ManagerStatusApproved = "Approved"
	ManagerStatusDeclined = "Declined"

	AdminStatusNotClosed = "Not_Closed"
	AdminStatusClosed    = "Closed"

	// DefaultAdminNote is stored when a ticket is closed without a note.
	DefaultAdminNote = "No additional notes."
)

const (
	TravelModeFlight = "Flight"
	TravelModeTrain  = "Train"
	TravelModeBus    = "Bus"
	TravelModeCar    = "Car"

	LodgingYes = "Yes"
	LodgingNo  = "No"
)

func ValidManagerStatus(status string) bool {
	switch status {
	case ManagerStatusPending, ManagerStatusApproved, ManagerStatusDeclined:
		return true
	}
	return false
}

func ValidTravelMode(mode string) bool {
	switch mode {
	case TravelModeFlight, TravelModeTrain, TravelModeBus, TravelModeCar:
		return true
	}
	return false
}

func ValidLodging(flag string) bool {
	return flag == LodgingYes || flag == LodgingNo
}

func (r *TravelRequest) IsClosed() bool {
	return r.AdminStatus == AdminStatusClosed
}

func (r *TravelRequest) IsApproved() bool {
	return r.ManagerStatus == ManagerStatusApproved
}

// CanBeClosed: admin_status may become Closed only while manager_status is
// Approved at the time of the transition.
func (r *TravelRequest) CanBeClosed() bool {
	return r.IsApproved() && !r.IsClosed()
}

func (r *TravelRequest) IsAssignedTo(managerID int64) bool {
	return r.ManagerID == managerID
}

func (r *TravelRequest) IsOwnedBy(employeeID int64) bool {
	return r.EmployeeID == employeeID
}
