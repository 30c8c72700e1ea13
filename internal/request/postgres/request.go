package postgres

import (
	"time"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/request"
	"gorm.io/gorm"
)

// RequestRepository implements the request.Repository interface using GORM
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) request.Repository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(req *request.TravelRequest) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) GetByID(id int64) (*request.TravelRequest, error) {
	var req request.TravelRequest
	err := r.db.Where("id = ?", id).First(&req).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrTicketNotFound
		}
		return nil, err
	}
	return &req, nil
}

// UpdateGuarded applies updates as a compare-and-swap on the version column
// so two racing writers cannot both win a status transition.
func (r *RequestRepository) UpdateGuarded(id, version int64, updates map[string]interface{}) error {
	merged := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = version + 1
	merged["updated_at"] = time.Now()

	res := r.db.Model(&request.TravelRequest{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// distinguish a vanished row from a concurrent writer
		var count int64
		if err := r.db.Model(&request.TravelRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrTicketNotFound
		}
		return internal.ErrVersionConflict
	}
	return nil
}

func (r *RequestRepository) Delete(id int64) error {
	return r.db.Delete(&request.TravelRequest{}, id).Error
}

// List runs the dashboard query: requests joined with the owning employee,
// conjunctive filters, allow-listed sort. Unknown sort fields fall back to
// submission order rather than failing.
func (r *RequestRepository) List(filter request.ListFilter) ([]*request.RequestRow, error) {
	q := r.db.Model(&request.TravelRequest{}).
		Select("travel_requests.*, employees.first_name, employees.last_name").
		Joins("JOIN employees ON employees.id = travel_requests.employee_id")

	if filter.ScopeEmployeeID != 0 {
		q = q.Where("travel_requests.employee_id = ?", filter.ScopeEmployeeID)
	}
	if filter.ScopeManagerID != 0 {
		q = q.Where("travel_requests.manager_id = ?", filter.ScopeManagerID)
	}

	if filter.EmployeeName != "" {
		pattern := "%" + filter.EmployeeName + "%"
		q = q.Where("(LOWER(employees.first_name) LIKE LOWER(?) OR LOWER(employees.last_name) LIKE LOWER(?))", pattern, pattern)
	}
	if filter.EmployeeID != 0 {
		q = q.Where("travel_requests.employee_id = ?", filter.EmployeeID)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		q = q.Where("travel_requests.from_date >= ? AND travel_requests.to_date <= ?", *filter.StartDate, *filter.EndDate)
	}
	if filter.ManagerStatus != "" {
		q = q.Where("travel_requests.manager_status = ?", filter.ManagerStatus)
	}
	if filter.AdminStatus != "" {
		q = q.Where("travel_requests.admin_status = ?", filter.AdminStatus)
	}

	if order := filter.OrderClause(); order != "" {
		q = q.Order(order)
	} else {
		q = q.Order("travel_requests.date_of_sub DESC")
	}

	var rows []*request.RequestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
