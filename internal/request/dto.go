package request

import (
	"time"

	"github.com/frahmantamala/travel-request/internal"
)

const dateLayout = "2006-01-02"

// CreateRequestDTO is the payload an employee submits for a new trip.
// Dates travel as YYYY-MM-DD strings, matching the stored date columns.
type CreateRequestDTO struct {
	Purpose           string `json:"purpose"`
	FromLoc           string `json:"from_loc"`
	ToLoc             string `json:"to_loc"`
	TravelMode        string `json:"travel_mode"`
	FromDate          string `json:"from_date"`
	ToDate            string `json:"to_date"`
	LodgingRequired   string `json:"lodging_required,omitempty"`
	AdditionalRequest string `json:"additional_request,omitempty"`
	DateOfSub         string `json:"date_of_sub,omitempty"`
	NoOfResub         int    `json:"no_of_resub,omitempty"`
}

func (dto *CreateRequestDTO) Validate() error {
	if dto.Purpose == "" {
		return internal.NewValidationError("purpose is required", internal.ErrCodeValidationFailed)
	}
	if dto.FromLoc == "" {
		return internal.NewValidationError("from_loc is required", internal.ErrCodeValidationFailed)
	}
	if dto.ToLoc == "" {
		return internal.NewValidationError("to_loc is required", internal.ErrCodeValidationFailed)
	}
	if !ValidTravelMode(dto.TravelMode) {
		return internal.NewValidationError("travel_mode must be one of Flight, Train, Bus, Car", internal.ErrCodeValidationFailed)
	}
	if dto.LodgingRequired != "" && !ValidLodging(dto.LodgingRequired) {
		return internal.NewValidationError("lodging_required must be Yes or No", internal.ErrCodeValidationFailed)
	}

	from, err := time.Parse(dateLayout, dto.FromDate)
	if err != nil {
		return internal.NewValidationError("from_date must be in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
	}
	to, err := time.Parse(dateLayout, dto.ToDate)
	if err != nil {
		return internal.NewValidationError("to_date must be in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
	}
	if to.Before(from) {
		return internal.NewValidationError("to_date cannot be before from_date", internal.ErrCodeInvalidDate)
	}
	if dto.DateOfSub != "" {
		if _, err := time.Parse(dateLayout, dto.DateOfSub); err != nil {
			return internal.NewValidationError("date_of_sub must be in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// Dates returns the parsed trip dates; Validate must have passed first.
func (dto *CreateRequestDTO) Dates() (from, to time.Time) {
	from, _ = time.Parse(dateLayout, dto.FromDate)
	to, _ = time.Parse(dateLayout, dto.ToDate)
	return from, to
}

func (dto *CreateRequestDTO) SubmissionDate() time.Time {
	if dto.DateOfSub == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	d, _ := time.Parse(dateLayout, dto.DateOfSub)
	return d
}

// UpdateRequestDTO carries a partial trip-field edit by the owning employee.
type UpdateRequestDTO struct {
	Purpose           *string `json:"purpose,omitempty"`
	FromLoc           *string `json:"from_loc,omitempty"`
	ToLoc             *string `json:"to_loc,omitempty"`
	TravelMode        *string `json:"travel_mode,omitempty"`
	FromDate          *string `json:"from_date,omitempty"`
	ToDate            *string `json:"to_date,omitempty"`
	LodgingRequired   *string `json:"lodging_required,omitempty"`
	AdditionalRequest *string `json:"additional_request,omitempty"`
	NoOfResub         *int    `json:"no_of_resub,omitempty"`
}

func (dto *UpdateRequestDTO) Validate() error {
	if dto.TravelMode != nil && !ValidTravelMode(*dto.TravelMode) {
		return internal.NewValidationError("travel_mode must be one of Flight, Train, Bus, Car", internal.ErrCodeValidationFailed)
	}
	if dto.LodgingRequired != nil && !ValidLodging(*dto.LodgingRequired) {
		return internal.NewValidationError("lodging_required must be Yes or No", internal.ErrCodeValidationFailed)
	}
	if dto.FromDate != nil {
		if _, err := time.Parse(dateLayout, *dto.FromDate); err != nil {
			return internal.NewValidationError("from_date must be in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
		}
	}
	if dto.ToDate != nil {
		if _, err := time.Parse(dateLayout, *dto.ToDate); err != nil {
			return internal.NewValidationError("to_date must be in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// StatusUpdateDTO is the manager decision payload.
type StatusUpdateDTO struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback,omitempty"`
}

func (dto *StatusUpdateDTO) Validate() error {
	if !ValidManagerStatus(dto.Status) {
		return internal.ErrInvalidStatus
	}
	return nil
}

// CloseTicketDTO is the admin closing payload; the note is optional on the
// first close and mandatory when amending an already-closed ticket.
type CloseTicketDTO struct {
	AdminNote string `json:"admin_note,omitempty"`
}

// ListFilter is the query layer's conjunctive filter set. Zero values mean
// "not filtered". Visibility scoping fields are filled in by the service
// from the actor, never from the caller.
type ListFilter struct {
	EmployeeName  string
	EmployeeID    int64
	StartDate     *time.Time
	EndDate       *time.Time
	ManagerStatus string
	AdminStatus   string
	SortBy        string
	SortDesc      bool

	// scope, set server-side
	ScopeEmployeeID int64
	ScopeManagerID  int64
}

// sortFields is the allow-list; anything else silently falls back to the
// default order instead of failing the request.
var sortFields = map[string]string{
	"date_of_sub":    "travel_requests.date_of_sub",
	"from_date":      "travel_requests.from_date",
	"to_date":        "travel_requests.to_date",
	"manager_status": "travel_requests.manager_status",
	"first_name":     "employees.first_name",
	"last_name":      "employees.last_name",
}

func (f *ListFilter) OrderClause() string {
	col, ok := sortFields[f.SortBy]
	if !ok {
		return ""
	}
	if f.SortDesc {
		return col + " DESC"
	}
	return col + " ASC"
}

// RequestSummary is the dashboard projection. Employee info rides along for
// manager and admin views; admin-only fields are stripped per role by the
// view converters below.
type RequestSummary struct {
	ReqID             int64  `json:"req_id"`
	EmployeeID        int64  `json:"employee_id"`
	EmployeeFirstName string `json:"employee_first_name,omitempty"`
	EmployeeLastName  string `json:"employee_last_name,omitempty"`
	ManagerID         int64  `json:"manager_id"`
	DateOfSub         string `json:"date_of_sub"`
	Purpose           string `json:"purpose"`
	FromLoc           string `json:"from_loc"`
	ToLoc             string `json:"to_loc"`
	TravelMode        string `json:"travel_mode"`
	FromDate          string `json:"from_date"`
	ToDate            string `json:"to_date"`
	LodgingRequired   string `json:"lodging_required"`
	AdditionalRequest string `json:"additional_request"`
	ManagerNote       string `json:"manager_note"`
	AdminNote         string `json:"admin_note,omitempty"`
	ManagerStatus     string `json:"manager_status"`
	AdminStatus       string `json:"admin_status"`
	NoOfResub         int    `json:"no_of_resub,omitempty"`
}

// RequestRow is what the repository returns for dashboard queries: the
// request joined with the owning employee's name.
type RequestRow struct {
	TravelRequest
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

func (r *RequestRow) toSummary() RequestSummary {
	return RequestSummary{
		ReqID:             r.ID,
		EmployeeID:        r.EmployeeID,
		EmployeeFirstName: r.FirstName,
		EmployeeLastName:  r.LastName,
		ManagerID:         r.ManagerID,
		DateOfSub:         r.DateOfSub.Format(dateLayout),
		Purpose:           r.Purpose,
		FromLoc:           r.FromLoc,
		ToLoc:             r.ToLoc,
		TravelMode:        r.TravelMode,
		FromDate:          r.FromDate.Format(dateLayout),
		ToDate:            r.ToDate.Format(dateLayout),
		LodgingRequired:   r.LodgingRequired,
		AdditionalRequest: r.AdditionalRequest,
		ManagerNote:       r.ManagerNote,
		AdminNote:         r.AdminNote,
		ManagerStatus:     r.ManagerStatus,
		AdminStatus:       r.AdminStatus,
		NoOfResub:         r.NoOfResub,
	}
}

// ManagerView omits admin-only fields from the projection.
func (r *RequestRow) ManagerView() RequestSummary {
	s := r.toSummary()
	s.NoOfResub = 0
	return s
}

// AdminView includes every field.
func (r *RequestRow) AdminView() RequestSummary {
	return r.toSummary()
}

// EmployeeView hides the other employees' name columns; the caller already
// knows who they are.
func (r *RequestRow) EmployeeView() RequestSummary {
	s := r.toSummary()
	s.EmployeeFirstName = ""
	s.EmployeeLastName = ""
	s.NoOfResub = r.NoOfResub
	return s
}
