package request

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/directory"
	"github.com/frahmantamala/travel-request/internal/events"
)

// Repository defines the data access methods for travel requests. Status and
// trip-field writes carry the version read beforehand; implementations must
// apply them as a compare-and-swap and report ErrVersionConflict when the row
// moved underneath the caller.
type Repository interface {
	Create(req *TravelRequest) error
	GetByID(id int64) (*TravelRequest, error)
	UpdateGuarded(id, version int64, updates map[string]interface{}) error
	Delete(id int64) error
	List(filter ListFilter) ([]*RequestRow, error)
}

// Directory is the slice of the role directory the lifecycle engine needs.
type Directory interface {
	GetEmployee(id int64) (*directory.Employee, error)
	GetManager(id int64) (*directory.Manager, error)
}

// Publisher receives lifecycle events strictly after the database commit.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Service is the lifecycle and authorization engine: it decides which role
// may move a request between which states, and with what side effects.
type Service struct {
	repo      Repository
	directory Directory
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, dir Directory, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: dir,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateRequest inserts a new ticket for the acting employee. The assigned
// manager is the employee's current manager, fixed from here on.
func (s *Service) CreateRequest(actor *internal.Actor, dto *CreateRequestDTO) (*TravelRequest, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("create request validation failed", "error", err, "employee_id", actor.RoleID)
		return nil, err
	}

	employee, err := s.directory.GetEmployee(actor.RoleID)
	if err != nil {
		s.logger.Error("employee lookup failed for create", "error", err, "employee_id", actor.RoleID)
		return nil, internal.ErrEmployeeNotFound
	}
	if employee.ManagerID == 0 {
		s.logger.Warn("employee has no assigned manager", "employee_id", employee.ID)
		return nil, internal.ErrManagerNotAssigned
	}

	from, to := dto.Dates()
	lodging := dto.LodgingRequired
	if lodging == "" {
		lodging = LodgingNo
	}
	resub := dto.NoOfResub
	if resub == 0 {
		resub = 1
	}

	req := &TravelRequest{
		EmployeeID:        employee.ID,
		ManagerID:         employee.ManagerID,
		DateOfSub:         dto.SubmissionDate(),
		Purpose:           dto.Purpose,
		FromLoc:           dto.FromLoc,
		ToLoc:             dto.ToLoc,
		TravelMode:        dto.TravelMode,
		FromDate:          from,
		ToDate:            to,
		LodgingRequired:   lodging,
		AdditionalRequest: dto.AdditionalRequest,
		NoOfResub:         resub,
		ManagerStatus:     ManagerStatusPending,
		AdminStatus:       AdminStatusNotClosed,
		Version:           1,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	if err := s.repo.Create(req); err != nil {
		s.logger.Error("failed to create travel request", "error", err, "employee_id", employee.ID)
		return nil, internal.NewInternalError("failed to create travel request", err)
	}

	s.logger.Info("travel request created",
		"ticket_id", req.ID,
		"employee_id", employee.ID,
		"manager_id", employee.ManagerID)

	return req, nil
}

// UpdateManagerStatus is the manager decision path: only the assigned
// manager may move the ticket, and the employee is notified on success.
func (s *Service) UpdateManagerStatus(ctx context.Context, actor *internal.Actor, ticketID int64, dto *StatusUpdateDTO) (*TravelRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		s.logger.Warn("ticket not found for status update", "ticket_id", ticketID)
		return nil, internal.ErrTicketNotFound
	}

	manager, err := s.directory.GetManager(actor.RoleID)
	if err != nil {
		s.logger.Error("manager lookup failed for status update", "error", err, "manager_id", actor.RoleID)
		return nil, internal.ErrManagerNotFound
	}

	if !ticket.IsAssignedTo(manager.ID) {
		s.logger.Warn("status update denied: not the assigned manager",
			"ticket_id", ticketID,
			"acting_manager_id", manager.ID,
			"assigned_manager_id", ticket.ManagerID)
		return nil, internal.ErrNotAssignedManager
	}

	if ticket.IsClosed() {
		s.logger.Warn("status update denied: ticket already closed", "ticket_id", ticketID)
		return nil, internal.ErrTicketClosed
	}

	updates := map[string]interface{}{
		"manager_status": dto.Status,
		"manager_note":   dto.Feedback,
	}
	if err := s.repo.UpdateGuarded(ticket.ID, ticket.Version, updates); err != nil {
		s.logger.Error("failed to update manager status", "error", err, "ticket_id", ticketID)
		return nil, err
	}

	ticket.ManagerStatus = dto.Status
	ticket.ManagerNote = dto.Feedback
	ticket.Version++

	s.logger.Info("manager status updated",
		"ticket_id", ticket.ID,
		"manager_id", manager.ID,
		"manager_status", dto.Status)

	s.notifyStatusChange(ctx, ticket, dto.Status, "manager")

	return ticket, nil
}

// OverrideStatus dispatches on the authenticated actor's role. A manager
// must own the request; an admin may override any request and their
// feedback lands in admin_note instead of manager_note.
func (s *Service) OverrideStatus(ctx context.Context, actor *internal.Actor, ticketID int64, dto *StatusUpdateDTO) (*TravelRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		s.logger.Warn("ticket not found for override", "ticket_id", ticketID)
		return nil, internal.ErrTicketNotFound
	}

	if ticket.IsClosed() {
		s.logger.Warn("override denied: ticket already closed", "ticket_id", ticketID)
		return nil, internal.ErrTicketClosed
	}

	updates := map[string]interface{}{"manager_status": dto.Status}

	switch actor.Role {
	case internal.RoleManager:
		if !ticket.IsAssignedTo(actor.RoleID) {
			s.logger.Warn("override denied: not the assigned manager",
				"ticket_id", ticketID,
				"acting_manager_id", actor.RoleID)
			return nil, internal.ErrNotAssignedManager
		}
		updates["manager_note"] = dto.Feedback
	case internal.RoleAdmin:
		updates["admin_note"] = dto.Feedback
	default:
		return nil, internal.NewForbiddenError("Only managers and admins can update request status", internal.ErrCodeNotAssignedManager)
	}

	if err := s.repo.UpdateGuarded(ticket.ID, ticket.Version, updates); err != nil {
		s.logger.Error("failed to override status", "error", err, "ticket_id", ticketID)
		return nil, err
	}

	ticket.ManagerStatus = dto.Status
	if actor.Role == internal.RoleManager {
		ticket.ManagerNote = dto.Feedback
	} else {
		ticket.AdminNote = dto.Feedback
	}
	ticket.Version++

	s.logger.Info("status override applied",
		"ticket_id", ticket.ID,
		"acting_role", actor.Role,
		"actor_id", actor.RoleID,
		"manager_status", dto.Status)

	s.notifyStatusChange(ctx, ticket, dto.Status, string(actor.Role))

	return ticket, nil
}

// CloseTicket moves an approved request to Closed. Closing an already-closed
// ticket amends the admin note only and does not re-notify.
func (s *Service) CloseTicket(ctx context.Context, actor *internal.Actor, ticketID int64, dto *CloseTicketDTO) (*TravelRequest, error) {
	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		s.logger.Warn("ticket not found for close", "ticket_id", ticketID)
		return nil, internal.ErrTicketNotFound
	}

	if ticket.IsClosed() {
		if dto.AdminNote == "" {
			return nil, internal.ErrNoteRequired
		}
		if err := s.repo.UpdateGuarded(ticket.ID, ticket.Version, map[string]interface{}{
			"admin_note": dto.AdminNote,
		}); err != nil {
			s.logger.Error("failed to amend admin note", "error", err, "ticket_id", ticketID)
			return nil, err
		}
		ticket.AdminNote = dto.AdminNote
		ticket.Version++
		s.logger.Info("closed ticket note amended", "ticket_id", ticket.ID, "admin_id", actor.RoleID)
		return ticket, nil
	}

	if !ticket.IsApproved() {
		s.logger.Warn("close denied: ticket not approved",
			"ticket_id", ticketID,
			"manager_status", ticket.ManagerStatus)
		return nil, internal.ErrNotApproved.WithDetails(map[string]interface{}{
			"ticket_id":      ticket.ID,
			"manager_status": ticket.ManagerStatus,
			"admin_status":   ticket.AdminStatus,
		})
	}

	note := dto.AdminNote
	if note == "" {
		note = DefaultAdminNote
	}

	if err := s.repo.UpdateGuarded(ticket.ID, ticket.Version, map[string]interface{}{
		"admin_status": AdminStatusClosed,
		"admin_note":   note,
	}); err != nil {
		s.logger.Error("failed to close ticket", "error", err, "ticket_id", ticketID)
		return nil, err
	}

	ticket.AdminStatus = AdminStatusClosed
	ticket.AdminNote = note
	ticket.Version++

	s.logger.Info("ticket closed", "ticket_id", ticket.ID, "admin_id", actor.RoleID)

	s.notifyClosed(ctx, ticket)

	return ticket, nil
}

// UpdateRequest lets the owning employee edit trip fields while the ticket
// is still open.
func (s *Service) UpdateRequest(actor *internal.Actor, ticketID int64, dto *UpdateRequestDTO) (*TravelRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		return nil, internal.ErrTicketNotFound
	}
	if !ticket.IsOwnedBy(actor.RoleID) {
		s.logger.Warn("edit denied: not the owning employee",
			"ticket_id", ticketID,
			"acting_employee_id", actor.RoleID)
		return nil, internal.ErrNotTicketOwner
	}
	if ticket.IsClosed() {
		return nil, internal.ErrTicketClosed
	}

	updates := map[string]interface{}{}
	if dto.Purpose != nil {
		updates["purpose"] = *dto.Purpose
		ticket.Purpose = *dto.Purpose
	}
	if dto.FromLoc != nil {
		updates["from_loc"] = *dto.FromLoc
		ticket.FromLoc = *dto.FromLoc
	}
	if dto.ToLoc != nil {
		updates["to_loc"] = *dto.ToLoc
		ticket.ToLoc = *dto.ToLoc
	}
	if dto.TravelMode != nil {
		updates["travel_mode"] = *dto.TravelMode
		ticket.TravelMode = *dto.TravelMode
	}
	if dto.FromDate != nil {
		d, _ := time.Parse(dateLayout, *dto.FromDate)
		updates["from_date"] = d
		ticket.FromDate = d
	}
	if dto.ToDate != nil {
		d, _ := time.Parse(dateLayout, *dto.ToDate)
		updates["to_date"] = d
		ticket.ToDate = d
	}
	if dto.LodgingRequired != nil {
		updates["lodging_required"] = *dto.LodgingRequired
		ticket.LodgingRequired = *dto.LodgingRequired
	}
	if dto.AdditionalRequest != nil {
		updates["additional_request"] = *dto.AdditionalRequest
		ticket.AdditionalRequest = *dto.AdditionalRequest
	}
	if dto.NoOfResub != nil {
		updates["no_of_resub"] = *dto.NoOfResub
		ticket.NoOfResub = *dto.NoOfResub
	}
	if ticket.ToDate.Before(ticket.FromDate) {
		return nil, internal.NewValidationError("to_date cannot be before from_date", internal.ErrCodeInvalidDate)
	}
	if len(updates) == 0 {
		return ticket, nil
	}

	if err := s.repo.UpdateGuarded(ticket.ID, ticket.Version, updates); err != nil {
		s.logger.Error("failed to edit travel request", "error", err, "ticket_id", ticketID)
		return nil, err
	}
	ticket.Version++

	s.logger.Info("travel request edited", "ticket_id", ticket.ID, "employee_id", actor.RoleID)
	return ticket, nil
}

// DeleteRequest removes a ticket. Only the owner may delete, and a closed
// ticket is frozen for good.
func (s *Service) DeleteRequest(actor *internal.Actor, ticketID int64) error {
	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		return internal.ErrTicketNotFound
	}
	if !ticket.IsOwnedBy(actor.RoleID) {
		s.logger.Warn("delete denied: not the owning employee",
			"ticket_id", ticketID,
			"acting_employee_id", actor.RoleID)
		return internal.ErrNotTicketOwner
	}
	if ticket.IsClosed() {
		return internal.ErrTicketClosed
	}

	if err := s.repo.Delete(ticket.ID); err != nil {
		s.logger.Error("failed to delete travel request", "error", err, "ticket_id", ticketID)
		return internal.NewInternalError("failed to delete travel request", err)
	}

	s.logger.Info("travel request deleted", "ticket_id", ticketID, "employee_id", actor.RoleID)
	return nil
}

// GetRequest returns one ticket, visibility-checked per role.
func (s *Service) GetRequest(actor *internal.Actor, ticketID int64) (*TravelRequest, error) {
	ticket, err := s.repo.GetByID(ticketID)
	if err != nil {
		return nil, internal.ErrTicketNotFound
	}

	switch actor.Role {
	case internal.RoleEmployee:
		if !ticket.IsOwnedBy(actor.RoleID) {
			return nil, internal.ErrNotTicketOwner
		}
	case internal.RoleManager:
		if !ticket.IsAssignedTo(actor.RoleID) {
			return nil, internal.ErrNotAssignedManager
		}
	case internal.RoleAdmin:
		// unrestricted
	}

	return ticket, nil
}

// ListRequests is the dashboard query: filters are conjunctive, visibility
// scope comes from the actor, and the projection is role-appropriate.
func (s *Service) ListRequests(actor *internal.Actor, filter ListFilter) ([]RequestSummary, error) {
	switch actor.Role {
	case internal.RoleEmployee:
		filter.ScopeEmployeeID = actor.RoleID
	case internal.RoleManager:
		// the assigned-manager field on the request is authoritative
		filter.ScopeManagerID = actor.RoleID
	case internal.RoleAdmin:
		// unrestricted
	}

	rows, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list travel requests", "error", err, "role", actor.Role)
		return nil, internal.NewInternalError("failed to list travel requests", err)
	}

	summaries := make([]RequestSummary, 0, len(rows))
	for _, row := range rows {
		switch actor.Role {
		case internal.RoleEmployee:
			summaries = append(summaries, row.EmployeeView())
		case internal.RoleManager:
			summaries = append(summaries, row.ManagerView())
		default:
			summaries = append(summaries, row.AdminView())
		}
	}
	return summaries, nil
}

// notifyStatusChange publishes after the commit; the subscriber owns delivery.
func (s *Service) notifyStatusChange(ctx context.Context, ticket *TravelRequest, newStatus, changedBy string) {
	if s.publisher == nil {
		return
	}

	employee, err := s.directory.GetEmployee(ticket.EmployeeID)
	if err != nil {
		s.logger.Warn("skipping notification: employee lookup failed",
			"ticket_id", ticket.ID, "employee_id", ticket.EmployeeID, "error", err)
		return
	}

	s.publisher.Publish(ctx, events.NewRequestStatusChanged(events.StatusChangePayload{
		TicketID:      ticket.ID,
		EmployeeID:    employee.ID,
		EmployeeEmail: employee.Email,
		NewStatus:     newStatus,
		ChangedBy:     changedBy,
	}))
}

func (s *Service) notifyClosed(ctx context.Context, ticket *TravelRequest) {
	if s.publisher == nil {
		return
	}

	employee, err := s.directory.GetEmployee(ticket.EmployeeID)
	if err != nil {
		s.logger.Warn("skipping notification: employee lookup failed",
			"ticket_id", ticket.ID, "employee_id", ticket.EmployeeID, "error", err)
		return
	}

	s.publisher.Publish(ctx, events.NewRequestClosed(events.StatusChangePayload{
		TicketID:      ticket.ID,
		EmployeeID:    employee.ID,
		EmployeeEmail: employee.Email,
		NewStatus:     AdminStatusClosed,
		ChangedBy:     "admin",
	}))
}
