package request

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/transport"
	"github.com/frahmantamala/travel-request/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateRequest(actor *internal.Actor, dto *CreateRequestDTO) (*TravelRequest, error)
	GetRequest(actor *internal.Actor, ticketID int64) (*TravelRequest, error)
	ListRequests(actor *internal.Actor, filter ListFilter) ([]RequestSummary, error)
	UpdateRequest(actor *internal.Actor, ticketID int64, dto *UpdateRequestDTO) (*TravelRequest, error)
	DeleteRequest(actor *internal.Actor, ticketID int64) error
	UpdateManagerStatus(ctx context.Context, actor *internal.Actor, ticketID int64, dto *StatusUpdateDTO) (*TravelRequest, error)
	OverrideStatus(ctx context.Context, actor *internal.Actor, ticketID int64, dto *StatusUpdateDTO) (*TravelRequest, error)
	CloseTicket(ctx context.Context, actor *internal.Actor, ticketID int64, dto *CloseTicketDTO) (*TravelRequest, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (*internal.Actor, bool) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("actor not found in context", "path", r.URL.Path)
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return actor, true
}

func (h *Handler) ticketID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid ticket ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid ticket ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var dto CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateRequest: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.Service.CreateRequest(actor, &dto)
	if err != nil {
		h.Logger.Error("CreateRequest: service error", "error", err, "employee_id", actor.RoleID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateRequest: travel request created",
		"ticket_id", ticket.ID,
		"employee_id", actor.RoleID)

	h.WriteSuccess(w, http.StatusCreated, "Travel request created successfully", map[string]interface{}{
		"ticket_id": ticket.ID,
	})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	ticket, err := h.Service.GetRequest(actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "", ticket)
}

// ListRequests serves the role-scoped dashboard with query-string filters.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	filter := parseListFilter(r)
	summaries, err := h.Service.ListRequests(actor, filter)
	if err != nil {
		h.Logger.Error("ListRequests: service error", "error", err, "role", actor.Role)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "", map[string]interface{}{
		"requests": summaries,
		"count":    len(summaries),
	})
}

func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto UpdateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateRequest: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.Service.UpdateRequest(actor, id, &dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Travel request updated successfully", ticket)
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteRequest(actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Travel request deleted successfully", nil)
}

// UpdateManagerStatus is the assigned-manager decision endpoint.
func (h *Handler) UpdateManagerStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto StatusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateManagerStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.Service.UpdateManagerStatus(r.Context(), actor, id, &dto)
	if err != nil {
		h.Logger.Error("UpdateManagerStatus: service error", "error", err, "ticket_id", id, "manager_id", actor.RoleID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Status updated successfully", map[string]interface{}{
		"ticket_id":      ticket.ID,
		"employee_id":    ticket.EmployeeID,
		"manager_id":     ticket.ManagerID,
		"manager_status": ticket.ManagerStatus,
		"manager_note":   ticket.ManagerNote,
	})
}

// OverrideStatus dispatches on the authenticated role, never a payload tag.
func (h *Handler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto StatusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("OverrideStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ticket, err := h.Service.OverrideStatus(r.Context(), actor, id, &dto)
	if err != nil {
		h.Logger.Error("OverrideStatus: service error", "error", err, "ticket_id", id, "role", actor.Role)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Status updated successfully", map[string]interface{}{
		"ticket_id":      ticket.ID,
		"employee_id":    ticket.EmployeeID,
		"manager_id":     ticket.ManagerID,
		"manager_status": ticket.ManagerStatus,
		"manager_note":   ticket.ManagerNote,
		"admin_note":     ticket.AdminNote,
	})
}

func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.ticketID(w, r)
	if !ok {
		return
	}

	var dto CloseTicketDTO
	if r.Body != nil {
		// tolerate an empty body: the note is optional on first close
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	ticket, err := h.Service.CloseTicket(r.Context(), actor, id, &dto)
	if err != nil {
		h.Logger.Error("CloseTicket: service error", "error", err, "ticket_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteSuccess(w, http.StatusOK, "Ticket closed successfully", map[string]interface{}{
		"ticket_id":      ticket.ID,
		"employee_id":    ticket.EmployeeID,
		"manager_id":     ticket.ManagerID,
		"manager_status": ticket.ManagerStatus,
		"admin_status":   ticket.AdminStatus,
		"admin_note":     ticket.AdminNote,
	})
}

func parseListFilter(r *http.Request) ListFilter {
	q := r.URL.Query()

	filter := ListFilter{
		EmployeeName:  q.Get("employee_name"),
		ManagerStatus: q.Get("manager_status"),
		AdminStatus:   q.Get("admin_status"),
		SortBy:        q.Get("sort_by"),
		SortDesc:      q.Get("order") == "desc",
	}

	if idStr := q.Get("employee_id"); idStr != "" {
		if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
			filter.EmployeeID = id
		}
	}

	// the range filter only applies when both bounds are present
	startStr, endStr := q.Get("start_date"), q.Get("end_date")
	if startStr != "" && endStr != "" {
		start, err1 := time.Parse(dateLayout, startStr)
		end, err2 := time.Parse(dateLayout, endStr)
		if err1 == nil && err2 == nil {
			filter.StartDate = &start
			filter.EndDate = &end
		}
	}

	return filter
}
