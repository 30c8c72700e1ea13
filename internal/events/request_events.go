package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequestStatusChangedEvent = "request.status_changed"
	RequestClosedEvent        = "request.closed"
)

// StatusChangePayload is the typed payload carried by lifecycle events.
// EmployeeEmail is resolved by the publisher so subscribers never need a
// directory lookup of their own.
type StatusChangePayload struct {
	TicketID      int64  `json:"ticket_id"`
	EmployeeID    int64  `json:"employee_id"`
	EmployeeEmail string `json:"employee_email"`
	NewStatus     string `json:"new_status"`
	ChangedBy     string `json:"changed_by"`
}

type RequestStatusChanged struct {
	BaseEvent
	Change StatusChangePayload
}

func NewRequestStatusChanged(change StatusChangePayload) RequestStatusChanged {
	return RequestStatusChanged{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      RequestStatusChangedEvent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"ticket_id":  change.TicketID,
				"new_status": change.NewStatus,
			},
		},
		Change: change,
	}
}

type RequestClosed struct {
	BaseEvent
	Change StatusChangePayload
}

func NewRequestClosed(change StatusChangePayload) RequestClosed {
	return RequestClosed{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      RequestClosedEvent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"ticket_id": change.TicketID,
			},
		},
		Change: change,
	}
}
