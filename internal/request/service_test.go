package request_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/directory"
	"github.com/frahmantamala/travel-request/internal/events"
	"github.com/frahmantamala/travel-request/internal/request"
)

func TestRequestService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Request Service Suite")
}

// Mock repository for testing
type mockRequestRepository struct {
	tickets     map[int64]*request.TravelRequest
	rows         []*request.RequestRow
	lastFilter   request.ListFilter
	createError  error
	listError    error
	conflictOnce bool
	nextID       int64
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{
		tickets: make(map[int64]*request.TravelRequest),
		nextID:  1,
	}
}

func (m *mockRequestRepository) Create(req *request.TravelRequest) error {
	if m.createError != nil {
		return m.createError
	}
	req.ID = m.nextID
	m.nextID++
	copied := *req
	m.tickets[req.ID] = &copied
	return nil
}

func (m *mockRequestRepository) GetByID(id int64) (*request.TravelRequest, error) {
	ticket, exists := m.tickets[id]
	if !exists {
		return nil, internal.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (m *mockRequestRepository) UpdateGuarded(id, version int64, updates map[string]interface{}) error {
	if m.conflictOnce {
		m.conflictOnce = false
		return internal.ErrVersionConflict
	}
	ticket, exists := m.tickets[id]
	if !exists {
		return internal.ErrTicketNotFound
	}
	if ticket.Version != version {
		return internal.ErrVersionConflict
	}
	for k, v := range updates {
		switch k {
		case "manager_status":
			ticket.ManagerStatus = v.(string)
		case "manager_note":
			ticket.ManagerNote = v.(string)
		case "admin_status":
			ticket.AdminStatus = v.(string)
		case "admin_note":
			ticket.AdminNote = v.(string)
		case "purpose":
			ticket.Purpose = v.(string)
		case "from_loc":
			ticket.FromLoc = v.(string)
		case "to_loc":
			ticket.ToLoc = v.(string)
		}
	}
	ticket.Version++
	return nil
}

func (m *mockRequestRepository) Delete(id int64) error {
	if _, exists := m.tickets[id]; !exists {
		return internal.ErrTicketNotFound
	}
	delete(m.tickets, id)
	return nil
}

func (m *mockRequestRepository) List(filter request.ListFilter) ([]*request.RequestRow, error) {
	m.lastFilter = filter
	if m.listError != nil {
		return nil, m.listError
	}
	var out []*request.RequestRow
	for _, row := range m.rows {
		if filter.ScopeEmployeeID != 0 && row.EmployeeID != filter.ScopeEmployeeID {
			continue
		}
		if filter.ScopeManagerID != 0 && row.ManagerID != filter.ScopeManagerID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Mock directory for testing
type mockDirectory struct {
	employees map[int64]*directory.Employee
	managers  map[int64]*directory.Manager
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		employees: make(map[int64]*directory.Employee),
		managers:  make(map[int64]*directory.Manager),
	}
}

func (m *mockDirectory) GetEmployee(id int64) (*directory.Employee, error) {
	emp, exists := m.employees[id]
	if !exists {
		return nil, internal.ErrEmployeeNotFound
	}
	return emp, nil
}

func (m *mockDirectory) GetManager(id int64) (*directory.Manager, error) {
	mgr, exists := m.managers[id]
	if !exists {
		return nil, internal.ErrManagerNotFound
	}
	return mgr, nil
}

// Mock publisher records published events
type mockPublisher struct {
	published []events.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) {
	m.published = append(m.published, event)
}

var _ = Describe("RequestService", func() {
	var (
		service   *request.Service
		mockRepo  *mockRequestRepository
		mockDir   *mockDirectory
		publisher *mockPublisher
		logger    *slog.Logger

		employeeActor *internal.Actor
		managerActor  *internal.Actor
		adminActor    *internal.Actor
	)

	newTicket := func(mutate func(*request.TravelRequest)) *request.TravelRequest {
		ticket := &request.TravelRequest{
			EmployeeID:    10,
			ManagerID:     20,
			DateOfSub:     time.Now(),
			Purpose:       "Quarterly review",
			FromLoc:       "Jakarta",
			ToLoc:         "Bandung",
			TravelMode:    request.TravelModeTrain,
			FromDate:      time.Now().AddDate(0, 0, 7),
			ToDate:        time.Now().AddDate(0, 0, 9),
			ManagerStatus: request.ManagerStatusPending,
			AdminStatus:   request.AdminStatusNotClosed,
			Version:       1,
		}
		if mutate != nil {
			mutate(ticket)
		}
		Expect(mockRepo.Create(ticket)).To(Succeed())
		return ticket
	}

	BeforeEach(func() {
		mockRepo = newMockRequestRepository()
		mockDir = newMockDirectory()
		publisher = &mockPublisher{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = request.NewService(mockRepo, mockDir, publisher, logger)

		mockDir.employees[10] = &directory.Employee{
			ID: 10, ManagerID: 20, Email: "budi@mail.com", FirstName: "Budi", LastName: "Santoso",
		}
		mockDir.managers[20] = &directory.Manager{ID: 20, Email: "rina@mail.com"}
		mockDir.managers[21] = &directory.Manager{ID: 21, Email: "other@mail.com"}

		employeeActor = &internal.Actor{UserID: 1, Role: internal.RoleEmployee, RoleID: 10}
		managerActor = &internal.Actor{UserID: 2, Role: internal.RoleManager, RoleID: 20}
		adminActor = &internal.Actor{UserID: 3, Role: internal.RoleAdmin, RoleID: 30}
	})

	Describe("CreateRequest", func() {
		It("creates a pending ticket assigned to the employee's manager", func() {
			dto := &request.CreateRequestDTO{
				Purpose:    "Client visit",
				FromLoc:    "Jakarta",
				ToLoc:      "Surabaya",
				TravelMode: request.TravelModeFlight,
				FromDate:   "2026-09-15",
				ToDate:     "2026-09-17",
			}

			ticket, err := service.CreateRequest(employeeActor, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(ticket.ManagerID).To(Equal(int64(20)))
			Expect(ticket.ManagerStatus).To(Equal(request.ManagerStatusPending))
			Expect(ticket.AdminStatus).To(Equal(request.AdminStatusNotClosed))
			Expect(ticket.LodgingRequired).To(Equal(request.LodgingNo))
			Expect(ticket.NoOfResub).To(Equal(1))
			Expect(ticket.Version).To(Equal(int64(1)))
		})

		It("rejects an employee without an assigned manager", func() {
			mockDir.employees[10].ManagerID = 0

			_, err := service.CreateRequest(employeeActor, &request.CreateRequestDTO{
				Purpose:    "Client visit",
				FromLoc:    "Jakarta",
				ToLoc:      "Surabaya",
				TravelMode: request.TravelModeFlight,
				FromDate:   "2026-09-15",
				ToDate:     "2026-09-17",
			})

			Expect(err).To(Equal(internal.ErrManagerNotAssigned))
		})

		It("rejects a trip ending before it starts", func() {
			_, err := service.CreateRequest(employeeActor, &request.CreateRequestDTO{
				Purpose:    "Client visit",
				FromLoc:    "Jakarta",
				ToLoc:      "Surabaya",
				TravelMode: request.TravelModeFlight,
				FromDate:   "2026-09-17",
				ToDate:     "2026-09-15",
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
		})
	})

	Describe("UpdateManagerStatus", func() {
		It("lets the assigned manager approve and notifies the employee", func() {
			ticket := newTicket(nil)

			updated, err := service.UpdateManagerStatus(context.Background(), managerActor, ticket.ID, &request.StatusUpdateDTO{
				Status:   request.ManagerStatusApproved,
				Feedback: "Have a good trip",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.ManagerStatus).To(Equal(request.ManagerStatusApproved))
			Expect(updated.ManagerNote).To(Equal("Have a good trip"))
			Expect(updated.Version).To(Equal(int64(2)))

			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].EventType()).To(Equal(events.RequestStatusChangedEvent))
			changed := publisher.published[0].(events.RequestStatusChanged)
			Expect(changed.Change.EmployeeEmail).To(Equal("budi@mail.com"))
			Expect(changed.Change.NewStatus).To(Equal(request.ManagerStatusApproved))
		})

		It("denies a manager who is not assigned to the ticket", func() {
			ticket := newTicket(nil)
			otherManager := &internal.Actor{UserID: 4, Role: internal.RoleManager, RoleID: 21}

			_, err := service.UpdateManagerStatus(context.Background(), otherManager, ticket.ID, &request.StatusUpdateDTO{
				Status: request.ManagerStatusApproved,
			})

			Expect(err).To(Equal(internal.ErrNotAssignedManager))
			Expect(publisher.published).To(BeEmpty())
		})

		It("rejects a decision on a closed ticket", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
				t.AdminStatus = request.AdminStatusClosed
			})

			_, err := service.UpdateManagerStatus(context.Background(), managerActor, ticket.ID, &request.StatusUpdateDTO{
				Status: request.ManagerStatusDeclined,
			})

			Expect(err).To(Equal(internal.ErrTicketClosed))
		})

		It("rejects an unknown status value", func() {
			ticket := newTicket(nil)

			_, err := service.UpdateManagerStatus(context.Background(), managerActor, ticket.ID, &request.StatusUpdateDTO{
				Status: "Maybe",
			})

			Expect(err).To(Equal(internal.ErrInvalidStatus))
		})

		It("surfaces a version conflict from a concurrent writer", func() {
			ticket := newTicket(nil)
			mockRepo.conflictOnce = true

			_, err := service.UpdateManagerStatus(context.Background(), managerActor, ticket.ID, &request.StatusUpdateDTO{
				Status: request.ManagerStatusApproved,
			})

			Expect(err).To(Equal(internal.ErrVersionConflict))
			Expect(publisher.published).To(BeEmpty())
		})
	})

	Describe("OverrideStatus", func() {
		It("writes manager feedback to manager_note for a manager", func() {
			ticket := newTicket(nil)

			updated, err := service.OverrideStatus(context.Background(), managerActor, ticket.ID, &request.StatusUpdateDTO{
				Status:   request.ManagerStatusDeclined,
				Feedback: "Budget freeze",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.ManagerStatus).To(Equal(request.ManagerStatusDeclined))
			Expect(updated.ManagerNote).To(Equal("Budget freeze"))
			Expect(updated.AdminNote).To(BeEmpty())
		})

		It("writes admin feedback to admin_note and skips the ownership check", func() {
			ticket := newTicket(nil)

			updated, err := service.OverrideStatus(context.Background(), adminActor, ticket.ID, &request.StatusUpdateDTO{
				Status:   request.ManagerStatusApproved,
				Feedback: "Escalated approval",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.ManagerStatus).To(Equal(request.ManagerStatusApproved))
			Expect(updated.AdminNote).To(Equal("Escalated approval"))
			Expect(updated.ManagerNote).To(BeEmpty())
		})

		It("denies a non-assigned manager", func() {
			ticket := newTicket(nil)
			otherManager := &internal.Actor{UserID: 4, Role: internal.RoleManager, RoleID: 21}

			_, err := service.OverrideStatus(context.Background(), otherManager, ticket.ID, &request.StatusUpdateDTO{
				Status: request.ManagerStatusApproved,
			})

			Expect(err).To(Equal(internal.ErrNotAssignedManager))
		})

		It("denies an employee outright", func() {
			ticket := newTicket(nil)

			_, err := service.OverrideStatus(context.Background(), employeeActor, ticket.ID, &request.StatusUpdateDTO{
				Status: request.ManagerStatusApproved,
			})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(403))
		})
	})

	Describe("CloseTicket", func() {
		It("closes an approved ticket with the default note and notifies", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
			})

			closed, err := service.CloseTicket(context.Background(), adminActor, ticket.ID, &request.CloseTicketDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(closed.AdminStatus).To(Equal(request.AdminStatusClosed))
			Expect(closed.AdminNote).To(Equal(request.DefaultAdminNote))

			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].EventType()).To(Equal(events.RequestClosedEvent))
		})

		It("keeps a supplied note instead of the default", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
			})

			closed, err := service.CloseTicket(context.Background(), adminActor, ticket.ID, &request.CloseTicketDTO{
				AdminNote: "Receipts verified",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(closed.AdminNote).To(Equal("Receipts verified"))
		})

		It("refuses to close a ticket that is not approved", func() {
			ticket := newTicket(nil)

			_, err := service.CloseTicket(context.Background(), adminActor, ticket.ID, &request.CloseTicketDTO{})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotApproved))
		})

		It("amends only the note on an already-closed ticket and does not re-notify", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
				t.AdminStatus = request.AdminStatusClosed
				t.AdminNote = request.DefaultAdminNote
			})

			amended, err := service.CloseTicket(context.Background(), adminActor, ticket.ID, &request.CloseTicketDTO{
				AdminNote: "Follow-up note",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(amended.AdminStatus).To(Equal(request.AdminStatusClosed))
			Expect(amended.AdminNote).To(Equal("Follow-up note"))
			Expect(publisher.published).To(BeEmpty())
		})

		It("requires a note when re-closing an already-closed ticket", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
				t.AdminStatus = request.AdminStatusClosed
			})

			_, err := service.CloseTicket(context.Background(), adminActor, ticket.ID, &request.CloseTicketDTO{})

			Expect(err).To(Equal(internal.ErrNoteRequired))
		})
	})

	Describe("UpdateRequest", func() {
		It("lets the owner edit trip fields on an open ticket", func() {
			ticket := newTicket(nil)
			newPurpose := "Updated purpose"

			updated, err := service.UpdateRequest(employeeActor, ticket.ID, &request.UpdateRequestDTO{
				Purpose: &newPurpose,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Purpose).To(Equal("Updated purpose"))
			Expect(updated.Version).To(Equal(int64(2)))
		})

		It("denies an employee who does not own the ticket", func() {
			ticket := newTicket(func(t *request.TravelRequest) { t.EmployeeID = 99 })
			newPurpose := "Hijacked"

			_, err := service.UpdateRequest(employeeActor, ticket.ID, &request.UpdateRequestDTO{
				Purpose: &newPurpose,
			})

			Expect(err).To(Equal(internal.ErrNotTicketOwner))
		})

		It("freezes a closed ticket", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
				t.AdminStatus = request.AdminStatusClosed
			})
			newPurpose := "Too late"

			_, err := service.UpdateRequest(employeeActor, ticket.ID, &request.UpdateRequestDTO{
				Purpose: &newPurpose,
			})

			Expect(err).To(Equal(internal.ErrTicketClosed))
		})
	})

	Describe("DeleteRequest", func() {
		It("lets the owner delete an open ticket", func() {
			ticket := newTicket(nil)

			Expect(service.DeleteRequest(employeeActor, ticket.ID)).To(Succeed())

			_, err := mockRepo.GetByID(ticket.ID)
			Expect(err).To(Equal(internal.ErrTicketNotFound))
		})

		It("refuses to delete a closed ticket", func() {
			ticket := newTicket(func(t *request.TravelRequest) {
				t.ManagerStatus = request.ManagerStatusApproved
				t.AdminStatus = request.AdminStatusClosed
			})

			Expect(service.DeleteRequest(employeeActor, ticket.ID)).To(Equal(internal.ErrTicketClosed))
		})

		It("denies a non-owner", func() {
			ticket := newTicket(func(t *request.TravelRequest) { t.EmployeeID = 99 })

			Expect(service.DeleteRequest(employeeActor, ticket.ID)).To(Equal(internal.ErrNotTicketOwner))
		})
	})

	Describe("GetRequest", func() {
		It("shows the owner their ticket and hides everyone else's", func() {
			mine := newTicket(nil)
			theirs := newTicket(func(t *request.TravelRequest) { t.EmployeeID = 99 })

			_, err := service.GetRequest(employeeActor, mine.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetRequest(employeeActor, theirs.ID)
			Expect(err).To(Equal(internal.ErrNotTicketOwner))
		})

		It("shows a manager only assigned tickets", func() {
			assigned := newTicket(nil)
			unassigned := newTicket(func(t *request.TravelRequest) { t.ManagerID = 21 })

			_, err := service.GetRequest(managerActor, assigned.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetRequest(managerActor, unassigned.ID)
			Expect(err).To(Equal(internal.ErrNotAssignedManager))
		})

		It("shows an admin any ticket", func() {
			any := newTicket(func(t *request.TravelRequest) { t.EmployeeID = 99; t.ManagerID = 21 })

			_, err := service.GetRequest(adminActor, any.ID)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("ListRequests", func() {
		BeforeEach(func() {
			mockRepo.rows = []*request.RequestRow{
				{
					TravelRequest: request.TravelRequest{
						ID: 1, EmployeeID: 10, ManagerID: 20, NoOfResub: 3,
						ManagerStatus: request.ManagerStatusPending,
						AdminStatus:   request.AdminStatusNotClosed,
					},
					FirstName: "Budi", LastName: "Santoso",
				},
				{
					TravelRequest: request.TravelRequest{
						ID: 2, EmployeeID: 11, ManagerID: 21, NoOfResub: 1,
						ManagerStatus: request.ManagerStatusApproved,
						AdminStatus:   request.AdminStatusNotClosed,
					},
					FirstName: "Siti", LastName: "Rahma",
				},
			}
		})

		It("scopes an employee to their own tickets", func() {
			summaries, err := service.ListRequests(employeeActor, request.ListFilter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastFilter.ScopeEmployeeID).To(Equal(int64(10)))
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].ReqID).To(Equal(int64(1)))
			Expect(summaries[0].EmployeeFirstName).To(BeEmpty())
		})

		It("scopes a manager to tickets assigned to them and hides resubmission counts", func() {
			summaries, err := service.ListRequests(managerActor, request.ListFilter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastFilter.ScopeManagerID).To(Equal(int64(20)))
			Expect(summaries).To(HaveLen(1))
			Expect(summaries[0].NoOfResub).To(BeZero())
			Expect(summaries[0].EmployeeFirstName).To(Equal("Budi"))
		})

		It("gives an admin the unscoped list with every field", func() {
			summaries, err := service.ListRequests(adminActor, request.ListFilter{})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastFilter.ScopeEmployeeID).To(BeZero())
			Expect(mockRepo.lastFilter.ScopeManagerID).To(BeZero())
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].NoOfResub).To(Equal(3))
		})
	})
})
