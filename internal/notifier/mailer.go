package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/travel-request/internal/events"
)

// MailJob is one outbound notification email.
type MailJob struct {
	To      string
	Subject string
	Body    string
}

type Worker struct {
	ID         int
	WorkerPool chan chan MailJob
	JobChannel chan MailJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan MailJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing mail job", "worker_id", w.ID, "to", job.To)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	APIURL       string
	APIKey       string
	FromAddress  string
	SendTimeout  time.Duration
	MaxWorkers   int
	JobQueueSize int
}

// Mailer delivers lifecycle notifications over an HTTP mail API. Delivery is
// best effort: a failed send is logged and dropped, never surfaced to the
// request path that triggered it.
type Mailer struct {
	apiURL      string
	apiKey      string
	fromAddress string
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewMailer(config Config, logger *slog.Logger) *Mailer {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	m := &Mailer{
		apiURL:      config.APIURL,
		apiKey:      config.APIKey,
		fromAddress: config.FromAddress,
		sendTimeout: sendTimeout,
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan MailJob, jobQueueSize),
		workerPool: make(chan chan MailJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	m.startWorkerPool()

	return m
}

func (m *Mailer) startWorkerPool() {
	m.once.Do(func() {
		for i := 0; i < m.maxWorkers; i++ {
			worker := NewWorker(i, m.workerPool, m.logger)
			worker.Start(m.ctx, &m.wg, m.deliver)
		}

		m.wg.Add(1)
		go m.dispatch()

		m.logger.Info("mailer worker pool started",
			"max_workers", m.maxWorkers,
			"queue_size", cap(m.jobQueue))
	})
}

func (m *Mailer) dispatch() {
	defer m.wg.Done()

	for {
		select {
		case job := <-m.jobQueue:
			select {
			case jobChannel := <-m.workerPool:
				select {
				case jobChannel <- job:
				case <-m.ctx.Done():
					m.logger.Info("mail dispatcher shutting down")
					return
				}
			case <-m.ctx.Done():
				m.logger.Info("mail dispatcher shutting down")
				return
			}
		case <-m.ctx.Done():
			m.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

func (m *Mailer) Shutdown() {
	m.logger.Info("shutting down mailer")
	m.cancel()
	m.wg.Wait()
	m.logger.Info("mailer shutdown complete")
}

// Subscribe registers the mailer's handlers on the event bus.
func (m *Mailer) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.RequestStatusChangedEvent, m.HandleStatusChanged)
	bus.Subscribe(events.RequestClosedEvent, m.HandleClosed)
}

func (m *Mailer) HandleStatusChanged(ctx context.Context, event events.Event) error {
	changed, ok := event.(events.RequestStatusChanged)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	job := MailJob{
		To:      changed.Change.EmployeeEmail,
		Subject: fmt.Sprintf("Travel request #%d: %s", changed.Change.TicketID, changed.Change.NewStatus),
		Body: fmt.Sprintf("Your travel request #%d was marked %s by %s.",
			changed.Change.TicketID, changed.Change.NewStatus, changed.Change.ChangedBy),
	}

	m.enqueue(job, changed.Change.TicketID)
	return nil
}

func (m *Mailer) HandleClosed(ctx context.Context, event events.Event) error {
	closed, ok := event.(events.RequestClosed)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	job := MailJob{
		To:      closed.Change.EmployeeEmail,
		Subject: fmt.Sprintf("Travel request #%d closed", closed.Change.TicketID),
		Body: fmt.Sprintf("Your travel request #%d has been closed by %s.",
			closed.Change.TicketID, closed.Change.ChangedBy),
	}

	m.enqueue(job, closed.Change.TicketID)
	return nil
}

func (m *Mailer) enqueue(job MailJob, ticketID int64) {
	if job.To == "" {
		m.logger.Warn("mail job skipped: no recipient", "ticket_id", ticketID)
		return
	}

	select {
	case m.jobQueue <- job:
		m.logger.Info("mail job queued",
			"to", job.To,
			"ticket_id", ticketID,
			"queue_length", len(m.jobQueue))
	default:
		m.logger.Warn("mail queue full, dropping notification",
			"to", job.To,
			"ticket_id", ticketID,
			"queue_capacity", cap(m.jobQueue))
	}
}

func (m *Mailer) deliver(job MailJob) {
	payload := map[string]interface{}{
		"from":    m.fromAddress,
		"to":      job.To,
		"subject": job.Subject,
		"body":    job.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		m.logger.Error("failed to marshal mail payload", "error", err, "to", job.To)
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.sendTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		m.logger.Error("failed to create mail request", "error", err, "to", job.To)
		return
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	client := &http.Client{Timeout: m.sendTimeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		m.logger.Warn("mail delivery failed", "error", err, "to", job.To)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		m.logger.Warn("mail API returned error status", "status", resp.StatusCode, "to", job.To)
		return
	}

	m.logger.Info("mail delivered", "to", job.To, "subject", job.Subject)
}
