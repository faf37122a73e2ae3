package invite

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	DefaultNotifyTimeout = 15 * time.Second
	DefaultQueueSize     = 128
	DefaultWorkers       = 2
)

// InviteDispatcher accepts notification jobs after an invitation is stored
type InviteDispatcher interface {
	Submit(email InviteEmail) bool
}

// Dispatcher runs Notifier sends on a bounded queue drained by a fixed set
// of workers. Sends are detached from the request context and failures are
// only logged and recorded as activity.
type Dispatcher struct {
	notifier  Notifier
	logger    Logger
	activity  ActivitySink
	timeout   time.Duration
	workers   int
	queueSize int

	queue  chan InviteEmail
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

var _ InviteDispatcher = (*Dispatcher)(nil)

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = normalizeLogger(logger)
	}
}

func WithDispatcherActivitySink(sink ActivitySink) DispatcherOption {
	return func(d *Dispatcher) {
		d.activity = normalizeActivitySink(sink)
	}
}

func WithNotifyTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithWorkers(workers int) DispatcherOption {
	return func(d *Dispatcher) {
		if workers > 0 {
			d.workers = workers
		}
	}
}

func WithQueueSize(size int) DispatcherOption {
	return func(d *Dispatcher) {
		if size > 0 {
			d.queueSize = size
		}
	}
}

// NewDispatcher creates a dispatcher and starts its workers
func NewDispatcher(notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifier:  notifier,
		logger:    defLogger{},
		activity:  noopActivitySink{},
		timeout:   DefaultNotifyTimeout,
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	if d.notifier == nil {
		d.notifier = NewLogNotifier(d.logger)
	}

	d.queue = make(chan InviteEmail, d.queueSize)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}

	return d
}

// Submit enqueues a notification without blocking. It reports false when the
// dispatcher is closed or the queue is full; the job is dropped in both cases.
func (d *Dispatcher) Submit(email InviteEmail) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dropped, dispatcher closed", "to", email.To)
		d.recordFailure(email, goerrors.New("dispatcher closed", goerrors.CategoryOperation))
		return false
	}

	select {
	case d.queue <- email:
		return true
	default:
		d.logger.Warn("notification dropped, queue full", "to", email.To, "queue_size", d.queueSize)
		d.recordFailure(email, goerrors.New("notification queue full", goerrors.CategoryOperation))
		return false
	}
}

// Close stops accepting jobs and waits for queued jobs to finish or for ctx
// to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "dispatcher did not drain before shutdown")
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for email := range d.queue {
		d.send(email)
	}
}

func (d *Dispatcher) send(email InviteEmail) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notifier panicked", "to", email.To, "panic", r)
			d.recordFailure(email, goerrors.New("notifier panicked", goerrors.CategoryInternal))
		}
	}()

	if err := d.notifier.SendInviteEmail(ctx, email); err != nil {
		d.logger.Error("failed to send invitation email", "to", email.To, "error", err)
		d.recordFailure(email, err)
		return
	}

	d.logger.Debug("invitation email sent", "to", email.To)
}

func (d *Dispatcher) recordFailure(email InviteEmail, err error) {
	recordActivity(context.Background(), d.activity, d.logger, ActivityEvent{
		EventType:    ActivityEventNotificationFailed,
		InviteeEmail: email.To,
		Metadata: map[string]any{
			"error":      err.Error(),
			"accept_url": email.AcceptURL,
		},
	})
}

// LogNotifier writes invitation emails to the logger instead of sending them
type LogNotifier struct {
	logger Logger
}

func NewLogNotifier(logger Logger) *LogNotifier {
	return &LogNotifier{logger: normalizeLogger(logger)}
}

// SendInviteEmail implements Notifier.
func (n *LogNotifier) SendInviteEmail(ctx context.Context, email InviteEmail) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	n.logger.Info("invitation email",
		"to", email.To,
		"inviter", email.InviterName,
		"accept_url", email.AcceptURL,
		"qr_code_url", email.QRCodeURL,
		"template", email.Template,
	)
	return nil
}
