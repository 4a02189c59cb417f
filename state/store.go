package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/VictoriaMetrics/metrics"

	"github.com/oaiiae/contacts-directory/directory"
)

// Client performs the remote calls behind the store operations.
// [*directory.Client] implements it.
type Client interface {
	ListContacts(ctx context.Context) ([]directory.Contact, error)
	CreateContact(ctx context.Context, partial directory.PartialContact) (directory.Contact, error)
	DeleteContact(ctx context.Context, id string) (directory.Contact, error)
	GetContactByID(ctx context.Context, id string) (directory.Contact, error)
}

var _ Client = (*directory.Client)(nil)

// Listener observes an applied event and the state it produced.
// Listeners run one at a time, in the order events were applied, and must
// not start store operations synchronously.
type Listener func(Event, Directory)

// Store owns a [Directory] and applies the lifecycle events of the tasks it
// starts. Events are the only way its state changes.
type Store struct {
	client Client
	policy BusyPolicy
	logger *slog.Logger
	set    *metrics.Set

	dispatchMu sync.Mutex // serializes reduction and notification of events

	mu     sync.Mutex
	state  Directory
	lastID uint64
	subs   map[uint64]Listener
	subID  uint64
}

type Option func(*Store)

func WithBusyPolicy(p BusyPolicy) Option { return func(s *Store) { s.policy = p } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithMetrics registers the task metrics of the store in set.
func WithMetrics(set *metrics.Set) Option { return func(s *Store) { s.set = set } }

func New(client Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.New(slog.DiscardHandler),
		set:    metrics.NewSet(),
		subs:   make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.set.GetOrCreateGauge("contacts_tasks_in_flight", func() float64 {
		return float64(s.Snapshot().InFlight)
	})
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l until the returned function is called.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subID++
	id := s.subID
	s.subs[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// ListContacts starts a task that replaces the known contacts with the
// remote collection.
func (s *Store) ListContacts(ctx context.Context) *Task[[]directory.Contact] {
	return start(ctx, s, OpListContacts, s.client.ListContacts, ListFulfilledEvent)
}

// CreateContact starts a task that prepends the created contact.
func (s *Store) CreateContact(ctx context.Context, partial directory.PartialContact) *Task[directory.Contact] {
	return start(ctx, s, OpCreateContact,
		func(ctx context.Context) (directory.Contact, error) { return s.client.CreateContact(ctx, partial) },
		fulfilledWith(OpCreateContact),
	)
}

// DeleteContact starts a task that drops the deleted contact from the
// known contacts.
func (s *Store) DeleteContact(ctx context.Context, id string) *Task[directory.Contact] {
	return start(ctx, s, OpDeleteContact,
		func(ctx context.Context) (directory.Contact, error) { return s.client.DeleteContact(ctx, id) },
		fulfilledWith(OpDeleteContact),
	)
}

// OpenContact starts a task that fetches a contact and makes it the opened
// contact.
func (s *Store) OpenContact(ctx context.Context, id string) *Task[directory.Contact] {
	return start(ctx, s, OpOpenContact,
		func(ctx context.Context) (directory.Contact, error) { return s.client.GetContactByID(ctx, id) },
		fulfilledWith(OpOpenContact),
	)
}

func fulfilledWith(op Op) func(uint64, directory.Contact) Event {
	return func(id uint64, c directory.Contact) Event { return FulfilledEvent(op, id, c) }
}

// start applies the pending event before returning, then runs do on its
// own goroutine. The settlement event is applied before the task is marked
// done.
func start[R any](
	ctx context.Context,
	s *Store,
	op Op,
	do func(context.Context) (R, error),
	fulfilled func(uint64, R) Event,
) *Task[R] {
	s.mu.Lock()
	s.lastID++
	id := s.lastID
	s.mu.Unlock()

	task := newTask[R](id, op)
	s.dispatch(ctx, PendingEvent(op, id))

	ctx = context.WithoutCancel(ctx)
	go func() {
		result, err := do(ctx)
		if err != nil {
			s.dispatch(ctx, RejectedEvent(op, id, err))
		} else {
			s.dispatch(ctx, fulfilled(id, result))
		}
		task.settle(result, err)
	}()
	return task
}

func (s *Store) dispatch(ctx context.Context, e Event) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = s.policy.Reduce(s.state, e)
	snapshot := s.state
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	s.set.GetOrCreateCounter(`contacts_tasks_total{op="` + string(e.Op) + `",phase="` + e.Phase.String() + `"}`).Inc()

	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("op", string(e.Op)),
		slog.Uint64("task", e.TaskID),
		slog.Bool("busy", snapshot.APICallInProgress),
		slog.Int("items", len(snapshot.Items)),
	}
	if e.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.Any("err", e.Err))
	}
	s.logger.LogAttrs(ctx, level, "task "+e.Phase.String(), attrs...)

	for _, l := range listeners {
		l(e, snapshot)
	}
}
