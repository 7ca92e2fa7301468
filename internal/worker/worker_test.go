package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/tasks"
)

// --- Фейки зависимостей ---

type fakePayments struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*domain.Payment
	loadErr  error
}

func newFakePayments(ps ...*domain.Payment) *fakePayments {
	f := &fakePayments{payments: make(map[uuid.UUID]*domain.Payment)}
	for _, p := range ps {
		f.payments[p.ID] = p
	}
	return f
}

func (f *fakePayments) GetByID(_ context.Context, id uuid.UUID) (*domain.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) TransitionFromPending(_ context.Context, id uuid.UUID, to domain.PaymentStatus, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	t := completedAt.UTC()
	p.Status = to
	p.CompletedAt = &t
	return true, nil
}

func (f *fakePayments) CountByStatusSince(_ context.Context, _ time.Time) (map[domain.PaymentStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.PaymentStatus]int64)
	for _, p := range f.payments {
		counts[p.Status]++
	}
	return counts, nil
}

type fakeNotifications struct {
	mu        sync.Mutex
	rows      []*domain.Notification
	createErr error
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeNotifications) CountSince(_ context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.rows {
		if row.SentAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var deleted int64
	for _, row := range f.rows {
		if row.SentAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	f.rows = kept
	return deleted, nil
}

type fakeRecords struct {
	mu   sync.Mutex
	rows []*domain.Record
}

func (f *fakeRecords) Create(_ context.Context, rec *domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeRecords) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRecords) CountByKindSince(_ context.Context, since time.Time) (map[domain.RecordKind]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[domain.RecordKind]int64)
	for _, r := range f.rows {
		if r.CreatedAt.After(since) {
			counts[r.Kind]++
		}
	}
	return counts, nil
}

func (f *fakeRecords) byKind(kind domain.RecordKind) []*domain.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Record
	for _, r := range f.rows {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

type fakeUsers struct {
	users   map[uuid.UUID]*domain.User
	loadErr error
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

type retryCall struct {
	origin mq.Queue
	env    *mq.Envelope
	delay  time.Duration
}

type deadCall struct {
	origin mq.Queue
	env    *mq.Envelope
	reason string
}

type fakeDispatcher struct {
	mu       sync.Mutex
	retries  []retryCall
	deads    []deadCall
	events   []*mq.NotificationEvent
	retryErr error
	deadErr  error
	eventErr error
}

func (f *fakeDispatcher) PublishRetry(_ context.Context, origin mq.Queue, env *mq.Envelope, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retryErr != nil {
		return f.retryErr
	}
	f.retries = append(f.retries, retryCall{origin: origin, env: env, delay: delay})
	return nil
}

func (f *fakeDispatcher) PublishDead(_ context.Context, origin mq.Queue, env *mq.Envelope, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deadErr != nil {
		return f.deadErr
	}
	f.deads = append(f.deads, deadCall{origin: origin, env: env, reason: reason})
	return nil
}

func (f *fakeDispatcher) PublishEvent(_ context.Context, event *mq.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events = append(f.events, event)
	return nil
}

type fakeResults struct {
	mu      sync.Mutex
	results map[string]*TaskResult
}

func (f *fakeResults) Store(_ context.Context, res *TaskResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = make(map[string]*TaskResult)
	}
	f.results[res.TaskID] = res
	return nil
}

func (f *fakeResults) get(taskID string) *TaskResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[taskID]
}

// fakeKV — in-memory SetNX для Guard.
type fakeKV struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (f *fakeKV) SetNX(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.keys == nil {
		f.keys = make(map[string]bool)
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

// --- Тестовая сборка ---

type testEnv struct {
	worker        *Worker
	payments      *fakePayments
	notifications *fakeNotifications
	records       *fakeRecords
	users         *fakeUsers
	dispatcher    *fakeDispatcher
	results       *fakeResults
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	te := &testEnv{
		payments:      newFakePayments(),
		notifications: &fakeNotifications{},
		records:       &fakeRecords{},
		users:         &fakeUsers{users: make(map[uuid.UUID]*domain.User)},
		dispatcher:    &fakeDispatcher{},
		results:       &fakeResults{},
	}

	cfg := Config{
		Payments:      te.payments,
		Notifications: te.notifications,
		Records:       te.records,
		Users:         te.users,
		Dispatcher:    te.dispatcher,
		Results:       te.results,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	te.worker = New(cfg)
	return te
}

// deliver упаковывает задачу в Delivery и прогоняет через handleDelivery.
func deliver(t *testing.T, te *testEnv, task tasks.Task) (*mq.Envelope, error) {
	t.Helper()

	env := tasks.Encode(task)
	queue, ok := tasks.QueueFor(task.Kind())
	if !ok {
		t.Fatalf("no queue for task %q", task.Kind())
	}
	d := &mq.Delivery{Envelope: env, Queue: queue}
	return env, te.worker.handleDelivery(context.Background(), d)
}

func pendingPayment(t *testing.T) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(uuid.New(), 100.0)
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	return p
}

// --- Payment Tests ---

func TestProcessPayment_Success(t *testing.T) {
	p := pendingPayment(t)
	te := newTestEnv(t, nil)
	te.payments.payments[p.ID] = p

	env, err := deliver(t, te, tasks.ProcessPayment{PaymentID: p.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Status != domain.PaymentStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", p.Status)
	}
	if p.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	res := te.results.get(env.ID)
	if res == nil || res.Status != "success" {
		t.Errorf("expected success result, got %+v", res)
	}
}

func TestProcessPayment_IdempotentRedelivery(t *testing.T) {
	p := pendingPayment(t)
	te := newTestEnv(t, nil)
	te.payments.payments[p.ID] = p

	if _, err := deliver(t, te, tasks.ProcessPayment{PaymentID: p.ID}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	first := *p.CompletedAt

	// Повторная доставка не должна мутировать уже терминальный платёж
	if _, err := deliver(t, te, tasks.ProcessPayment{PaymentID: p.ID}); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if p.Status != domain.PaymentStatusCompleted {
		t.Errorf("status changed on redelivery: %s", p.Status)
	}
	if !p.CompletedAt.Equal(first) {
		t.Error("completed_at changed on redelivery")
	}
	if len(te.dispatcher.retries) != 0 || len(te.dispatcher.deads) != 0 {
		t.Error("redelivery should not publish retries or dead letters")
	}
}

func TestProcessPayment_SettleFailureIsTerminal(t *testing.T) {
	p := pendingPayment(t)
	te := newTestEnv(t, func(cfg *Config) {
		cfg.Settler = SettlerFunc(func(context.Context, *domain.Payment) error {
			return errors.New("gateway declined")
		})
	})
	te.payments.payments[p.ID] = p

	_, err := deliver(t, te, tasks.ProcessPayment{PaymentID: p.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ошибка расчёта — FAILED без retry, повторный прогон небезопасен
	if p.Status != domain.PaymentStatusFailed {
		t.Errorf("expected FAILED, got %s", p.Status)
	}
	if len(te.dispatcher.retries) != 0 {
		t.Error("settlement failure must not be retried")
	}
}

func TestProcessPayment_NotFoundIsPermanent(t *testing.T) {
	te := newTestEnv(t, nil)

	env, err := deliver(t, te, tasks.ProcessPayment{PaymentID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.dispatcher.retries) != 0 || len(te.dispatcher.deads) != 0 {
		t.Error("permanent failure should not be retried or dead-lettered")
	}
	res := te.results.get(env.ID)
	if res == nil || res.Status != "payment_not_found" {
		t.Errorf("expected payment_not_found result, got %+v", res)
	}
}

func TestRefundPayment_RecordsRefund(t *testing.T) {
	p := pendingPayment(t)
	if err := p.MarkCompleted(time.Now()); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	te := newTestEnv(t, nil)
	te.payments.payments[p.ID] = p

	_, err := deliver(t, te, tasks.RefundPayment{PaymentID: p.ID, Amount: 50.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refunds := te.records.byKind(domain.RecordKindRefund)
	if len(refunds) != 1 {
		t.Fatalf("expected 1 refund record, got %d", len(refunds))
	}
	// Возврат не трогает статус платежа
	if p.Status != domain.PaymentStatusCompleted {
		t.Errorf("refund must not mutate payment status, got %s", p.Status)
	}
}

func TestRefundPayment_PendingNotRefundable(t *testing.T) {
	p := pendingPayment(t)
	te := newTestEnv(t, nil)
	te.payments.payments[p.ID] = p

	env, err := deliver(t, te, tasks.RefundPayment{PaymentID: p.ID, Amount: 50.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.records.byKind(domain.RecordKindRefund)) != 0 {
		t.Error("pending payment must not produce a refund record")
	}
	if len(te.dispatcher.retries) != 0 {
		t.Error("not-refundable is permanent, no retry")
	}
	res := te.results.get(env.ID)
	if res == nil || res.Status != "payment_not_refundable" {
		t.Errorf("expected payment_not_refundable result, got %+v", res)
	}
}

// --- Notification Tests ---

func TestSendNotification_Success(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	te := newTestEnv(t, nil)
	te.users.users[user.ID] = user

	_, err := deliver(t, te, tasks.SendNotification{UserID: user.ID, Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.notifications.rows) != 1 {
		t.Fatalf("expected 1 notification row, got %d", len(te.notifications.rows))
	}
	if len(te.dispatcher.events) != 1 {
		t.Fatalf("expected 1 fan-out event, got %d", len(te.dispatcher.events))
	}
	if te.dispatcher.events[0].NotificationID != te.notifications.rows[0].ID {
		t.Error("event must reference the persisted notification")
	}
}

func TestSendNotification_UserNotFoundIsPermanent(t *testing.T) {
	te := newTestEnv(t, nil)

	env, err := deliver(t, te, tasks.SendNotification{UserID: uuid.New(), Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.notifications.rows) != 0 {
		t.Error("no row should be created for a missing user")
	}
	if len(te.dispatcher.events) != 0 {
		t.Error("no event should be published for a missing user")
	}
	if len(te.dispatcher.retries) != 0 {
		t.Error("user_not_found is permanent, no retry")
	}
	res := te.results.get(env.ID)
	if res == nil || res.Status != "user_not_found" {
		t.Errorf("expected user_not_found result, got %+v", res)
	}
}

func TestSendNotification_EventFailureStillSucceeds(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	te := newTestEnv(t, nil)
	te.users.users[user.ID] = user
	te.dispatcher.eventErr = errors.New("broker hiccup")

	env, err := deliver(t, te, tasks.SendNotification{UserID: user.ID, Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Строка — источник истины, событие best-effort
	if len(te.notifications.rows) != 1 {
		t.Fatalf("expected 1 notification row, got %d", len(te.notifications.rows))
	}
	if len(te.dispatcher.retries) != 0 {
		t.Error("event publish failure must not trigger a retry")
	}
	res := te.results.get(env.ID)
	if res == nil || res.Status != "success" {
		t.Errorf("expected success result, got %+v", res)
	}
}

func TestSendNotification_RowFailureIsTransient(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	te := newTestEnv(t, nil)
	te.users.users[user.ID] = user
	te.notifications.createErr = errors.New("db down")

	_, err := deliver(t, te, tasks.SendNotification{UserID: user.ID, Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.dispatcher.retries) != 1 {
		t.Fatalf("expected 1 retry, got %d", len(te.dispatcher.retries))
	}
	if te.dispatcher.retries[0].env.Retry != 1 {
		t.Errorf("retry counter should be 1, got %d", te.dispatcher.retries[0].env.Retry)
	}
	if len(te.dispatcher.events) != 0 {
		t.Error("no event before the row is committed")
	}
}

// --- Retry / Dead-letter Tests ---

func TestTransientFailure_RetrySchedule(t *testing.T) {
	te := newTestEnv(t, nil)
	te.users.loadErr = errors.New("connection refused")

	env, err := deliver(t, te, tasks.SendNotification{UserID: uuid.New(), Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.dispatcher.retries) != 1 {
		t.Fatalf("expected 1 retry publish, got %d", len(te.dispatcher.retries))
	}

	call := te.dispatcher.retries[0]
	if call.origin != mq.QueueNotifications {
		t.Errorf("retry must target the origin queue, got %s", call.origin)
	}
	if call.env.ID != env.ID {
		t.Error("retry envelope must keep the task id")
	}
	if call.env.Retry != 1 {
		t.Errorf("expected retry=1, got %d", call.env.Retry)
	}
	if call.delay != Backoff(1) {
		t.Errorf("expected delay %s, got %s", Backoff(1), call.delay)
	}
}

func TestExhaustedRetries_DeadLettered(t *testing.T) {
	te := newTestEnv(t, nil)
	te.users.loadErr = errors.New("connection refused")

	task := tasks.SendNotification{UserID: uuid.New(), Message: "hi"}
	env := tasks.Encode(task)
	env.Retry = env.MaxRetries // бюджет исчерпан

	d := &mq.Delivery{Envelope: env, Queue: mq.QueueNotifications}
	if err := te.worker.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.dispatcher.retries) != 0 {
		t.Error("exhausted envelope must not be retried")
	}
	if len(te.dispatcher.deads) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(te.dispatcher.deads))
	}
	if te.dispatcher.deads[0].env.Retry != env.MaxRetries {
		t.Error("dead-lettered envelope keeps its final retry count")
	}
	res := te.results.get(env.ID)
	if res == nil || res.Status != "failed" {
		t.Errorf("expected failed result, got %+v", res)
	}
}

func TestRetryPublishFailure_RequeuesOriginal(t *testing.T) {
	te := newTestEnv(t, nil)
	te.users.loadErr = errors.New("connection refused")
	te.dispatcher.retryErr = errors.New("broker unavailable")

	_, err := deliver(t, te, tasks.SendNotification{UserID: uuid.New(), Message: "hi"})
	if err == nil {
		t.Fatal("expected error so the consumer requeues the original")
	}
}

func TestUnknownTask_Dropped(t *testing.T) {
	te := newTestEnv(t, nil)

	env := mq.NewEnvelope("no_such_task", nil)
	d := &mq.Delivery{Envelope: env, Queue: mq.QueueDefault}
	if err := te.worker.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drop: ни retry, ни DLQ
	if len(te.dispatcher.retries) != 0 || len(te.dispatcher.deads) != 0 {
		t.Error("unknown task must be dropped without retry or dead letter")
	}
}

func TestMalformedArgs_DeadLettered(t *testing.T) {
	te := newTestEnv(t, nil)

	env := mq.NewEnvelope(string(tasks.KindProcessPayment), []any{"not-a-uuid"})
	d := &mq.Delivery{Envelope: env, Queue: mq.QueuePayments}
	if err := te.worker.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.dispatcher.deads) != 1 {
		t.Fatalf("expected immediate dead letter, got %d", len(te.dispatcher.deads))
	}
	if len(te.dispatcher.retries) != 0 {
		t.Error("malformed envelope must not be retried")
	}
}

// --- Dedupe Tests ---

func TestDuplicateDeliverySuppressed(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	te := newTestEnv(t, func(cfg *Config) {
		cfg.Guard = NewGuard(&fakeKV{})
	})
	te.users.users[user.ID] = user

	task := tasks.SendNotification{UserID: user.ID, Message: "hello"}
	env := tasks.Encode(task)
	d := &mq.Delivery{Envelope: env, Queue: mq.QueueNotifications}

	if err := te.worker.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := te.worker.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if len(te.notifications.rows) != 1 {
		t.Errorf("duplicate delivery must be suppressed, got %d rows", len(te.notifications.rows))
	}
}

func TestDedupeAllowsRetryAttempts(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	te := newTestEnv(t, func(cfg *Config) {
		cfg.Guard = NewGuard(&fakeKV{})
	})
	te.users.users[user.ID] = user

	task := tasks.SendNotification{UserID: user.ID, Message: "hello"}
	env := tasks.Encode(task)

	d := &mq.Delivery{Envelope: env, Queue: mq.QueueNotifications}
	if err := te.worker.handleDelivery(context.Background(), d); err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	// Retry-копия — другая попытка, не подавляется
	retry := env.WithRetry()
	d2 := &mq.Delivery{Envelope: retry, Queue: mq.QueueNotifications}
	if err := te.worker.handleDelivery(context.Background(), d2); err != nil {
		t.Fatalf("retry attempt: %v", err)
	}

	if len(te.notifications.rows) != 2 {
		t.Errorf("retry attempt must not be suppressed, got %d rows", len(te.notifications.rows))
	}
}

func TestDedupeFailsOpen(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "user@example.com", IsActive: true}
	te := newTestEnv(t, func(cfg *Config) {
		cfg.Guard = NewGuard(&fakeKV{err: errors.New("redis down")})
	})
	te.users.users[user.ID] = user

	_, err := deliver(t, te, tasks.SendNotification{UserID: user.ID, Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.notifications.rows) != 1 {
		t.Error("guard failure must not block processing")
	}
}

// --- Maintenance Tests ---

func TestCleanupOldRecords_WritesSummary(t *testing.T) {
	te := newTestEnv(t, nil)
	old := domain.NewNotification(uuid.New(), "stale")
	old.SentAt = time.Now().UTC().Add(-60 * 24 * time.Hour)
	te.notifications.rows = append(te.notifications.rows, old)

	_, err := deliver(t, te, tasks.CleanupOldRecords{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.notifications.rows) != 0 {
		t.Error("stale notification should be deleted")
	}
	if len(te.records.byKind(domain.RecordKindCleanup)) != 1 {
		t.Error("cleanup must write a summary record")
	}
}

func TestGenerateDailyReport_WritesRecord(t *testing.T) {
	p := pendingPayment(t)
	te := newTestEnv(t, nil)
	te.payments.payments[p.ID] = p

	_, err := deliver(t, te, tasks.GenerateDailyReport{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.records.byKind(domain.RecordKindReport)) != 1 {
		t.Error("report must be persisted as a record")
	}
}

func TestHeartbeatCheck_RecordsFailure(t *testing.T) {
	te := newTestEnv(t, func(cfg *Config) {
		cfg.DB = pingerFunc(func(context.Context) error { return errors.New("db down") })
	})

	_, err := deliver(t, te, tasks.HeartbeatCheck{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(te.records.byKind(domain.RecordKindHeartbeat)) != 1 {
		t.Error("failed heartbeat must be persisted as a record")
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
