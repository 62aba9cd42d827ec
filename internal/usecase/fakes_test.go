package usecase_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// memStore is an in-memory stand-in for postgres. Transactions are
// serialized, which plays the part of the per-vehicle advisory lock, and roll
// back to a snapshot on error. Holding bookings that overlap on one vehicle
// are refused the way the exclusion constraint refuses them.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	vehicles  map[uuid.UUID]entity.Vehicle
	locations map[uuid.UUID]entity.Location
	bookings  map[uuid.UUID]entity.Booking
	payments  map[uuid.UUID]entity.Payment
	sessions  map[uuid.UUID]entity.Session
	users     map[uuid.UUID]entity.User
	locks     []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		vehicles:  make(map[uuid.UUID]entity.Vehicle),
		locations: make(map[uuid.UUID]entity.Location),
		bookings:  make(map[uuid.UUID]entity.Booking),
		payments:  make(map[uuid.UUID]entity.Payment),
		sessions:  make(map[uuid.UUID]entity.Session),
		users:     make(map[uuid.UUID]entity.User),
	}
}

func (m *memStore) repository() *repository.Repository {
	repo := &repository.Repository{
		Vehicle:  memVehicles{m},
		Location: memLocations{m},
		Booking:  memBookings{m},
		Payment:  memPayments{m},
		User:     memUsers{m},
		Session:  memSessions{m},
	}
	repo.Tx = memTransactor{store: m, repo: repo}
	return repo
}

func (m *memStore) addVehicle(rate string, status entity.VehicleStatus) entity.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := entity.Vehicle{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: testNow, UpdatedAt: testNow},
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2024,
		LicensePlate: "B 1234 XY",
		DailyRate:    decimal.RequireFromString(rate),
		Status:       status,
	}
	m.vehicles[v.ID] = v
	return v
}

func (m *memStore) addLocation(city string) entity.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := entity.Location{
		Base:    entity.Base{ID: uuid.New(), CreatedAt: testNow, UpdatedAt: testNow},
		Name:    city + " Airport",
		Address: "Terminal 1",
		City:    city,
	}
	m.locations[l.ID] = l
	return l
}

func (m *memStore) putBooking(b entity.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

func (m *memStore) putPayment(p entity.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) payment(id uuid.UUID) entity.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

func (m *memStore) paymentByTransaction(transactionID string) (entity.Payment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TransactionID == transactionID {
			return p, true
		}
	}
	return entity.Payment{}, false
}

func (m *memStore) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

type snapshot struct {
	vehicles map[uuid.UUID]entity.Vehicle
	bookings map[uuid.UUID]entity.Booking
	payments map[uuid.UUID]entity.Payment
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		vehicles: make(map[uuid.UUID]entity.Vehicle, len(m.vehicles)),
		bookings: make(map[uuid.UUID]entity.Booking, len(m.bookings)),
		payments: make(map[uuid.UUID]entity.Payment, len(m.payments)),
	}
	for k, v := range m.vehicles {
		s.vehicles[k] = v
	}
	for k, v := range m.bookings {
		s.bookings[k] = v
	}
	for k, v := range m.payments {
		s.payments[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles, m.bookings, m.payments = s.vehicles, s.bookings, s.payments
}

type memTransactor struct {
	store *memStore
	repo  *repository.Repository
}

func (t memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Repository) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(ctx, t.repo); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// ---------------------------------------------------------------- vehicles

type memVehicles struct{ m *memStore }

func (r memVehicles) FindByID(_ context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v, ok := r.m.vehicles[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r memVehicles) FindAvailableInRange(_ context.Context, start, end time.Time, limit, offset int) ([]*entity.Vehicle, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*entity.Vehicle
	for _, v := range r.m.vehicles {
		if v.Status != entity.VehicleStatusAvailable || r.m.overlapLocked(v.ID, start, end, nil) {
			continue
		}
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DailyRate.LessThan(out[j].DailyRate) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memVehicles) UpdateStatus(_ context.Context, id uuid.UUID, status entity.VehicleStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v := r.m.vehicles[id]
	v.Status = status
	r.m.vehicles[id] = v
	return nil
}

// ---------------------------------------------------------------- locations

type memLocations struct{ m *memStore }

func (r memLocations) FindByID(_ context.Context, id uuid.UUID) (*entity.Location, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r memLocations) FindAll(_ context.Context, city *string) ([]*entity.Location, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Location
	for _, l := range r.m.locations {
		if city != nil && l.City != *city {
			continue
		}
		l := l
		out = append(out, &l)
	}
	return out, nil
}

// ---------------------------------------------------------------- bookings

type memBookings struct{ m *memStore }

func (m *memStore) overlapLocked(vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, b := range m.bookings {
		if b.VehicleID != vehicleID || !b.Status.HoldsVehicle() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if usecase.Overlaps(b.StartDateTime, b.EndDateTime, start, end) {
			return true
		}
	}
	return false
}

func (r memBookings) checkExclusion(b *entity.Booking) error {
	if b.Status.HoldsVehicle() && r.m.overlapLocked(b.VehicleID, b.StartDateTime, b.EndDateTime, &b.ID) {
		return repository.ErrOverlap
	}
	return nil
}

func (r memBookings) Create(_ context.Context, b *entity.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.checkExclusion(b); err != nil {
		return err
	}
	r.m.bookings[b.ID] = *b
	return nil
}

func (r memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r memBookings) Update(_ context.Context, b *entity.Booking) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.checkExclusion(b); err != nil {
		return err
	}
	r.m.bookings[b.ID] = *b
	return nil
}

func (r memBookings) filtered(status *entity.BookingStatus) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if status != nil && b.Status != *status {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memBookings) List(_ context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := r.filtered(status)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memBookings) Count(_ context.Context, status *entity.BookingStatus) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.filtered(status))), nil
}

func (r memBookings) LockVehicle(_ context.Context, vehicleID uuid.UUID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.locks = append(r.m.locks, vehicleID)
	return nil
}

func (r memBookings) HasOverlap(_ context.Context, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.overlapLocked(vehicleID, start, end, excludeID), nil
}

func (r memBookings) FindLiveIntervals(_ context.Context, vehicleID uuid.UUID) ([]entity.BookingInterval, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []entity.BookingInterval
	for _, b := range r.m.bookings {
		if b.VehicleID != vehicleID || !b.Status.HoldsVehicle() {
			continue
		}
		out = append(out, entity.BookingInterval{BookingID: b.ID, Start: b.StartDateTime, End: b.EndDateTime, Status: b.Status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r memBookings) FindOverdue(_ context.Context, now time.Time) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if b.Status == entity.BookingStatusOngoing && b.EndDateTime.Before(now) {
			b := b
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r memBookings) CountByStatus(_ context.Context) (map[entity.BookingStatus]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	counts := make(map[entity.BookingStatus]int64)
	for _, b := range r.m.bookings {
		counts[b.Status]++
	}
	return counts, nil
}

// ---------------------------------------------------------------- payments

type memPayments struct{ m *memStore }

func (r memPayments) Create(_ context.Context, p *entity.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.payments {
		if existing.TransactionID == p.TransactionID {
			return repository.ErrDuplicate
		}
	}
	r.m.payments[p.ID] = *p
	return nil
}

func (r memPayments) FindByTransactionIDForUpdate(_ context.Context, transactionID string) (*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.payments {
		if p.TransactionID == transactionID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r memPayments) FindLatestByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var latest *entity.Payment
	for _, p := range r.m.payments {
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			p := p
			latest = &p
		}
	}
	return latest, nil
}

func (r memPayments) FindLatestByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.FindLatestByBookingID(ctx, bookingID)
}

func (r memPayments) CountRefundedByBookingID(_ context.Context, bookingID uuid.UUID) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	count := 0
	for _, p := range r.m.payments {
		if p.BookingID == bookingID && p.Status == entity.PaymentStatusRefunded {
			count++
		}
	}
	return count, nil
}

func (r memPayments) Update(_ context.Context, p *entity.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.payments[p.ID] = *p
	return nil
}

func (r memPayments) Revenue(_ context.Context) (decimal.Decimal, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.m.payments {
		if p.Status != entity.PaymentStatusPaid {
			continue
		}
		switch r.m.bookings[p.BookingID].Status {
		case entity.BookingStatusApproved, entity.BookingStatusOngoing, entity.BookingStatusCompleted:
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// ---------------------------------------------------------------- users, sessions

type memUsers struct{ m *memStore }

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type memSessions struct{ m *memStore }

func (r memSessions) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	return nil, nil
}

func (r memSessions) CleanExpiredSessions(_ context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

// ---------------------------------------------------------------- collaborators

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*usecase.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, metadata)
	intent, _ := args.Get(0).(*usecase.PaymentIntent)
	return intent, args.Error(1)
}

func (m *mockProvider) Refund(ctx context.Context, transactionID string) error {
	return m.Called(ctx, transactionID).Error(0)
}

func (m *mockProvider) ParseWebhook(payload []byte, signature string) (*usecase.PaymentEvent, error) {
	args := m.Called(payload, signature)
	event, _ := args.Get(0).(*usecase.PaymentEvent)
	return event, args.Error(1)
}

type sentEvent struct {
	Event  usecase.NotificationEvent
	Status entity.BookingStatus
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event usecase.NotificationEvent, b *entity.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{Event: event, Status: b.Status})
}

func (n *recordingNotifier) names() []usecase.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]usecase.NotificationEvent, len(n.events))
	for i, e := range n.events {
		out[i] = e.Event
	}
	return out
}

type countingCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID][]entity.BookingInterval
	gets        int
	invalidated []uuid.UUID
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[uuid.UUID][]entity.BookingInterval)}
}

func (c *countingCache) Get(_ context.Context, id uuid.UUID) ([]entity.BookingInterval, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	iv, ok := c.entries[id]
	return iv, ok, nil
}

func (c *countingCache) Set(_ context.Context, id uuid.UUID, intervals []entity.BookingInterval) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = intervals
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// ---------------------------------------------------------------- harness

type harness struct {
	store    *memStore
	provider *mockProvider
	notifier *recordingNotifier
	cache    *countingCache
	service  *usecase.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:    newMemStore(),
		provider: &mockProvider{},
		notifier: &recordingNotifier{},
		cache:    newCountingCache(),
	}
	config := &utils.Config{Payment: utils.PaymentConfig{Currency: "USD", Timeout: time.Second}}
	h.service = usecase.NewService(h.store.repository(), config, usecase.Dependencies{
		Provider: h.provider,
		Notifier: h.notifier,
		Cache:    h.cache,
		Clock:    fixedClock,
	}, zap.NewNop())

	t.Cleanup(func() { h.provider.AssertExpectations(t) })
	return h
}

// seedBooking stores a booking on a fresh vehicle directly, bypassing the service.
func (h *harness) seedBooking(status entity.BookingStatus, start, end time.Time) entity.Booking {
	vehicle := h.store.addVehicle("50.00", entity.VehicleStatusAvailable)
	return h.seedBookingOn(vehicle.ID, status, start, end)
}

func (h *harness) seedBookingOn(vehicleID uuid.UUID, status entity.BookingStatus, start, end time.Time) entity.Booking {
	b := entity.Booking{
		BaseNoDelete:     entity.BaseNoDelete{ID: uuid.New(), CreatedAt: testNow, UpdatedAt: testNow},
		Reference:        "RENT-TEST-" + uuid.NewString()[:8],
		VehicleID:        vehicleID,
		PickupLocationID: uuid.New(),
		ReturnLocationID: uuid.New(),
		CustomerName:     "Ana Putri",
		CustomerEmail:    "ana@example.com",
		StartDateTime:    start,
		EndDateTime:      end,
		TotalPrice:       decimal.RequireFromString("150.00"),
		DepositAmount:    decimal.RequireFromString("15.00"),
		Status:           status,
	}
	h.store.putBooking(b)
	return b
}

func (h *harness) seedPayment(bookingID uuid.UUID, status entity.PaymentStatus, txID string) entity.Payment {
	p := entity.Payment{
		BaseNoDelete:  entity.BaseNoDelete{ID: uuid.New(), CreatedAt: testNow, UpdatedAt: testNow},
		BookingID:     bookingID,
		Amount:        decimal.RequireFromString("15.00"),
		Currency:      "USD",
		Status:        status,
		TransactionID: txID,
	}
	h.store.putPayment(p)
	return p
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }
