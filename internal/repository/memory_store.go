package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
)

var errReadOnlyTx = errors.New("write in read-only transaction")

// MemoryStore: 用于 DB 未就绪时的联测与单元测试
// - 写事务串行执行：克隆快照，回调成功后整体替换，失败则丢弃克隆
// - View 读取已发布的不可变快照，读写互不阻塞
// - IDs 使用 uuid
type MemoryStore struct {
	// writer 单槽信号量，写事务持有；可随 ctx 超时放弃等待
	writer    chan struct{}
	mu        sync.RWMutex
	state     *memState
	txTimeout time.Duration
	now       func() time.Time
}

type memState struct {
	seq        int64
	properties map[string]domain.Property
	rooms      map[string]domain.Room
	beds       map[string]domain.Bed
	bookings   map[string]domain.Booking
	order      map[string]int64 // id -> 插入序号，用于稳定排序
}

func NewMemoryStore(txTimeout time.Duration) *MemoryStore {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &MemoryStore{
		writer: make(chan struct{}, 1),
		state: &memState{
			properties: map[string]domain.Property{},
			rooms:      map[string]domain.Room{},
			beds:       map[string]domain.Bed{},
			bookings:   map[string]domain.Booking{},
			order:      map[string]int64{},
		},
		txTimeout: txTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return timeoutError(ctx.Err(), "begin tx")
	}
	defer func() { <-s.writer }()

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &memTx{state: working, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return timeoutError(err, "commit")
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	s.mu.RLock()
	snapshot := s.state
	s.mu.RUnlock()

	if err := fn(ctx, &memTx{state: snapshot, readOnly: true, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return timeoutError(err, "view")
	}
	return nil
}

func (st *memState) clone() *memState {
	c := &memState{
		seq:        st.seq,
		properties: make(map[string]domain.Property, len(st.properties)),
		rooms:      make(map[string]domain.Room, len(st.rooms)),
		beds:       make(map[string]domain.Bed, len(st.beds)),
		bookings:   make(map[string]domain.Booking, len(st.bookings)),
		order:      make(map[string]int64, len(st.order)),
	}
	for k, v := range st.properties {
		c.properties[k] = copyProperty(v)
	}
	for k, v := range st.rooms {
		c.rooms[k] = copyRoom(v)
	}
	for k, v := range st.beds {
		c.beds[k] = v
	}
	for k, v := range st.bookings {
		c.bookings[k] = copyBooking(v)
	}
	for k, v := range st.order {
		c.order[k] = v
	}
	return c
}

func copyProperty(p domain.Property) domain.Property {
	p.Amenities = append([]string(nil), p.Amenities...)
	p.Rules = append([]string(nil), p.Rules...)
	return p
}

func copyRoom(r domain.Room) domain.Room {
	r.Amenities = append([]string(nil), r.Amenities...)
	return r
}

func copyBooking(b domain.Booking) domain.Booking {
	if b.BedID != nil {
		v := *b.BedID
		b.BedID = &v
	}
	if b.EndDate != nil {
		v := *b.EndDate
		b.EndDate = &v
	}
	return b
}

type memTx struct {
	state    *memState
	readOnly bool
	now      func() time.Time
}

func (t *memTx) writable() error {
	if t.readOnly {
		return errReadOnlyTx
	}
	return nil
}

func (t *memTx) nextID() (string, int64) {
	t.state.seq++
	return uuid.NewString(), t.state.seq
}

// newestFirst sorts ids by insertion order, newest first.
func (t *memTx) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return t.state.order[ids[i]] > t.state.order[ids[j]] })
}

// ---- properties ----

func (t *memTx) GetProperty(_ context.Context, propertyID string) (*domain.Property, error) {
	p, ok := t.state.properties[propertyID]
	if !ok {
		return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, propertyID)
	}
	p = copyProperty(p)
	return &p, nil
}

func (t *memTx) ListProperties(_ context.Context, filter PropertyFilter) ([]*domain.Property, error) {
	ids := make([]string, 0, len(t.state.properties))
	for id, p := range t.state.properties {
		if p.IsActive && t.matchProperty(&p, filter) {
			ids = append(ids, id)
		}
	}
	t.newestFirst(ids)
	out := make([]*domain.Property, 0, len(ids))
	for _, id := range ids {
		p := copyProperty(t.state.properties[id])
		out = append(out, &p)
	}
	return out, nil
}

func (t *memTx) matchProperty(p *domain.Property, f PropertyFilter) bool {
	if f.City != "" && !containsFold(p.City, f.City) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if !p.HasAmenities(f.Amenities) {
		return false
	}
	if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Address, f.Search) && !containsFold(p.City, f.Search) {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		inRange := false
		for _, r := range t.state.rooms {
			if r.PropertyID != p.PropertyID || !r.IsActive {
				continue
			}
			if f.MinPrice != nil && r.PricePerBed < *f.MinPrice {
				continue
			}
			if f.MaxPrice != nil && r.PricePerBed > *f.MaxPrice {
				continue
			}
			inRange = true
			break
		}
		if !inRange {
			return false
		}
	}
	return true
}

func (t *memTx) ListPropertiesByOwner(_ context.Context, ownerID string) ([]*domain.Property, error) {
	ids := make([]string, 0)
	for id, p := range t.state.properties {
		if p.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	t.newestFirst(ids)
	out := make([]*domain.Property, 0, len(ids))
	for _, id := range ids {
		p := copyProperty(t.state.properties[id])
		out = append(out, &p)
	}
	return out, nil
}

func (t *memTx) CreateProperty(_ context.Context, p *domain.Property) error {
	if err := t.writable(); err != nil {
		return err
	}
	id, seq := t.nextID()
	now := t.now()
	p.PropertyID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	t.state.properties[id] = copyProperty(*p)
	t.state.order[id] = seq
	return nil
}

func (t *memTx) UpdateProperty(_ context.Context, p *domain.Property) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.state.properties[p.PropertyID]
	if !ok {
		return fmt.Errorf("%w: property %s", domain.ErrNotFound, p.PropertyID)
	}
	p.OwnerID = cur.OwnerID
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = t.now()
	t.state.properties[p.PropertyID] = copyProperty(*p)
	return nil
}

// ---- rooms ----

func (t *memTx) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	r, ok := t.state.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", domain.ErrNotFound, roomID)
	}
	r = copyRoom(r)
	return &r, nil
}

func (t *memTx) ListRooms(_ context.Context, propertyID string, activeOnly bool) ([]*domain.Room, error) {
	out := make([]*domain.Room, 0)
	for _, r := range t.state.rooms {
		r := r
		if r.PropertyID != propertyID || (activeOnly && !r.IsActive) {
			continue
		}
		r = copyRoom(r)
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return t.state.order[out[i].RoomID] < t.state.order[out[j].RoomID]
	})
	return out, nil
}

func (t *memTx) ListRoomsByOwner(_ context.Context, ownerID string) ([]*domain.Room, error) {
	out := make([]*domain.Room, 0)
	for _, r := range t.state.rooms {
		r := r
		p, ok := t.state.properties[r.PropertyID]
		if !ok || p.OwnerID != ownerID {
			continue
		}
		r = copyRoom(r)
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return t.state.order[out[i].RoomID] < t.state.order[out[j].RoomID] })
	return out, nil
}

func (t *memTx) CreateRoom(_ context.Context, r *domain.Room) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.properties[r.PropertyID]; !ok {
		return fmt.Errorf("%w: room references missing property %s", domain.ErrIntegrity, r.PropertyID)
	}
	id, seq := t.nextID()
	now := t.now()
	r.RoomID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	t.state.rooms[id] = copyRoom(*r)
	t.state.order[id] = seq
	return nil
}

func (t *memTx) UpdateRoom(_ context.Context, r *domain.Room) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.state.rooms[r.RoomID]
	if !ok {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, r.RoomID)
	}
	r.PropertyID = cur.PropertyID
	r.CreatedAt = cur.CreatedAt
	r.UpdatedAt = t.now()
	t.state.rooms[r.RoomID] = copyRoom(*r)
	return nil
}

// ---- beds ----

func (t *memTx) GetBed(_ context.Context, bedID string) (*domain.Bed, error) {
	b, ok := t.state.beds[bedID]
	if !ok {
		return nil, fmt.Errorf("%w: bed %s", domain.ErrNotFound, bedID)
	}
	return &b, nil
}

// LockBed 写事务本身已串行，等同于 GetBed
func (t *memTx) LockBed(ctx context.Context, bedID string) (*domain.Bed, error) {
	return t.GetBed(ctx, bedID)
}

func (t *memTx) ListBeds(_ context.Context, roomID string, availableOnly bool) ([]*domain.Bed, error) {
	out := make([]*domain.Bed, 0)
	for _, b := range t.state.beds {
		b := b
		if b.RoomID != roomID || (availableOnly && b.IsOccupied) {
			continue
		}
		out = append(out, &b)
	}
	sortBedsByLabel(out)
	return out, nil
}

func (t *memTx) ListBedsByOwner(_ context.Context, ownerID string) ([]*domain.Bed, error) {
	out := make([]*domain.Bed, 0)
	for _, b := range t.state.beds {
		b := b
		r, ok := t.state.rooms[b.RoomID]
		if !ok {
			continue
		}
		p, ok := t.state.properties[r.PropertyID]
		if !ok || p.OwnerID != ownerID {
			continue
		}
		out = append(out, &b)
	}
	sortBedsByLabel(out)
	return out, nil
}

func sortBedsByLabel(beds []*domain.Bed) {
	sort.Slice(beds, func(i, j int) bool {
		if beds[i].Label != beds[j].Label {
			return beds[i].Label < beds[j].Label
		}
		return beds[i].BedID < beds[j].BedID
	})
}

func (t *memTx) BedLabelTaken(_ context.Context, roomID, label, excludeBedID string) (bool, error) {
	for id, b := range t.state.beds {
		if b.RoomID == roomID && b.Label == label && id != excludeBedID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CreateBed(ctx context.Context, b *domain.Bed) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.state.rooms[b.RoomID]; !ok {
		return fmt.Errorf("%w: bed references missing room %s", domain.ErrIntegrity, b.RoomID)
	}
	if taken, _ := t.BedLabelTaken(ctx, b.RoomID, b.Label, ""); taken {
		return fmt.Errorf("%w: bed label %q already exists in room", domain.ErrConflict, b.Label)
	}
	id, seq := t.nextID()
	now := t.now()
	b.BedID = id
	b.IsOccupied = false
	b.CreatedAt = now
	b.UpdatedAt = now
	t.state.beds[id] = *b
	t.state.order[id] = seq
	return nil
}

func (t *memTx) UpdateBed(ctx context.Context, b *domain.Bed) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.state.beds[b.BedID]
	if !ok {
		return fmt.Errorf("%w: bed %s", domain.ErrNotFound, b.BedID)
	}
	if taken, _ := t.BedLabelTaken(ctx, cur.RoomID, b.Label, b.BedID); taken {
		return fmt.Errorf("%w: bed label %q already exists in room", domain.ErrConflict, b.Label)
	}
	cur.Label = b.Label
	cur.UpdatedAt = t.now()
	t.state.beds[b.BedID] = cur
	*b = cur
	return nil
}

func (t *memTx) SetBedOccupied(_ context.Context, bedID string, occupied bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.state.beds[bedID]
	if !ok {
		return fmt.Errorf("%w: bed %s", domain.ErrNotFound, bedID)
	}
	cur.IsOccupied = occupied
	cur.UpdatedAt = t.now()
	t.state.beds[bedID] = cur
	return nil
}

// ---- bookings ----

func (t *memTx) GetBooking(_ context.Context, bookingID string) (*domain.Booking, error) {
	b, ok := t.state.bookings[bookingID]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, bookingID)
	}
	b = copyBooking(b)
	return &b, nil
}

func (t *memTx) LockBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return t.GetBooking(ctx, bookingID)
}

func (t *memTx) ListBookings(_ context.Context, f BookingFilter) ([]*domain.Booking, error) {
	ids := make([]string, 0)
	for id, b := range t.state.bookings {
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.PropertyID != "" && b.PropertyID != f.PropertyID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.OwnerID != "" {
			p, ok := t.state.properties[b.PropertyID]
			if !ok || p.OwnerID != f.OwnerID {
				continue
			}
		}
		ids = append(ids, id)
	}
	t.newestFirst(ids)
	out := make([]*domain.Booking, 0, len(ids))
	for _, id := range ids {
		b := copyBooking(t.state.bookings[id])
		out = append(out, &b)
	}
	return out, nil
}

func (t *memTx) CountBedClaims(_ context.Context, bedID, excludeBookingID string) (int, error) {
	n := 0
	for id, b := range t.state.bookings {
		if id != excludeBookingID && b.BedIDValue() == bedID && b.Status.ClaimsBed() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CreateBooking(ctx context.Context, b *domain.Booking) error {
	if err := t.writable(); err != nil {
		return err
	}
	if err := t.checkClaimIndex(ctx, b, ""); err != nil {
		return err
	}
	id, seq := t.nextID()
	now := t.now()
	b.BookingID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	t.state.bookings[id] = copyBooking(*b)
	t.state.order[id] = seq
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	if err := t.writable(); err != nil {
		return err
	}
	cur, ok := t.state.bookings[b.BookingID]
	if !ok {
		return fmt.Errorf("%w: booking %s", domain.ErrNotFound, b.BookingID)
	}
	if err := t.checkClaimIndex(ctx, b, b.BookingID); err != nil {
		return err
	}
	b.CustomerID = cur.CustomerID
	b.PropertyID = cur.PropertyID
	b.RoomID = cur.RoomID
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = t.now()
	t.state.bookings[b.BookingID] = copyBooking(*b)
	return nil
}

// checkClaimIndex mirrors the partial unique index on bookings(bed_id).
func (t *memTx) checkClaimIndex(ctx context.Context, b *domain.Booking, excludeID string) error {
	if !b.HoldsBed() {
		return nil
	}
	n, _ := t.CountBedClaims(ctx, b.BedIDValue(), excludeID)
	if n > 0 {
		return fmt.Errorf("%w: bed %s is already claimed", domain.ErrConflict, b.BedIDValue())
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

// timeoutError maps a context failure to domain.ErrTimeout.
func timeoutError(ctxErr error, op string) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s exceeded transaction budget", domain.ErrTimeout, op)
	}
	return fmt.Errorf("%s: %w", op, ctxErr)
}
