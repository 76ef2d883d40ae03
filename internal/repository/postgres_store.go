package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rasheedharab/PayGuestMarketplace/internal/domain"
)

// PostgresStore Entity Store 的 PostgreSQL 实现
// 写事务使用 READ COMMITTED + 行锁（SELECT ... FOR UPDATE）实现床位 check-and-set；
// bookings 上的部分唯一索引 uq_bookings_bed_claim 兜底
// View 使用 REPEATABLE READ 只读事务，多条统计查询看到同一快照
type PostgresStore struct {
	db        *sql.DB
	txTimeout time.Duration
	logger    *zap.Logger
}

func NewPostgresStore(db *sql.DB, txTimeout time.Duration, logger *zap.Logger) *PostgresStore {
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	return &PostgresStore{db: db, txTimeout: txTimeout, logger: logger}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

func (s *PostgresStore) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *PostgresStore) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return withDeadline(ctx, mapError(err, "begin tx"))
	}

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return withDeadline(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return withDeadline(ctx, mapError(err, "commit tx"))
	}
	return nil
}

// withDeadline reports an untyped failure as ErrTimeout once the tx budget is spent.
func withDeadline(ctx context.Context, err error) error {
	if err == nil || domain.KindOf(err) != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}

// mapError 将 database/sql 与 pq 错误映射为领域错误
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != nil {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrTimeout, what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s (%s)", domain.ErrConflict, what, pqErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s (%s)", domain.ErrIntegrity, what, pqErr.Constraint)
		case "23514", "22P02", "22007": // check_violation, invalid_text_representation, invalid_datetime_format
			return fmt.Errorf("%w: %s: %s", domain.ErrValidation, what, pqErr.Message)
		case "57014": // query_canceled (statement_timeout)
			return fmt.Errorf("%w: %s", domain.ErrTimeout, what)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
}

// escapeLike 转义 LIKE/ILIKE 通配符
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.TrimSpace(s))
}

type rowScanner interface {
	Scan(dest ...any) error
}

type pgTx struct {
	tx *sql.Tx
}

// ---- properties ----

const propertyColumns = `
	p.property_id::text, p.owner_id, p.name, p.description, p.address, p.city, p.state,
	p.postal_code, p.category, p.gender, p.amenities, p.rules, p.is_active, p.created_at, p.updated_at`

func scanProperty(row rowScanner) (*domain.Property, error) {
	var p domain.Property
	var category, gender string
	err := row.Scan(
		&p.PropertyID, &p.OwnerID, &p.Name, &p.Description, &p.Address, &p.City, &p.State,
		&p.PostalCode, &category, &gender, pq.Array(&p.Amenities), pq.Array(&p.Rules),
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = domain.PropertyCategory(category)
	p.Gender = domain.GenderPolicy(gender)
	return &p, nil
}

func (t *pgTx) queryProperties(ctx context.Context, q string, args ...any) ([]*domain.Property, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "query properties")
	}
	defer rows.Close()

	out := make([]*domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, mapError(err, "scan property")
		}
		out = append(out, p)
	}
	return out, mapError(rows.Err(), "iterate properties")
}

func (t *pgTx) GetProperty(ctx context.Context, propertyID string) (*domain.Property, error) {
	if !isUUID(propertyID) {
		return nil, notFound("property", propertyID)
	}
	q := `SELECT ` + propertyColumns + ` FROM properties p WHERE p.property_id = $1`
	p, err := scanProperty(t.tx.QueryRowContext(ctx, q, propertyID))
	if err != nil {
		return nil, mapError(err, "property "+propertyID)
	}
	return p, nil
}

func (t *pgTx) ListProperties(ctx context.Context, f PropertyFilter) ([]*domain.Property, error) {
	where := []string{"p.is_active = TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.City != "" {
		where = append(where, "p.city ILIKE "+arg("%"+escapeLike(f.City)+"%"))
	}
	if f.Category != "" {
		where = append(where, "p.category = "+arg(string(f.Category)))
	}
	if len(f.Amenities) > 0 {
		wanted := make([]string, 0, len(f.Amenities))
		for _, a := range f.Amenities {
			wanted = append(wanted, strings.ToLower(strings.TrimSpace(a)))
		}
		where = append(where, "(SELECT array_agg(lower(a)) FROM unnest(p.amenities) a) @> "+arg(pq.Array(wanted))+"::text[]")
	}
	if f.Search != "" {
		n := arg("%" + escapeLike(f.Search) + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.address ILIKE %s OR p.city ILIKE %s)", n, n, n))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		conds := []string{"r.property_id = p.property_id", "r.is_active = TRUE"}
		if f.MinPrice != nil {
			conds = append(conds, "r.price_per_bed >= "+arg(*f.MinPrice))
		}
		if f.MaxPrice != nil {
			conds = append(conds, "r.price_per_bed <= "+arg(*f.MaxPrice))
		}
		where = append(where, "EXISTS (SELECT 1 FROM rooms r WHERE "+strings.Join(conds, " AND ")+")")
	}

	q := `SELECT ` + propertyColumns + ` FROM properties p WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY p.created_at DESC, p.property_id`
	return t.queryProperties(ctx, q, args...)
}

func (t *pgTx) ListPropertiesByOwner(ctx context.Context, ownerID string) ([]*domain.Property, error) {
	q := `SELECT ` + propertyColumns + ` FROM properties p WHERE p.owner_id = $1 ORDER BY p.created_at DESC, p.property_id`
	return t.queryProperties(ctx, q, ownerID)
}

func (t *pgTx) CreateProperty(ctx context.Context, p *domain.Property) error {
	q := `
		INSERT INTO properties (
			owner_id, name, description, address, city, state, postal_code,
			category, gender, amenities, rules, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING property_id::text, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q,
		p.OwnerID, p.Name, p.Description, p.Address, p.City, p.State, p.PostalCode,
		string(p.Category), string(p.Gender), pq.Array(nonNil(p.Amenities)), pq.Array(nonNil(p.Rules)), p.IsActive,
	).Scan(&p.PropertyID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "insert property")
}

func (t *pgTx) UpdateProperty(ctx context.Context, p *domain.Property) error {
	if !isUUID(p.PropertyID) {
		return notFound("property", p.PropertyID)
	}
	q := `
		UPDATE properties SET
			name = $2, description = $3, address = $4, city = $5, state = $6, postal_code = $7,
			category = $8, gender = $9, amenities = $10, rules = $11, is_active = $12,
			updated_at = NOW()
		WHERE property_id = $1
		RETURNING owner_id, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q,
		p.PropertyID, p.Name, p.Description, p.Address, p.City, p.State, p.PostalCode,
		string(p.Category), string(p.Gender), pq.Array(nonNil(p.Amenities)), pq.Array(nonNil(p.Rules)), p.IsActive,
	).Scan(&p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "property "+p.PropertyID)
}

// ---- rooms ----

const roomColumns = `
	r.room_id::text, r.property_id::text, r.name, r.category, r.capacity,
	r.price_per_bed, r.deposit, r.amenities, r.is_active, r.created_at, r.updated_at`

func scanRoom(row rowScanner) (*domain.Room, error) {
	var r domain.Room
	var category string
	err := row.Scan(
		&r.RoomID, &r.PropertyID, &r.Name, &category, &r.Capacity,
		&r.PricePerBed, &r.Deposit, pq.Array(&r.Amenities), &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Category = domain.RoomCategory(category)
	return &r, nil
}

func (t *pgTx) queryRooms(ctx context.Context, q string, args ...any) ([]*domain.Room, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "query rooms")
	}
	defer rows.Close()

	out := make([]*domain.Room, 0)
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, mapError(err, "scan room")
		}
		out = append(out, r)
	}
	return out, mapError(rows.Err(), "iterate rooms")
}

func (t *pgTx) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	if !isUUID(roomID) {
		return nil, notFound("room", roomID)
	}
	q := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.room_id = $1`
	r, err := scanRoom(t.tx.QueryRowContext(ctx, q, roomID))
	if err != nil {
		return nil, mapError(err, "room "+roomID)
	}
	return r, nil
}

func (t *pgTx) ListRooms(ctx context.Context, propertyID string, activeOnly bool) ([]*domain.Room, error) {
	if !isUUID(propertyID) {
		return []*domain.Room{}, nil
	}
	q := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.property_id = $1`
	if activeOnly {
		q += ` AND r.is_active = TRUE`
	}
	q += ` ORDER BY r.name, r.created_at`
	return t.queryRooms(ctx, q, propertyID)
}

func (t *pgTx) ListRoomsByOwner(ctx context.Context, ownerID string) ([]*domain.Room, error) {
	q := `
		SELECT ` + roomColumns + `
		FROM rooms r
		JOIN properties p ON p.property_id = r.property_id
		WHERE p.owner_id = $1
		ORDER BY r.created_at
	`
	return t.queryRooms(ctx, q, ownerID)
}

func (t *pgTx) CreateRoom(ctx context.Context, r *domain.Room) error {
	q := `
		INSERT INTO rooms (property_id, name, category, capacity, price_per_bed, deposit, amenities, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING room_id::text, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q,
		r.PropertyID, r.Name, string(r.Category), r.Capacity, r.PricePerBed, r.Deposit,
		pq.Array(nonNil(r.Amenities)), r.IsActive,
	).Scan(&r.RoomID, &r.CreatedAt, &r.UpdatedAt)
	return mapError(err, "insert room")
}

func (t *pgTx) UpdateRoom(ctx context.Context, r *domain.Room) error {
	if !isUUID(r.RoomID) {
		return notFound("room", r.RoomID)
	}
	q := `
		UPDATE rooms SET
			name = $2, category = $3, capacity = $4, price_per_bed = $5, deposit = $6,
			amenities = $7, is_active = $8, updated_at = NOW()
		WHERE room_id = $1
		RETURNING property_id::text, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q,
		r.RoomID, r.Name, string(r.Category), r.Capacity, r.PricePerBed, r.Deposit,
		pq.Array(nonNil(r.Amenities)), r.IsActive,
	).Scan(&r.PropertyID, &r.CreatedAt, &r.UpdatedAt)
	return mapError(err, "room "+r.RoomID)
}

// ---- beds ----

const bedColumns = `b.bed_id::text, b.room_id::text, b.label, b.is_occupied, b.created_at, b.updated_at`

func scanBed(row rowScanner) (*domain.Bed, error) {
	var b domain.Bed
	if err := row.Scan(&b.BedID, &b.RoomID, &b.Label, &b.IsOccupied, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *pgTx) queryBeds(ctx context.Context, q string, args ...any) ([]*domain.Bed, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "query beds")
	}
	defer rows.Close()

	out := make([]*domain.Bed, 0)
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, mapError(err, "scan bed")
		}
		out = append(out, b)
	}
	return out, mapError(rows.Err(), "iterate beds")
}

func (t *pgTx) GetBed(ctx context.Context, bedID string) (*domain.Bed, error) {
	if !isUUID(bedID) {
		return nil, notFound("bed", bedID)
	}
	q := `SELECT ` + bedColumns + ` FROM beds b WHERE b.bed_id = $1`
	b, err := scanBed(t.tx.QueryRowContext(ctx, q, bedID))
	if err != nil {
		return nil, mapError(err, "bed "+bedID)
	}
	return b, nil
}

func (t *pgTx) LockBed(ctx context.Context, bedID string) (*domain.Bed, error) {
	if !isUUID(bedID) {
		return nil, notFound("bed", bedID)
	}
	q := `SELECT ` + bedColumns + ` FROM beds b WHERE b.bed_id = $1 FOR UPDATE`
	b, err := scanBed(t.tx.QueryRowContext(ctx, q, bedID))
	if err != nil {
		return nil, mapError(err, "bed "+bedID)
	}
	return b, nil
}

func (t *pgTx) ListBeds(ctx context.Context, roomID string, availableOnly bool) ([]*domain.Bed, error) {
	if !isUUID(roomID) {
		return []*domain.Bed{}, nil
	}
	q := `SELECT ` + bedColumns + ` FROM beds b WHERE b.room_id = $1`
	if availableOnly {
		q += ` AND b.is_occupied = FALSE`
	}
	q += ` ORDER BY b.label COLLATE "C", b.bed_id`
	return t.queryBeds(ctx, q, roomID)
}

func (t *pgTx) ListBedsByOwner(ctx context.Context, ownerID string) ([]*domain.Bed, error) {
	q := `
		SELECT ` + bedColumns + `
		FROM beds b
		JOIN rooms r ON r.room_id = b.room_id
		JOIN properties p ON p.property_id = r.property_id
		WHERE p.owner_id = $1
		ORDER BY b.label COLLATE "C", b.bed_id
	`
	return t.queryBeds(ctx, q, ownerID)
}

func (t *pgTx) BedLabelTaken(ctx context.Context, roomID, label, excludeBedID string) (bool, error) {
	if !isUUID(roomID) {
		return false, nil
	}
	var taken bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM beds WHERE room_id = $1 AND label = $2 AND bed_id::text <> $3)`,
		roomID, label, excludeBedID,
	).Scan(&taken)
	if err != nil {
		return false, mapError(err, "check bed label")
	}
	return taken, nil
}

func (t *pgTx) CreateBed(ctx context.Context, b *domain.Bed) error {
	q := `
		INSERT INTO beds (room_id, label, is_occupied)
		VALUES ($1, $2, FALSE)
		RETURNING bed_id::text, is_occupied, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q, b.RoomID, b.Label).Scan(&b.BedID, &b.IsOccupied, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "insert bed")
}

func (t *pgTx) UpdateBed(ctx context.Context, b *domain.Bed) error {
	if !isUUID(b.BedID) {
		return notFound("bed", b.BedID)
	}
	q := `
		UPDATE beds SET label = $2, updated_at = NOW()
		WHERE bed_id = $1
		RETURNING room_id::text, is_occupied, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q, b.BedID, b.Label).Scan(&b.RoomID, &b.IsOccupied, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "bed "+b.BedID)
}

func (t *pgTx) SetBedOccupied(ctx context.Context, bedID string, occupied bool) error {
	if !isUUID(bedID) {
		return notFound("bed", bedID)
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE beds SET is_occupied = $2, updated_at = NOW() WHERE bed_id = $1`,
		bedID, occupied,
	)
	if err != nil {
		return mapError(err, "update bed occupancy")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "update bed occupancy")
	}
	if n == 0 {
		return notFound("bed", bedID)
	}
	return nil
}

// ---- bookings ----

const bookingColumns = `
	bk.booking_id::text, bk.customer_id, bk.property_id::text, bk.room_id::text, bk.bed_id::text,
	bk.start_date, bk.end_date, bk.monthly_rent, bk.deposit, bk.status, bk.notes, bk.created_at, bk.updated_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var bedID sql.NullString
	var endDate sql.NullTime
	var status string
	err := row.Scan(
		&b.BookingID, &b.CustomerID, &b.PropertyID, &b.RoomID, &bedID,
		&b.StartDate, &endDate, &b.MonthlyRent, &b.Deposit, &status, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bedID.Valid {
		b.BedID = &bedID.String
	}
	if endDate.Valid {
		b.EndDate = &endDate.Time
	}
	b.Status = domain.BookingStatus(status)
	return &b, nil
}

func (t *pgTx) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if !isUUID(bookingID) {
		return nil, notFound("booking", bookingID)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings bk WHERE bk.booking_id = $1`
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, bookingID))
	if err != nil {
		return nil, mapError(err, "booking "+bookingID)
	}
	return b, nil
}

func (t *pgTx) LockBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if !isUUID(bookingID) {
		return nil, notFound("booking", bookingID)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings bk WHERE bk.booking_id = $1 FOR UPDATE`
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, bookingID))
	if err != nil {
		return nil, mapError(err, "booking "+bookingID)
	}
	return b, nil
}

func (t *pgTx) ListBookings(ctx context.Context, f BookingFilter) ([]*domain.Booking, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CustomerID != "" {
		where = append(where, "bk.customer_id = "+arg(f.CustomerID))
	}
	if f.OwnerID != "" {
		where = append(where, "p.owner_id = "+arg(f.OwnerID))
	}
	if f.PropertyID != "" {
		if !isUUID(f.PropertyID) {
			return []*domain.Booking{}, nil
		}
		where = append(where, "bk.property_id = "+arg(f.PropertyID))
	}
	if f.Status != "" {
		where = append(where, "bk.status = "+arg(string(f.Status)))
	}

	q := `
		SELECT ` + bookingColumns + `
		FROM bookings bk
		JOIN properties p ON p.property_id = bk.property_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY bk.created_at DESC, bk.booking_id
	`
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err, "query bookings")
	}
	defer rows.Close()

	out := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError(err, "scan booking")
		}
		out = append(out, b)
	}
	return out, mapError(rows.Err(), "iterate bookings")
}

func (t *pgTx) CountBedClaims(ctx context.Context, bedID, excludeBookingID string) (int, error) {
	if !isUUID(bedID) {
		return 0, nil
	}
	var n int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE bed_id = $1 AND status IN ('confirmed', 'active') AND booking_id::text <> $2
	`, bedID, excludeBookingID).Scan(&n)
	if err != nil {
		return 0, mapError(err, "count bed claims")
	}
	return n, nil
}

func (t *pgTx) CreateBooking(ctx context.Context, b *domain.Booking) error {
	q := `
		INSERT INTO bookings (
			customer_id, property_id, room_id, bed_id, start_date, end_date,
			monthly_rent, deposit, status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING booking_id::text, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q,
		b.CustomerID, b.PropertyID, b.RoomID, nullableString(b.BedID), b.StartDate, nullableTime(b.EndDate),
		b.MonthlyRent, b.Deposit, string(b.Status), b.Notes,
	).Scan(&b.BookingID, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "insert booking")
}

func (t *pgTx) UpdateBooking(ctx context.Context, b *domain.Booking) error {
	if !isUUID(b.BookingID) {
		return notFound("booking", b.BookingID)
	}
	q := `
		UPDATE bookings SET
			bed_id = $2, start_date = $3, end_date = $4, monthly_rent = $5, deposit = $6,
			status = $7, notes = $8, updated_at = NOW()
		WHERE booking_id = $1
		RETURNING customer_id, property_id::text, room_id::text, created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, q,
		b.BookingID, nullableString(b.BedID), b.StartDate, nullableTime(b.EndDate),
		b.MonthlyRent, b.Deposit, string(b.Status), b.Notes,
	).Scan(&b.CustomerID, &b.PropertyID, &b.RoomID, &b.CreatedAt, &b.UpdatedAt)
	return mapError(err, "booking "+b.BookingID)
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
