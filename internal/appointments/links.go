package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Link records that one appointment replaced another on reschedule.
type Link struct {
	ID            uuid.UUID `json:"id"`
	ClinicID      int64     `json:"clinic_id"`
	OriginalID    int64     `json:"original_id"`
	ReplacementID int64     `json:"replacement_id"`
	FormerStart   time.Time `json:"former_start"`
	NewStart      time.Time `json:"new_start"`
	RescheduledBy int64     `json:"rescheduled_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// LinkStore persists reschedule links. The backend has no notion of them.
type LinkStore struct {
	db DB
}

// NewLinkStore creates a new link store.
func NewLinkStore(db DB) *LinkStore {
	return &LinkStore{db: db}
}

// Record inserts a link.
func (s *LinkStore) Record(ctx context.Context, l *Link) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO reschedule_links (id, clinic_id, original_id, replacement_id, former_start, new_start, rescheduled_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.ClinicID, l.OriginalID, l.ReplacementID, l.FormerStart, l.NewStart, l.RescheduledBy, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: record reschedule link: %w", err)
	}
	return nil
}

// ListByAppointment returns every link touching appointmentID, oldest first.
func (s *LinkStore) ListByAppointment(ctx context.Context, appointmentID int64) ([]Link, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, clinic_id, original_id, replacement_id, former_start, new_start, rescheduled_by, created_at
		FROM reschedule_links
		WHERE original_id = $1 OR replacement_id = $1
		ORDER BY created_at ASC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list reschedule links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.ClinicID, &l.OriginalID, &l.ReplacementID, &l.FormerStart, &l.NewStart, &l.RescheduledBy, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("appointments: scan reschedule link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list reschedule links: %w", err)
	}
	return links, nil
}
