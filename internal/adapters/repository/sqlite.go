package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cabina-live/cabina/internal/domain/model"
	"github.com/cabina-live/cabina/pkg/metrics"
)

// SQLiteStore implements Store and Directory on a local SQLite database.
// Messages are persisted as a JSON column inside the request row so the
// record keeps its document shape.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and initializes) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS event_requests (
			event_id TEXT NOT NULL,
			track_id TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			cover_url TEXT NOT NULL,
			preview_url TEXT NOT NULL,
			first_requested_at INTEGER NOT NULL,
			count INTEGER NOT NULL,
			messages TEXT NOT NULL,
			paid INTEGER NOT NULL,
			PRIMARY KEY (event_id, track_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_requests_event ON event_requests(event_id)`,

		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			venue TEXT NOT NULL,
			state TEXT NOT NULL,
			geofence TEXT,
			performer_id TEXT NOT NULL,
			accepts_requests INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS performers (
			id TEXT PRIMARY KEY,
			tier TEXT NOT NULL,
			prompt_for_payment INTEGER NOT NULL,
			payment_qr_url TEXT
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, eventID, trackID string) (model.AggregatedRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT event_id, track_id, title, artist, cover_url, preview_url,
		        first_requested_at, count, messages, paid
		 FROM event_requests WHERE event_id = ? AND track_id = ?`,
		eventID, trackID)
	return scanRequest(row)
}

func (s *SQLiteStore) Upsert(ctx context.Context, req model.AggregatedRequest) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	messages, err := json.Marshal(req.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_requests
		   (event_id, track_id, title, artist, cover_url, preview_url,
		    first_requested_at, count, messages, paid)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(event_id, track_id) DO UPDATE SET
		   count = excluded.count,
		   messages = excluded.messages,
		   paid = excluded.paid`,
		req.EventID, req.TrackID, req.Title, req.Artist, req.CoverURL, req.PreviewURL,
		req.FirstRequestedAt.UnixMilli(), req.Count, string(messages), boolToInt(req.Paid))
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert request: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]model.AggregatedRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, track_id, title, artist, cover_url, preview_url,
		        first_requested_at, count, messages, paid
		 FROM event_requests WHERE event_id = ?`,
		eventID)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []model.AggregatedRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_requests WHERE event_id = ?`, eventID).Scan(&n)
	if err != nil {
		metrics.RecordStoreError()
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_requests`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Event(ctx context.Context, eventID string) (model.Event, error) {
	var (
		ev       model.Event
		geofence sql.NullString
		accepts  int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, venue, state, geofence, performer_id, accepts_requests
		 FROM events WHERE id = ?`, eventID).
		Scan(&ev.ID, &ev.Name, &ev.Venue, &ev.State, &geofence, &ev.PerformerID, &accepts)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	ev.AcceptsRequests = accepts != 0
	if geofence.Valid && geofence.String != "" {
		var gf model.Geofence
		if err := json.Unmarshal([]byte(geofence.String), &gf); err != nil {
			return model.Event{}, fmt.Errorf("decode geofence: %w", err)
		}
		ev.Geofence = &gf
	}
	return ev, nil
}

func (s *SQLiteStore) Performer(ctx context.Context, performerID string) (model.Performer, error) {
	var (
		p      model.Performer
		prompt int
		qr     sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tier, prompt_for_payment, payment_qr_url FROM performers WHERE id = ?`,
		performerID).
		Scan(&p.ID, &p.Tier, &prompt, &qr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Performer{}, ErrNotFound
	}
	if err != nil {
		return model.Performer{}, fmt.Errorf("get performer: %w", err)
	}
	p.PromptForPayment = prompt != 0
	p.PaymentQRURL = qr.String
	return p, nil
}

func (s *SQLiteStore) SaveEvent(ctx context.Context, ev model.Event) error {
	var geofence interface{}
	if ev.Geofence != nil {
		raw, err := json.Marshal(ev.Geofence)
		if err != nil {
			return fmt.Errorf("encode geofence: %w", err)
		}
		geofence = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, venue, state, geofence, performer_id, accepts_requests)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   venue = excluded.venue,
		   state = excluded.state,
		   geofence = excluded.geofence,
		   performer_id = excluded.performer_id,
		   accepts_requests = excluded.accepts_requests`,
		ev.ID, ev.Name, ev.Venue, string(ev.State), geofence, ev.PerformerID, boolToInt(ev.AcceptsRequests))
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SavePerformer(ctx context.Context, p model.Performer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO performers (id, tier, prompt_for_payment, payment_qr_url)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   tier = excluded.tier,
		   prompt_for_payment = excluded.prompt_for_payment,
		   payment_qr_url = excluded.payment_qr_url`,
		p.ID, string(p.Tier), boolToInt(p.PromptForPayment), p.PaymentQRURL)
	if err != nil {
		return fmt.Errorf("save performer: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (model.AggregatedRequest, error) {
	var (
		req      model.AggregatedRequest
		firstAt  int64
		messages string
		paid     int
	)
	err := row.Scan(&req.EventID, &req.TrackID, &req.Title, &req.Artist,
		&req.CoverURL, &req.PreviewURL, &firstAt, &req.Count, &messages, &paid)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AggregatedRequest{}, ErrNotFound
	}
	if err != nil {
		return model.AggregatedRequest{}, fmt.Errorf("scan request: %w", err)
	}

	req.FirstRequestedAt = time.UnixMilli(firstAt).UTC()
	req.Paid = paid != 0
	if messages != "" && messages != "null" {
		if err := json.Unmarshal([]byte(messages), &req.Messages); err != nil {
			return model.AggregatedRequest{}, fmt.Errorf("decode messages: %w", err)
		}
	}
	return req, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
