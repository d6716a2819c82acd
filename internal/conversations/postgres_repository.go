package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxDB is the pool surface the repository uses. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores conversation records in Postgres.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db pgxDB) *PostgresRepository {
	if db == nil {
		panic("conversations: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const recordColumns = `conversation_id, name, email, company, phone, interest_level,
		budget_range, timeline, specific_interest, page_section,
		call_duration_secs, main_language, call_successful, transcript, created_at`

// Create inserts a new record. Conversation completion webhooks can be
// redelivered, so a duplicate conversation_id updates the existing row.
func (r *PostgresRepository) Create(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return fmt.Errorf("conversations: marshal transcript: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO conversations (conversation_id, name, email, company, phone,
			interest_level, budget_range, timeline, specific_interest, page_section,
			call_duration_secs, main_language, call_successful, transcript, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (conversation_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			company = EXCLUDED.company,
			phone = EXCLUDED.phone,
			interest_level = EXCLUDED.interest_level,
			budget_range = EXCLUDED.budget_range,
			timeline = EXCLUDED.timeline,
			specific_interest = EXCLUDED.specific_interest,
			page_section = EXCLUDED.page_section,
			call_duration_secs = EXCLUDED.call_duration_secs,
			main_language = EXCLUDED.main_language,
			call_successful = EXCLUDED.call_successful,
			transcript = EXCLUDED.transcript
	`
	if _, err := r.db.Exec(ctx, query,
		rec.ConversationID,
		rec.Name,
		rec.Email,
		rec.Company,
		rec.Phone,
		rec.InterestLevel,
		rec.BudgetRange,
		rec.Timeline,
		rec.SpecificInterest,
		rec.PageSection,
		rec.CallDurationSecs,
		rec.MainLanguage,
		rec.CallSuccessful,
		transcript,
		createdAt,
	); err != nil {
		return fmt.Errorf("conversations: insert failed: %w", err)
	}
	return nil
}

// List returns records matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*Record, error) {
	query := "SELECT " + recordColumns + " FROM conversations WHERE 1=1"
	args := []any{}
	argNum := 1

	if f.PageSection != "" {
		query += " AND page_section = $" + strconv.Itoa(argNum)
		args = append(args, f.PageSection)
		argNum++
	}
	if f.InterestLevel != "" {
		query += " AND interest_level = $" + strconv.Itoa(argNum)
		args = append(args, f.InterestLevel)
		argNum++
	}
	if f.HasEmail != nil {
		if *f.HasEmail {
			query += " AND email <> ''"
		} else {
			query += " AND email = ''"
		}
	}
	if f.DateFrom != nil {
		query += " AND created_at >= $" + strconv.Itoa(argNum)
		args = append(args, *f.DateFrom)
		argNum++
	}
	if f.DateTo != nil {
		query += " AND created_at < $" + strconv.Itoa(argNum)
		args = append(args, *f.DateTo)
		argNum++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(argNum) + " OFFSET $" + strconv.Itoa(argNum+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversations: list failed: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversations: list rows: %w", err)
	}
	return records, nil
}

// GetByID fetches one record by its natural key.
func (r *PostgresRepository) GetByID(ctx context.Context, conversationID string) (*Record, error) {
	query := "SELECT " + recordColumns + " FROM conversations WHERE conversation_id = $1"
	rec, err := scanRecord(r.db.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var transcript []byte
	if err := row.Scan(
		&rec.ConversationID,
		&rec.Name,
		&rec.Email,
		&rec.Company,
		&rec.Phone,
		&rec.InterestLevel,
		&rec.BudgetRange,
		&rec.Timeline,
		&rec.SpecificInterest,
		&rec.PageSection,
		&rec.CallDurationSecs,
		&rec.MainLanguage,
		&rec.CallSuccessful,
		&transcript,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("conversations: scan failed: %w", err)
	}
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &rec.Transcript); err != nil {
			return nil, fmt.Errorf("conversations: unmarshal transcript: %w", err)
		}
	}
	return &rec, nil
}

// Summarize aggregates records in the optional date range with SQL.
func (r *PostgresRepository) Summarize(ctx context.Context, from, to *time.Time) (*Summary, error) {
	where := " WHERE 1=1"
	args := []any{}
	argNum := 1
	if from != nil {
		where += " AND created_at >= $" + strconv.Itoa(argNum)
		args = append(args, *from)
		argNum++
	}
	if to != nil {
		where += " AND created_at < $" + strconv.Itoa(argNum)
		args = append(args, *to)
		argNum++
	}

	s := &Summary{
		BySection:       make(map[string]int),
		ByInterestLevel: make(map[string]int),
	}

	totalsQuery := `
		SELECT COUNT(*),
			   COUNT(*) FILTER (WHERE email <> ''),
			   COALESCE(AVG(call_duration_secs), 0),
			   COUNT(*) FILTER (WHERE interest_level = 'high')
		FROM conversations` + where
	if err := r.db.QueryRow(ctx, totalsQuery, args...).Scan(
		&s.TotalConversations,
		&s.WithEmail,
		&s.AvgCallDurationSecs,
		&s.HighInterestLeads,
	); err != nil {
		return nil, fmt.Errorf("conversations: summarize totals: %w", err)
	}
	if s.TotalConversations > 0 {
		s.EmailCollectionRate = float64(s.WithEmail) / float64(s.TotalConversations)
	}

	sectionQuery := `
		SELECT COALESCE(NULLIF(page_section, ''), 'unknown'), COUNT(*)
		FROM conversations` + where + `
		GROUP BY 1`
	if err := r.scanBuckets(ctx, sectionQuery, args, s.BySection); err != nil {
		return nil, err
	}

	interestQuery := `
		SELECT COALESCE(NULLIF(interest_level, ''), 'unknown'), COUNT(*)
		FROM conversations` + where + `
		GROUP BY 1`
	if err := r.scanBuckets(ctx, interestQuery, args, s.ByInterestLevel); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *PostgresRepository) scanBuckets(ctx context.Context, query string, args []any, dest map[string]int) error {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("conversations: summarize buckets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bucket string
		var count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return fmt.Errorf("conversations: summarize scan: %w", err)
		}
		dest[bucket] = count
	}
	return rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
