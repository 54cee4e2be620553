// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/equity-engine/pkg/types"
)

const dbFile = "engine.db"

// currentProfileKey is the settings row holding the current-profile pointer.
const currentProfileKey = "current_profile"

// Store owns the engine SQLite database and hands out the repositories
// backed by it. Research results and parameters are stored as JSON columns;
// timestamps as RFC 3339 strings.
type Store struct {
	db       *sql.DB
	research *SQLiteResearch
	profiles *SQLiteProfiles
}

// Open opens or creates the engine database at dir/engine.db and creates
// the schema if it does not exist. Per prd001-research-lifecycle R6.1.
func Open(cfg types.StorageConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = ".equity-engine"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	s.research = &SQLiteResearch{db: db}
	s.profiles = &SQLiteProfiles{db: db}
	return s, nil
}

// Research returns the research repository backed by this store.
func (s *Store) Research() *SQLiteResearch { return s.research }

// Profiles returns the profile repository backed by this store.
func (s *Store) Profiles() *SQLiteProfiles { return s.profiles }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS researches (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			question TEXT,
			workflow TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			profile_id TEXT,
			status TEXT NOT NULL,
			parameters TEXT,
			result TEXT,
			error_message TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_researches_status ON researches(status)`,
		`CREATE INDEX IF NOT EXISTS idx_researches_symbol ON researches(symbol)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			literacy TEXT NOT NULL,
			preferences TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SQLiteResearch is the SQLite-backed ResearchRepo.
type SQLiteResearch struct {
	db *sql.DB
}

func (r *SQLiteResearch) Save(ctx context.Context, res *types.Research) error {
	if res.ID == "" {
		return types.NewError(types.KindValidation, "repo.SQLiteResearch.Save", "research has no id")
	}
	paramsJSON, err := marshalJSONColumn(res.Parameters)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	resultJSON, err := marshalJSONColumn(res.Result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO researches (id, symbol, question, workflow, timeframe, profile_id, status,
			parameters, result, error_message, created_at, updated_at, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			symbol=excluded.symbol, question=excluded.question, workflow=excluded.workflow,
			timeframe=excluded.timeframe, profile_id=excluded.profile_id, status=excluded.status,
			parameters=excluded.parameters, result=excluded.result, error_message=excluded.error_message,
			updated_at=excluded.updated_at, started_at=excluded.started_at, completed_at=excluded.completed_at`,
		res.ID, res.Symbol, res.Question, string(res.Workflow), string(res.Timeframe),
		res.ProfileID, string(res.Status), paramsJSON, resultJSON, res.ErrorMessage,
		formatTime(res.CreatedAt), formatTime(res.UpdatedAt),
		formatTime(res.StartedAt), formatTime(res.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting research %s: %w", res.ID, err)
	}
	return nil
}

func (r *SQLiteResearch) Get(ctx context.Context, id string) (*types.Research, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, symbol, question, workflow, timeframe, profile_id, status,
			parameters, result, error_message, created_at, updated_at, started_at, completed_at
		 FROM researches WHERE id = ?`, id)
	res, err := scanResearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(types.KindNotFound, "repo.SQLiteResearch.Get", fmt.Sprintf("research %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading research %s: %w", id, err)
	}
	return res, nil
}

func (r *SQLiteResearch) List(ctx context.Context, f ResearchFilter) ([]*types.Research, error) {
	query := `SELECT id, symbol, question, workflow, timeframe, profile_id, status,
		parameters, result, error_message, created_at, updated_at, started_at, completed_at
		FROM researches`
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing researches: %w", err)
	}
	defer rows.Close()

	var out []*types.Research
	for rows.Next() {
		res, err := scanResearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning research: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Stored timestamps are RFC 3339 strings whose lexicographic order
	// diverges from chronological order inside a second, so sort here.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SQLiteResearch) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM researches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting research %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.NewError(types.KindNotFound, "repo.SQLiteResearch.Delete", fmt.Sprintf("research %s not found", id))
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanResearch(sc scanner) (*types.Research, error) {
	var res types.Research
	var workflow, timeframe, status string
	var params, result sql.NullString
	var created, updated, started, completed string

	err := sc.Scan(&res.ID, &res.Symbol, &res.Question, &workflow, &timeframe,
		&res.ProfileID, &status, &params, &result, &res.ErrorMessage,
		&created, &updated, &started, &completed)
	if err != nil {
		return nil, err
	}
	res.Workflow = types.WorkflowType(workflow)
	res.Timeframe = types.Timeframe(timeframe)
	res.Status = types.ResearchStatus(status)
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &res.Parameters); err != nil {
			return nil, fmt.Errorf("decoding parameters: %w", err)
		}
	}
	if result.Valid && result.String != "" {
		if err := json.Unmarshal([]byte(result.String), &res.Result); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
	}
	if res.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if res.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if res.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if res.CompletedAt, err = parseTime(completed); err != nil {
		return nil, err
	}
	return &res, nil
}

// SQLiteProfiles is the SQLite-backed ProfileRepo.
type SQLiteProfiles struct {
	db *sql.DB
}

func (p *SQLiteProfiles) Save(ctx context.Context, prof *types.ResearchProfile) error {
	if prof.ID == "" {
		return types.NewError(types.KindValidation, "repo.SQLiteProfiles.Save", "profile has no id")
	}
	prefsJSON, err := marshalJSONColumn(prof.Preferences)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO profiles (id, display_name, literacy, preferences, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			display_name=excluded.display_name, literacy=excluded.literacy,
			preferences=excluded.preferences, updated_at=excluded.updated_at`,
		prof.ID, prof.DisplayName, string(prof.Literacy), prefsJSON,
		formatTime(prof.CreatedAt), formatTime(prof.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting profile %s: %w", prof.ID, err)
	}
	return nil
}

func (p *SQLiteProfiles) Get(ctx context.Context, id string) (*types.ResearchProfile, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, display_name, literacy, preferences, created_at, updated_at
		 FROM profiles WHERE id = ?`, id)
	prof, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(types.KindNotFound, "repo.SQLiteProfiles.Get", fmt.Sprintf("profile %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", id, err)
	}
	return prof, nil
}

func (p *SQLiteProfiles) List(ctx context.Context) ([]*types.ResearchProfile, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, display_name, literacy, preferences, created_at, updated_at
		 FROM profiles ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []*types.ResearchProfile
	for rows.Next() {
		prof, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, prof)
	}
	return out, rows.Err()
}

func (p *SQLiteProfiles) Delete(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return types.NewError(types.KindNotFound, "repo.SQLiteProfiles.Delete", fmt.Sprintf("profile %s not found", id))
	}
	// Clear a dangling current pointer.
	_, err = p.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ? AND value = ?`, currentProfileKey, id)
	if err != nil {
		return fmt.Errorf("clearing current profile pointer: %w", err)
	}
	return nil
}

func (p *SQLiteProfiles) SetCurrent(ctx context.Context, id string) error {
	if _, err := p.Get(ctx, id); err != nil {
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		currentProfileKey, id)
	if err != nil {
		return fmt.Errorf("setting current profile: %w", err)
	}
	return nil
}

func (p *SQLiteProfiles) Current(ctx context.Context) (*types.ResearchProfile, error) {
	var id string
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, currentProfileKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(types.KindNotFound, "repo.SQLiteProfiles.Current", "no current profile set")
	}
	if err != nil {
		return nil, fmt.Errorf("reading current profile pointer: %w", err)
	}
	return p.Get(ctx, id)
}

func scanProfile(sc scanner) (*types.ResearchProfile, error) {
	var prof types.ResearchProfile
	var literacy string
	var prefs sql.NullString
	var created, updated string

	err := sc.Scan(&prof.ID, &prof.DisplayName, &literacy, &prefs, &created, &updated)
	if err != nil {
		return nil, err
	}
	prof.Literacy = types.Literacy(literacy)
	if prefs.Valid && prefs.String != "" {
		if err := json.Unmarshal([]byte(prefs.String), &prof.Preferences); err != nil {
			return nil, fmt.Errorf("decoding preferences: %w", err)
		}
	}
	if prof.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if prof.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &prof, nil
}

// marshalJSONColumn encodes a value for a nullable JSON text column. Nil
// values become the empty string.
func marshalJSONColumn(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case *types.WorkflowResult:
		if val == nil {
			return "", nil
		}
	case map[string]any:
		if val == nil {
			return "", nil
		}
	case map[string]string:
		if val == nil {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}
