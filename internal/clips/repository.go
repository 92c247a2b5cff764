package clips

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ytclipper/clipper-agent/internal/clipper"
)

type Repository interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	CountJobsByStatus(ctx context.Context, status string) (int, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobPhase(ctx context.Context, id string, phase clipper.Phase) error
	CompleteJob(ctx context.Context, id string, result *clipper.Result) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = `id, video_id, url, start_time, end_time, status, phase, error, command, output_path, title, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.VideoID, j.URL, j.StartTime, j.EndTime, j.Status, string(j.Phase),
		nullString(j.Error), nullString(j.Command), nullString(j.OutputPath), nullString(j.Title),
		formatTime(j.CreatedAt), formatTime(j.UpdatedAt))
	return err
}

// GetJob returns nil, nil when no job has the id.
func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) CountJobsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE status = ?", status).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	query := `UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	if status == JobStatusFailed {
		query = `UPDATE jobs SET status = ?, error = ?, phase = 'failed', updated_at = ? WHERE id = ?`
	}
	_, err := r.db.ExecContext(ctx, query, status, nullString(errorMsg), formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) UpdateJobPhase(ctx context.Context, id string, phase clipper.Phase) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET phase = ?, updated_at = ? WHERE id = ?
	`, string(phase), formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) CompleteJob(ctx context.Context, id string, res *clipper.Result) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, phase = ?, error = NULL, command = ?, output_path = ?, title = ?, updated_at = ?
		WHERE id = ?
	`, JobStatusCompleted, string(clipper.PhaseDone), res.CommandLine, res.OutputPath, nullString(res.Title),
		formatTime(time.Now()), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var phase string
	var errMsg, command, outputPath, title sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.VideoID, &j.URL, &j.StartTime, &j.EndTime, &j.Status, &phase,
		&errMsg, &command, &outputPath, &title, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	j.Phase = clipper.Phase(phase)
	j.Error = errMsg.String
	j.Command = command.String
	j.OutputPath = outputPath.String
	j.Title = title.String
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
