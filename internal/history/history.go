package history

import (
	"database/sql"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Run is one recorded benchmark run.
type Run struct {
	ID           string    `json:"id"`
	Project      string    `json:"project"`
	RTSTool      string    `json:"rts_tool"`
	StartedAt    time.Time `json:"started_at"`
	BuildSpeedup float64   `json:"build_speedup"`
	TestSpeedup  float64   `json:"test_speedup"`
	NumPovs      int       `json:"num_povs"`
	SummaryPath  string    `json:"summary_path"`
}

// Store keeps past benchmark runs in a SQLite database below the log
// directory, so `report history` can compare runs across invocations.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	rts_tool TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	build_speedup REAL NOT NULL,
	test_speedup REAL NOT NULL,
	num_povs INT NOT NULL,
	summary_path TEXT NOT NULL
);
`

// Open opens (and creates if needed) the history database at
// <logDir>/history.db.
func Open(logDir string) (*Store, error) {
	path := filepath.Join(logDir, "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return errors.WithStack(s.db.Close())
}

// Record inserts the run. An empty ID is filled in with a fresh ULID,
// which also makes IDs sort chronologically.
func (s *Store) Record(run *Run) error {
	if run.ID == "" {
		entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
		run.ID = ulid.MustNew(ulid.Timestamp(run.StartedAt), entropy).String()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, project, rts_tool, started_at, build_speedup, test_speedup, num_povs, summary_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Project, run.RTSTool, run.StartedAt.UTC().Format(time.RFC3339),
		run.BuildSpeedup, run.TestSpeedup, run.NumPovs, run.SummaryPath)
	return errors.WithStack(err)
}

// List returns recorded runs, newest first. An empty project matches
// all projects, limit <= 0 means no limit.
func (s *Store) List(project string, limit int) ([]*Run, error) {
	query := `SELECT id, project, rts_tool, started_at, build_speedup, test_speedup, num_povs, summary_path
		 FROM runs`
	var args []any
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var startedAt string
		err = rows.Scan(&run.ID, &run.Project, &run.RTSTool, &startedAt,
			&run.BuildSpeedup, &run.TestSpeedup, &run.NumPovs, &run.SummaryPath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		runs = append(runs, run)
	}
	return runs, errors.WithStack(rows.Err())
}
