package storage

import (
	"database/sql"
	"fmt"
	"log"
	"time"
	"toonreel/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Storage is the local journal of pipeline runs.
type Storage struct {
	db *sql.DB
}

func New(databasePath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &Storage{db: db}
	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return storage, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initDB() error {
	query := `
    CREATE TABLE IF NOT EXISTS runs (
        id TEXT PRIMARY KEY,
        character TEXT NOT NULL,
        image_url TEXT,
        search_provider TEXT,
        prompt TEXT,
        prompt_source TEXT,
        video_endpoint TEXT,
        video_path TEXT,
        status TEXT NOT NULL,
        error TEXT,
        started_at INTEGER NOT NULL,
        finished_at INTEGER
    );`
	_, err := s.db.Exec(query)
	return err
}

// StartRun records a run as soon as its id and character are known.
func (s *Storage) StartRun(run *models.Run) error {
	query := `INSERT INTO runs (id, character, status, started_at) VALUES (?, ?, ?, ?);`
	if _, err := s.db.Exec(query, run.ID, run.Character, run.Status, run.StartedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to record start of run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the final state of a run.
func (s *Storage) FinishRun(run *models.Run) error {
	query := `
    UPDATE runs SET image_url = ?, search_provider = ?, prompt = ?, prompt_source = ?,
        video_endpoint = ?, video_path = ?, status = ?, error = ?, finished_at = ?
    WHERE id = ?;`

	res, err := s.db.Exec(query,
		run.ImageURL,
		run.SearchProvider,
		run.Prompt,
		run.PromptSource,
		run.VideoEndpoint,
		run.VideoPath,
		run.Status,
		run.Error,
		run.FinishedAt.UnixMilli(),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to record end of run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s was never started", run.ID)
	}
	log.Printf("Run %s saved to DB. Status: %s", run.ID, run.Status)
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Storage) RecentRuns(limit int) ([]models.Run, error) {
	query := `
    SELECT id, character, image_url, search_provider, prompt, prompt_source,
        video_endpoint, video_path, status, error, started_at, finished_at
    FROM runs ORDER BY started_at DESC LIMIT ?;`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var imageURL, provider, prompt, promptSource, endpoint, videoPath, runErr sql.NullString
		var startedAt int64
		var finishedAt sql.NullInt64

		if err := rows.Scan(&run.ID, &run.Character, &imageURL, &provider, &prompt, &promptSource,
			&endpoint, &videoPath, &run.Status, &runErr, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.ImageURL = imageURL.String
		run.SearchProvider = provider.String
		run.Prompt = prompt.String
		run.PromptSource = promptSource.String
		run.VideoEndpoint = endpoint.String
		run.VideoPath = videoPath.String
		run.Error = runErr.String
		run.StartedAt = time.UnixMilli(startedAt).UTC()
		if finishedAt.Valid {
			run.FinishedAt = time.UnixMilli(finishedAt.Int64).UTC()
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
