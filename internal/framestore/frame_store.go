package framestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mitchmindtree/laser-frame/internal/laser"
)

// ErrNotFound is returned when a frame lookup misses.
var ErrNotFound = fmt.Errorf("not found")

// FrameRecord is a stored frame: a named, persistent point list that
// can be submitted to the streamer by ID.
type FrameRecord struct {
	FrameID     string        `json:"frame_id"`
	Name        string        `json:"name,omitempty"`
	Points      []laser.Point `json:"points"`
	PointCount  int           `json:"point_count"`
	CreatedAtNs int64         `json:"created_at_ns"`
	UpdatedAtNs *int64        `json:"updated_at_ns,omitempty"`
}

// Submission records one frame handed to the streamer, whether it came
// from the store or was posted inline.
type Submission struct {
	SubmissionID  string `json:"submission_id"`
	FrameID       string `json:"frame_id,omitempty"` // empty for inline submissions
	Source        string `json:"source"`
	PointCount    int    `json:"point_count"`
	SubmittedAtNs int64  `json:"submitted_at_ns"`
}

// FrameStore provides persistence for frames and submission history.
type FrameStore struct {
	db *sql.DB
}

// NewFrameStore creates a new FrameStore.
func NewFrameStore(db *sql.DB) *FrameStore {
	return &FrameStore{db: db}
}

// InsertFrame creates a new frame in the database.
// If frame.FrameID is empty, a new UUID is generated.
func (s *FrameStore) InsertFrame(frame *FrameRecord) error {
	if frame.FrameID == "" {
		frame.FrameID = uuid.New().String()
	}
	if frame.CreatedAtNs == 0 {
		frame.CreatedAtNs = time.Now().UnixNano()
	}
	frame.PointCount = len(frame.Points)

	pointsJSON, err := json.Marshal(frame.Points)
	if err != nil {
		return fmt.Errorf("marshal frame points: %w", err)
	}

	query := `
		INSERT INTO frames (
			frame_id, name, points_json, point_count,
			created_at_ns, updated_at_ns
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		frame.FrameID,
		nullString(frame.Name),
		string(pointsJSON),
		frame.PointCount,
		frame.CreatedAtNs,
		nullInt64(frame.UpdatedAtNs),
	)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}

	return nil
}

// GetFrame retrieves a frame by ID, including its points.
func (s *FrameStore) GetFrame(frameID string) (*FrameRecord, error) {
	query := `
		SELECT frame_id, name, points_json, point_count,
		       created_at_ns, updated_at_ns
		FROM frames
		WHERE frame_id = ?
	`

	var frame FrameRecord
	var name sql.NullString
	var pointsJSON string
	var updatedAtNs sql.NullInt64

	err := s.db.QueryRow(query, frameID).Scan(
		&frame.FrameID,
		&name,
		&pointsJSON,
		&frame.PointCount,
		&frame.CreatedAtNs,
		&updatedAtNs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("frame %s: %w", frameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get frame: %w", err)
	}

	// Map nullable fields
	if name.Valid {
		frame.Name = name.String
	}
	if updatedAtNs.Valid {
		v := updatedAtNs.Int64
		frame.UpdatedAtNs = &v
	}

	if err := json.Unmarshal([]byte(pointsJSON), &frame.Points); err != nil {
		return nil, fmt.Errorf("unmarshal frame points: %w", err)
	}

	return &frame, nil
}

// ListFrames retrieves frame metadata newest first, without point
// data. A non-positive limit applies a default of 100.
func (s *FrameStore) ListFrames(limit int) ([]*FrameRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT frame_id, name, point_count, created_at_ns, updated_at_ns
		FROM frames
		ORDER BY created_at_ns DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var frames []*FrameRecord
	for rows.Next() {
		var frame FrameRecord
		var name sql.NullString
		var updatedAtNs sql.NullInt64

		err := rows.Scan(
			&frame.FrameID,
			&name,
			&frame.PointCount,
			&frame.CreatedAtNs,
			&updatedAtNs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan frame row: %w", err)
		}

		if name.Valid {
			frame.Name = name.String
		}
		if updatedAtNs.Valid {
			v := updatedAtNs.Int64
			frame.UpdatedAtNs = &v
		}

		frames = append(frames, &frame)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list frames rows: %w", err)
	}

	return frames, nil
}

// UpdateFrame replaces a frame's name and points.
func (s *FrameStore) UpdateFrame(frame *FrameRecord) error {
	frame.UpdatedAtNs = new(int64)
	*frame.UpdatedAtNs = time.Now().UnixNano()
	frame.PointCount = len(frame.Points)

	pointsJSON, err := json.Marshal(frame.Points)
	if err != nil {
		return fmt.Errorf("marshal frame points: %w", err)
	}

	query := `
		UPDATE frames
		SET name = ?,
		    points_json = ?,
		    point_count = ?,
		    updated_at_ns = ?
		WHERE frame_id = ?
	`

	result, err := s.db.Exec(query,
		nullString(frame.Name),
		string(pointsJSON),
		frame.PointCount,
		frame.UpdatedAtNs,
		frame.FrameID,
	)
	if err != nil {
		return fmt.Errorf("update frame: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("frame %s: %w", frame.FrameID, ErrNotFound)
	}

	return nil
}

// DeleteFrame deletes a frame by ID. Submission history referencing
// the frame is kept.
func (s *FrameStore) DeleteFrame(frameID string) error {
	// Detach submissions first so the foreign key does not block the delete.
	if _, err := s.db.Exec(`UPDATE submissions SET frame_id = NULL WHERE frame_id = ?`, frameID); err != nil {
		return fmt.Errorf("detach submissions: %w", err)
	}

	result, err := s.db.Exec(`DELETE FROM frames WHERE frame_id = ?`, frameID)
	if err != nil {
		return fmt.Errorf("delete frame: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("frame %s: %w", frameID, ErrNotFound)
	}

	return nil
}

// RecordSubmission logs a frame handed to the streamer.
// If sub.SubmissionID is empty, a new UUID is generated.
func (s *FrameStore) RecordSubmission(sub *Submission) error {
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.New().String()
	}
	if sub.SubmittedAtNs == 0 {
		sub.SubmittedAtNs = time.Now().UnixNano()
	}

	query := `
		INSERT INTO submissions (
			submission_id, frame_id, source, point_count, submitted_at_ns
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		sub.SubmissionID,
		nullString(sub.FrameID),
		sub.Source,
		sub.PointCount,
		sub.SubmittedAtNs,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	return nil
}

// ListSubmissions retrieves submissions newest first. A non-positive
// limit applies a default of 100.
func (s *FrameStore) ListSubmissions(limit int) ([]*Submission, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT submission_id, frame_id, source, point_count, submitted_at_ns
		FROM submissions
		ORDER BY submitted_at_ns DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		var sub Submission
		var frameID sql.NullString

		err := rows.Scan(
			&sub.SubmissionID,
			&frameID,
			&sub.Source,
			&sub.PointCount,
			&sub.SubmittedAtNs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}

		if frameID.Valid {
			sub.FrameID = frameID.String
		}

		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions rows: %w", err)
	}

	return subs, nil
}

// CountSubmissions returns the total number of submission records.
func (s *FrameStore) CountSubmissions() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// Helper functions for nullable values

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}
