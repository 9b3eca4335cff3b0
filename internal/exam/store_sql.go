package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type SQLProgressStore struct {
	db *sql.DB
}

func NewSQLProgressStore(db *sql.DB) *SQLProgressStore { return &SQLProgressStore{db: db} }

func (s *SQLProgressStore) GetResume(ctx context.Context, key Key) (ResumeRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT coding_ids_json, coding_status, mcq_ids_json, mcq_status
		FROM resume_state
		WHERE student_id=$1 AND course_id=$2 AND unit_id=$3 AND sub_unit_id=$4`,
		key.StudentID, key.CourseID, key.UnitID, key.SubUnitID)

	var codingJSON, mcqJSON string
	rec := ResumeRecord{Key: key}
	if err := row.Scan(&codingJSON, &rec.CodingStatus, &mcqJSON, &rec.MCQStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResumeRecord{}, false, nil
		}
		return ResumeRecord{}, false, err
	}
	if err := json.Unmarshal([]byte(codingJSON), &rec.CodingIDs); err != nil {
		return ResumeRecord{}, false, fmt.Errorf("decode coding ids: %w", err)
	}
	if err := json.Unmarshal([]byte(mcqJSON), &rec.MCQIDs); err != nil {
		return ResumeRecord{}, false, fmt.Errorf("decode mcq ids: %w", err)
	}
	return rec, true, nil
}

func (s *SQLProgressStore) SetResumeTrack(ctx context.Context, key Key, track Track, ids []string, status TrackStatus) error {
	if ids == nil {
		ids = []string{}
	}
	buf, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	// Column pair depends on the track; the upsert leaves the other track's
	// columns as they are.
	var q string
	switch track {
	case TrackCoding:
		q = `INSERT INTO resume_state (student_id, course_id, unit_id, sub_unit_id, coding_ids_json, coding_status)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (student_id, course_id, unit_id, sub_unit_id)
			DO UPDATE SET coding_ids_json=EXCLUDED.coding_ids_json, coding_status=EXCLUDED.coding_status`
	case TrackMCQ:
		q = `INSERT INTO resume_state (student_id, course_id, unit_id, sub_unit_id, mcq_ids_json, mcq_status)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (student_id, course_id, unit_id, sub_unit_id)
			DO UPDATE SET mcq_ids_json=EXCLUDED.mcq_ids_json, mcq_status=EXCLUDED.mcq_status`
	default:
		return fmt.Errorf("unknown track: %s", track)
	}
	_, err = s.db.ExecContext(ctx, q,
		key.StudentID, key.CourseID, key.UnitID, key.SubUnitID, string(buf), string(status))
	return err
}

func (s *SQLProgressStore) UpsertSubmission(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO submissions
		(student_id, course_id, unit_id, sub_unit_id, question_id, code, language_id, status, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (student_id, course_id, unit_id, sub_unit_id, question_id)
		DO UPDATE SET code=EXCLUDED.code, language_id=EXCLUDED.language_id,
			status=EXCLUDED.status, submitted_at=EXCLUDED.submitted_at`,
		sub.StudentID, sub.CourseID, sub.UnitID, sub.SubUnitID, sub.QuestionID,
		sub.Code, sub.LanguageID, string(sub.Status), sub.SubmittedAt)
	return err
}

func (s *SQLProgressStore) GetSubmission(ctx context.Context, key Key, questionID string) (Submission, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT code, language_id, status, submitted_at
		FROM submissions
		WHERE student_id=$1 AND course_id=$2 AND unit_id=$3 AND sub_unit_id=$4 AND question_id=$5`,
		key.StudentID, key.CourseID, key.UnitID, key.SubUnitID, questionID)

	sub := Submission{Key: key, QuestionID: questionID}
	if err := row.Scan(&sub.Code, &sub.LanguageID, &sub.Status, &sub.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, false, nil
		}
		return Submission{}, false, err
	}
	return sub, true, nil
}

// ReplaceResult enforces at-most-one row per natural key by deleting before
// inserting; the table carries no unique constraint on that key. Both steps
// run in one transaction so a failed insert cannot leave the key empty.
func (s *SQLProgressStore) ReplaceResult(ctx context.Context, r Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results
		WHERE university_id=$1 AND student_id=$2 AND course_id=$3 AND unit_id=$4 AND sub_unit_id=$5 AND result_type=$6`,
		r.UniversityID, r.StudentID, r.CourseID, r.UnitID, r.SubUnitID, string(r.ResultType)); err != nil {
		return fmt.Errorf("delete prior result: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO results
		(university_id, student_id, course_id, unit_id, sub_unit_id, result_type, marks_obtained, total_marks, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.UniversityID, r.StudentID, r.CourseID, r.UnitID, r.SubUnitID, string(r.ResultType),
		r.MarksObtained, r.TotalMarks, r.SubmittedAt); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return tx.Commit()
}

func (s *SQLProgressStore) GetResult(ctx context.Context, universityID string, key Key, track Track) (Result, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT marks_obtained, total_marks, submitted_at
		FROM results
		WHERE university_id=$1 AND student_id=$2 AND course_id=$3 AND unit_id=$4 AND sub_unit_id=$5 AND result_type=$6`,
		universityID, key.StudentID, key.CourseID, key.UnitID, key.SubUnitID, string(track))

	r := Result{
		UniversityID: universityID,
		StudentID:    key.StudentID,
		CourseID:     key.CourseID,
		UnitID:       key.UnitID,
		SubUnitID:    key.SubUnitID,
		ResultType:   track,
	}
	if err := row.Scan(&r.MarksObtained, &r.TotalMarks, &r.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, false, nil
		}
		return Result{}, false, err
	}
	return r, true, nil
}
