// Package roster is the relational side of the platform: universities,
// batches, students and the course catalog.
package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("roster: not found")
	ErrInvalidCredentials = errors.New("roster: invalid credentials")
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// --- Universities ---

func (s *Store) InsertUniversity(ctx context.Context, u University) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO universities (uid, name, email_id, user_id, password, logo_link)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.UID, u.Name, u.EmailID, u.UserID, u.Password, u.LogoLink)
	return err
}

func (s *Store) ListUniversities(ctx context.Context) ([]University, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT uid, name, email_id, logo_link FROM universities ORDER BY uid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []University
	for rows.Next() {
		var u University
		if err := rows.Scan(&u.UID, &u.Name, &u.EmailID, &u.LogoLink); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) GetUniversity(ctx context.Context, uid string) (University, error) {
	row := s.db.QueryRowContext(ctx, `SELECT uid, name, email_id, logo_link FROM universities WHERE uid=$1`, uid)
	var u University
	if err := row.Scan(&u.UID, &u.Name, &u.EmailID, &u.LogoLink); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return University{}, ErrNotFound
		}
		return University{}, err
	}
	return u, nil
}

func (s *Store) UpdateUniversity(ctx context.Context, uid string, fields map[string]any) error {
	return s.updateByKey(ctx, "universities", "uid", uid, fields,
		[]string{"name", "email_id", "user_id", "password", "logo_link"})
}

func (s *Store) DeleteUniversity(ctx context.Context, uid string) error {
	return s.deleteByKey(ctx, "universities", "uid", uid)
}

// LoginUniversity compares the stored password as-is; credential hashing for
// tenant accounts is handled upstream of this system.
func (s *Store) LoginUniversity(ctx context.Context, userID, password string) (University, error) {
	row := s.db.QueryRowContext(ctx, `SELECT uid, name, email_id, logo_link FROM universities
		WHERE user_id=$1 AND password=$2`, userID, password)
	var u University
	if err := row.Scan(&u.UID, &u.Name, &u.EmailID, &u.LogoLink); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return University{}, ErrInvalidCredentials
		}
		return University{}, err
	}
	return u, nil
}

// --- Batches ---

func (s *Store) InsertBatch(ctx context.Context, b Batch) error {
	ids, err := json.Marshal(orEmpty(b.RegisteredCourseIDs))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO batches (batch_id, uni_id, batch_name, registered_courses_json)
		VALUES ($1,$2,$3,$4)`, b.BatchID, b.UniID, b.Name, string(ids))
	return err
}

func (s *Store) ListBatches(ctx context.Context) ([]Batch, error) {
	return s.queryBatches(ctx, `SELECT batch_id, uni_id, batch_name, registered_courses_json FROM batches ORDER BY batch_id`)
}

func (s *Store) BatchesByUniversity(ctx context.Context, uniID string) ([]Batch, error) {
	return s.queryBatches(ctx, `SELECT batch_id, uni_id, batch_name, registered_courses_json FROM batches WHERE uni_id=$1 ORDER BY batch_id`, uniID)
}

func (s *Store) GetBatch(ctx context.Context, batchID string) (Batch, error) {
	bs, err := s.queryBatches(ctx, `SELECT batch_id, uni_id, batch_name, registered_courses_json FROM batches WHERE batch_id=$1`, batchID)
	if err != nil {
		return Batch{}, err
	}
	if len(bs) == 0 {
		return Batch{}, ErrNotFound
	}
	return bs[0], nil
}

func (s *Store) UpdateBatch(ctx context.Context, batchID string, fields map[string]any) error {
	if v, ok := fields["registered_courses_id"]; ok {
		buf, err := json.Marshal(v)
		if err != nil {
			return err
		}
		delete(fields, "registered_courses_id")
		fields["registered_courses_json"] = string(buf)
	}
	return s.updateByKey(ctx, "batches", "batch_id", batchID, fields,
		[]string{"uni_id", "batch_name", "registered_courses_json"})
}

func (s *Store) DeleteBatch(ctx context.Context, batchID string) error {
	return s.deleteByKey(ctx, "batches", "batch_id", batchID)
}

func (s *Store) queryBatches(ctx context.Context, q string, args ...any) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Batch
	for rows.Next() {
		var b Batch
		var ids string
		if err := rows.Scan(&b.BatchID, &b.UniID, &b.Name, &ids); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &b.RegisteredCourseIDs); err != nil {
			return nil, fmt.Errorf("decode registered courses for %s: %w", b.BatchID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Students ---

func (s *Store) InsertStudent(ctx context.Context, st Student) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO students
		(student_id, student_name, uni_id, batch_id, user_id, password, email_id, phone_num, uni_reg_id, section, profile_image_link)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		st.StudentID, st.Name, st.UniID, st.BatchID, st.UserID, st.Password,
		st.EmailID, st.PhoneNum, st.UniRegID, st.Section, st.ProfileImageLink)
	return err
}

// UpsertStudents bulk-loads roster rows, replacing existing students by id.
// Used by the CSV/JSON roster upload.
func (s *Store) UpsertStudents(ctx context.Context, sts []Student) (inserted, updated int, err error) {
	for _, st := range sts {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM students WHERE student_id=$1`, st.StudentID).Scan(&exists)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		_, err = s.db.ExecContext(ctx, `INSERT INTO students
			(student_id, student_name, uni_id, batch_id, user_id, password, email_id, phone_num, uni_reg_id, section, profile_image_link)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (student_id) DO UPDATE SET
				student_name=EXCLUDED.student_name, uni_id=EXCLUDED.uni_id, batch_id=EXCLUDED.batch_id,
				user_id=EXCLUDED.user_id, password=EXCLUDED.password, email_id=EXCLUDED.email_id,
				phone_num=EXCLUDED.phone_num, uni_reg_id=EXCLUDED.uni_reg_id, section=EXCLUDED.section`,
			st.StudentID, st.Name, st.UniID, st.BatchID, st.UserID, st.Password,
			st.EmailID, st.PhoneNum, st.UniRegID, st.Section, st.ProfileImageLink)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert student %s: %w", st.StudentID, err)
		}
		if exists == 1 {
			updated++
		} else {
			inserted++
		}
	}
	return inserted, updated, nil
}

const studentCols = `student_id, student_name, uni_id, batch_id, user_id, email_id, phone_num, uni_reg_id, section, profile_image_link`

func (s *Store) ListStudents(ctx context.Context) ([]Student, error) {
	return s.queryStudents(ctx, `SELECT `+studentCols+` FROM students ORDER BY student_id`)
}

func (s *Store) GetStudent(ctx context.Context, studentID string) (Student, error) {
	sts, err := s.queryStudents(ctx, `SELECT `+studentCols+` FROM students WHERE student_id=$1`, studentID)
	if err != nil {
		return Student{}, err
	}
	if len(sts) == 0 {
		return Student{}, ErrNotFound
	}
	return sts[0], nil
}

func (s *Store) StudentsByUniversity(ctx context.Context, uniID string) ([]Student, error) {
	return s.queryStudents(ctx, `SELECT `+studentCols+` FROM students WHERE uni_id=$1 ORDER BY student_id`, uniID)
}

func (s *Store) StudentsByBatch(ctx context.Context, batchID string) ([]Student, error) {
	return s.queryStudents(ctx, `SELECT `+studentCols+` FROM students WHERE batch_id=$1 ORDER BY student_id`, batchID)
}

func (s *Store) UpdateStudent(ctx context.Context, studentID string, fields map[string]any) error {
	return s.updateByKey(ctx, "students", "student_id", studentID, fields,
		[]string{"student_name", "uni_id", "batch_id", "user_id", "password",
			"email_id", "phone_num", "uni_reg_id", "section", "profile_image_link"})
}

func (s *Store) DeleteStudent(ctx context.Context, studentID string) error {
	return s.deleteByKey(ctx, "students", "student_id", studentID)
}

// LoginStudent compares the stored password as-is (see LoginUniversity).
func (s *Store) LoginStudent(ctx context.Context, userID, password string) (Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students
		WHERE user_id=$1 AND password=$2`, userID, password)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, err
	}
	return st.Profile(), nil
}

func (s *Store) queryStudents(ctx context.Context, q string, args ...any) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanStudent(sc scanner) (Student, error) {
	var st Student
	err := sc.Scan(&st.StudentID, &st.Name, &st.UniID, &st.BatchID, &st.UserID,
		&st.EmailID, &st.PhoneNum, &st.UniRegID, &st.Section, &st.ProfileImageLink)
	return st, err
}

// --- Course catalog ---

func (s *Store) InsertCourseMeta(ctx context.Context, c CourseMeta) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses_metadata (course_id, course_name, description, thumbnail_link)
		VALUES ($1,$2,$3,$4)`, c.CourseID, c.Name, c.Description, c.ThumbnailLink)
	return err
}

func (s *Store) ListCourseMeta(ctx context.Context) ([]CourseMeta, error) {
	return s.queryCourseMeta(ctx, `SELECT course_id, course_name, description, thumbnail_link FROM courses_metadata ORDER BY course_id`)
}

func (s *Store) GetCourseMeta(ctx context.Context, courseID string) (CourseMeta, error) {
	cs, err := s.queryCourseMeta(ctx, `SELECT course_id, course_name, description, thumbnail_link FROM courses_metadata WHERE course_id=$1`, courseID)
	if err != nil {
		return CourseMeta{}, err
	}
	if len(cs) == 0 {
		return CourseMeta{}, ErrNotFound
	}
	return cs[0], nil
}

func (s *Store) UpdateCourseMeta(ctx context.Context, courseID string, fields map[string]any) error {
	return s.updateByKey(ctx, "courses_metadata", "course_id", courseID, fields,
		[]string{"course_name", "description", "thumbnail_link"})
}

func (s *Store) DeleteCourseMeta(ctx context.Context, courseID string) error {
	return s.deleteByKey(ctx, "courses_metadata", "course_id", courseID)
}

// CourseMetaByBatch resolves a batch's registered course IDs into catalog
// rows. An unregistered batch yields an empty slice, not an error.
func (s *Store) CourseMetaByBatch(ctx context.Context, batchID string) ([]CourseMeta, error) {
	b, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(b.RegisteredCourseIDs) == 0 {
		return []CourseMeta{}, nil
	}
	placeholders := make([]string, len(b.RegisteredCourseIDs))
	args := make([]any, len(b.RegisteredCourseIDs))
	for i, id := range b.RegisteredCourseIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return s.queryCourseMeta(ctx, `SELECT course_id, course_name, description, thumbnail_link
		FROM courses_metadata WHERE course_id IN (`+strings.Join(placeholders, ",")+`) ORDER BY course_id`, args...)
}

func (s *Store) queryCourseMeta(ctx context.Context, q string, args ...any) ([]CourseMeta, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CourseMeta
	for rows.Next() {
		var c CourseMeta
		if err := rows.Scan(&c.CourseID, &c.Name, &c.Description, &c.ThumbnailLink); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- shared helpers ---

// updateByKey builds a SET clause from the whitelisted fields present in the
// request. Unknown fields are rejected rather than ignored.
func (s *Store) updateByKey(ctx context.Context, table, keyCol, keyVal string, fields map[string]any, allowed []string) error {
	if len(fields) == 0 {
		return errors.New("roster: no fields to update")
	}
	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	i := 1
	for col, val := range fields {
		if !allowedSet[col] {
			return fmt.Errorf("roster: unknown field %q", col)
		}
		sets = append(sets, fmt.Sprintf("%s=$%d", col, i))
		args = append(args, val)
		i++
	}
	args = append(args, keyVal)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s=$%d", table, strings.Join(sets, ", "), keyCol, i)
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) deleteByKey(ctx context.Context, table, keyCol, keyVal string) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s=$1", table, keyCol), keyVal)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
