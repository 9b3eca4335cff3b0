package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// SQLStore keeps each course tree as one JSON document. Content is authored
// rarely and read as a whole, so a doc column beats normalizing the tree.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO course_docs (course_id, doc_json)
		VALUES ($1,$2)
		ON CONFLICT (course_id) DO UPDATE SET doc_json=EXCLUDED.doc_json`,
		c.ID, string(doc))
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, courseID string) (Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc_json FROM course_docs WHERE course_id=$1`, courseID)
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	var c Course
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return Course{}, err
	}
	return c, nil
}

// UpdateCourse loads, mutates and writes back the course document. mutate
// returning an error aborts without a write.
func (s *SQLStore) UpdateCourse(ctx context.Context, courseID string, mutate func(*Course) error) error {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if err := mutate(&c); err != nil {
		return err
	}
	return s.PutCourse(ctx, c)
}

func (s *SQLStore) DeleteCourse(ctx context.Context, courseID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM course_docs WHERE course_id=$1`, courseID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) PutUnit(ctx context.Context, courseID string, u Unit) error {
	return s.UpdateCourse(ctx, courseID, func(c *Course) error {
		if c.Units == nil {
			c.Units = map[string]Unit{}
		}
		c.Units[u.ID] = u
		return nil
	})
}

func (s *SQLStore) GetUnits(ctx context.Context, courseID string) (map[string]Unit, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return c.Units, nil
}

func (s *SQLStore) DeleteUnit(ctx context.Context, courseID, unitID string) error {
	return s.UpdateCourse(ctx, courseID, func(c *Course) error {
		if _, ok := c.Units[unitID]; !ok {
			return ErrNotFound
		}
		delete(c.Units, unitID)
		return nil
	})
}

func (s *SQLStore) PutSubUnit(ctx context.Context, courseID, unitID string, sub SubUnit) error {
	return s.UpdateCourse(ctx, courseID, func(c *Course) error {
		u, ok := c.Units[unitID]
		if !ok {
			return ErrNotFound
		}
		if u.SubUnits == nil {
			u.SubUnits = map[string]SubUnit{}
		}
		u.SubUnits[sub.ID] = sub
		c.Units[unitID] = u
		return nil
	})
}

func (s *SQLStore) GetSubUnit(ctx context.Context, courseID, unitID, subUnitID string) (SubUnit, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return SubUnit{}, err
	}
	u, ok := c.Units[unitID]
	if !ok {
		return SubUnit{}, ErrNotFound
	}
	sub, ok := u.SubUnits[subUnitID]
	if !ok {
		return SubUnit{}, ErrNotFound
	}
	return sub, nil
}

func (s *SQLStore) GetSubUnits(ctx context.Context, courseID, unitID string) (map[string]SubUnit, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	u, ok := c.Units[unitID]
	if !ok {
		return nil, ErrNotFound
	}
	return u.SubUnits, nil
}

func (s *SQLStore) DeleteSubUnit(ctx context.Context, courseID, unitID, subUnitID string) error {
	return s.UpdateCourse(ctx, courseID, func(c *Course) error {
		u, ok := c.Units[unitID]
		if !ok {
			return ErrNotFound
		}
		if _, ok := u.SubUnits[subUnitID]; !ok {
			return ErrNotFound
		}
		delete(u.SubUnits, subUnitID)
		c.Units[unitID] = u
		return nil
	})
}

func (s *SQLStore) PutCodingQuestion(ctx context.Context, courseID, unitID, subUnitID string, q CodingQuestion) error {
	return s.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		sub.Coding = putCoding(sub.Coding, q)
		return nil
	})
}

func (s *SQLStore) GetCodingQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) (CodingQuestion, error) {
	sub, err := s.GetSubUnit(ctx, courseID, unitID, subUnitID)
	if err != nil {
		return CodingQuestion{}, err
	}
	if i := indexCoding(sub.Coding, questionID); i >= 0 {
		return sub.Coding[i], nil
	}
	return CodingQuestion{}, ErrNotFound
}

func (s *SQLStore) DeleteCodingQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) error {
	return s.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		i := indexCoding(sub.Coding, questionID)
		if i < 0 {
			return ErrNotFound
		}
		sub.Coding = append(sub.Coding[:i], sub.Coding[i+1:]...)
		return nil
	})
}

func (s *SQLStore) PutMCQQuestion(ctx context.Context, courseID, unitID, subUnitID string, q MCQQuestion) error {
	return s.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		sub.MCQ = putMCQ(sub.MCQ, q)
		return nil
	})
}

func (s *SQLStore) GetMCQQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) (MCQQuestion, error) {
	sub, err := s.GetSubUnit(ctx, courseID, unitID, subUnitID)
	if err != nil {
		return MCQQuestion{}, err
	}
	if i := indexMCQ(sub.MCQ, questionID); i >= 0 {
		return sub.MCQ[i], nil
	}
	return MCQQuestion{}, ErrNotFound
}

func (s *SQLStore) DeleteMCQQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) error {
	return s.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		i := indexMCQ(sub.MCQ, questionID)
		if i < 0 {
			return ErrNotFound
		}
		sub.MCQ = append(sub.MCQ[:i], sub.MCQ[i+1:]...)
		return nil
	})
}

func (s *SQLStore) updateSubUnit(ctx context.Context, courseID, unitID, subUnitID string, mutate func(*SubUnit) error) error {
	return s.UpdateCourse(ctx, courseID, func(c *Course) error {
		u, ok := c.Units[unitID]
		if !ok {
			return ErrNotFound
		}
		sub, ok := u.SubUnits[subUnitID]
		if !ok {
			return ErrNotFound
		}
		if err := mutate(&sub); err != nil {
			return err
		}
		u.SubUnits[subUnitID] = sub
		c.Units[unitID] = u
		return nil
	})
}
