package content

import (
	"context"
	"encoding/json"
	"sync"
)

type memStore struct {
	mu      sync.RWMutex
	courses map[string]Course
}

// NewMemStore returns an in-memory Store for tests and single-node dev runs.
func NewMemStore() Store {
	return &memStore{courses: map[string]Course{}}
}

// clone deep-copies through JSON so callers can't mutate stored state.
func clone(c Course) Course {
	buf, _ := json.Marshal(c)
	var out Course
	_ = json.Unmarshal(buf, &out)
	return out
}

func (m *memStore) PutCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = clone(c)
	return nil
}

func (m *memStore) GetCourse(_ context.Context, courseID string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[courseID]
	if !ok {
		return Course{}, ErrNotFound
	}
	return clone(c), nil
}

func (m *memStore) UpdateCourse(ctx context.Context, courseID string, mutate func(*Course) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[courseID]
	if !ok {
		return ErrNotFound
	}
	cc := clone(c)
	if err := mutate(&cc); err != nil {
		return err
	}
	m.courses[courseID] = cc
	return nil
}

func (m *memStore) DeleteCourse(_ context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[courseID]; !ok {
		return ErrNotFound
	}
	delete(m.courses, courseID)
	return nil
}

func (m *memStore) PutUnit(ctx context.Context, courseID string, u Unit) error {
	return m.UpdateCourse(ctx, courseID, func(c *Course) error {
		if c.Units == nil {
			c.Units = map[string]Unit{}
		}
		c.Units[u.ID] = u
		return nil
	})
}

func (m *memStore) GetUnits(ctx context.Context, courseID string) (map[string]Unit, error) {
	c, err := m.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return c.Units, nil
}

func (m *memStore) DeleteUnit(ctx context.Context, courseID, unitID string) error {
	return m.UpdateCourse(ctx, courseID, func(c *Course) error {
		if _, ok := c.Units[unitID]; !ok {
			return ErrNotFound
		}
		delete(c.Units, unitID)
		return nil
	})
}

func (m *memStore) PutSubUnit(ctx context.Context, courseID, unitID string, sub SubUnit) error {
	return m.UpdateCourse(ctx, courseID, func(c *Course) error {
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

func (m *memStore) GetSubUnit(ctx context.Context, courseID, unitID, subUnitID string) (SubUnit, error) {
	c, err := m.GetCourse(ctx, courseID)
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

func (m *memStore) GetSubUnits(ctx context.Context, courseID, unitID string) (map[string]SubUnit, error) {
	c, err := m.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	u, ok := c.Units[unitID]
	if !ok {
		return nil, ErrNotFound
	}
	return u.SubUnits, nil
}

func (m *memStore) DeleteSubUnit(ctx context.Context, courseID, unitID, subUnitID string) error {
	return m.UpdateCourse(ctx, courseID, func(c *Course) error {
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

func (m *memStore) PutCodingQuestion(ctx context.Context, courseID, unitID, subUnitID string, q CodingQuestion) error {
	return m.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		sub.Coding = putCoding(sub.Coding, q)
		return nil
	})
}

func (m *memStore) GetCodingQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) (CodingQuestion, error) {
	sub, err := m.GetSubUnit(ctx, courseID, unitID, subUnitID)
	if err != nil {
		return CodingQuestion{}, err
	}
	if i := indexCoding(sub.Coding, questionID); i >= 0 {
		return sub.Coding[i], nil
	}
	return CodingQuestion{}, ErrNotFound
}

func (m *memStore) DeleteCodingQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) error {
	return m.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		i := indexCoding(sub.Coding, questionID)
		if i < 0 {
			return ErrNotFound
		}
		sub.Coding = append(sub.Coding[:i], sub.Coding[i+1:]...)
		return nil
	})
}

func (m *memStore) PutMCQQuestion(ctx context.Context, courseID, unitID, subUnitID string, q MCQQuestion) error {
	return m.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		sub.MCQ = putMCQ(sub.MCQ, q)
		return nil
	})
}

func (m *memStore) GetMCQQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) (MCQQuestion, error) {
	sub, err := m.GetSubUnit(ctx, courseID, unitID, subUnitID)
	if err != nil {
		return MCQQuestion{}, err
	}
	if i := indexMCQ(sub.MCQ, questionID); i >= 0 {
		return sub.MCQ[i], nil
	}
	return MCQQuestion{}, ErrNotFound
}

func (m *memStore) DeleteMCQQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) error {
	return m.updateSubUnit(ctx, courseID, unitID, subUnitID, func(sub *SubUnit) error {
		i := indexMCQ(sub.MCQ, questionID)
		if i < 0 {
			return ErrNotFound
		}
		sub.MCQ = append(sub.MCQ[:i], sub.MCQ[i+1:]...)
		return nil
	})
}

func (m *memStore) updateSubUnit(ctx context.Context, courseID, unitID, subUnitID string, mutate func(*SubUnit) error) error {
	return m.UpdateCourse(ctx, courseID, func(c *Course) error {
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
