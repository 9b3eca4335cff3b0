package content

import (
	"context"
	"errors"
)

// ErrNotFound signals a missing course, unit, sub-unit or question.
var ErrNotFound = errors.New("content not found")

// Store is the hierarchical document store for course content:
// Courses/{courseId}/units/{unitId}/sub-units/{subUnitId}/{coding|mcq}/{questionId}.
// All getters return full documents including private fields; callers serving
// students are responsible for stripping them.
type Store interface {
	PutCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, courseID string) (Course, error)
	UpdateCourse(ctx context.Context, courseID string, mutate func(*Course) error) error
	DeleteCourse(ctx context.Context, courseID string) error

	PutUnit(ctx context.Context, courseID string, u Unit) error
	GetUnits(ctx context.Context, courseID string) (map[string]Unit, error)
	DeleteUnit(ctx context.Context, courseID, unitID string) error

	PutSubUnit(ctx context.Context, courseID, unitID string, s SubUnit) error
	GetSubUnit(ctx context.Context, courseID, unitID, subUnitID string) (SubUnit, error)
	GetSubUnits(ctx context.Context, courseID, unitID string) (map[string]SubUnit, error)
	DeleteSubUnit(ctx context.Context, courseID, unitID, subUnitID string) error

	PutCodingQuestion(ctx context.Context, courseID, unitID, subUnitID string, q CodingQuestion) error
	GetCodingQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) (CodingQuestion, error)
	DeleteCodingQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) error

	PutMCQQuestion(ctx context.Context, courseID, unitID, subUnitID string, q MCQQuestion) error
	GetMCQQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) (MCQQuestion, error)
	DeleteMCQQuestion(ctx context.Context, courseID, unitID, subUnitID, questionID string) error
}

// Bank helpers shared by the implementations. Put replaces in place so
// authored order survives edits.

func indexCoding(bank []CodingQuestion, id string) int {
	for i := range bank {
		if bank[i].ID == id {
			return i
		}
	}
	return -1
}

func putCoding(bank []CodingQuestion, q CodingQuestion) []CodingQuestion {
	if i := indexCoding(bank, q.ID); i >= 0 {
		bank[i] = q
		return bank
	}
	return append(bank, q)
}

func indexMCQ(bank []MCQQuestion, id string) int {
	for i := range bank {
		if bank[i].ID == id {
			return i
		}
	}
	return -1
}

func putMCQ(bank []MCQQuestion, q MCQQuestion) []MCQQuestion {
	if i := indexMCQ(bank, q.ID); i >= 0 {
		bank[i] = q
		return bank
	}
	return append(bank, q)
}
