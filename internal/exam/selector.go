package exam

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/educode/educode-backend/internal/content"
)

// CodingQuestionView is a coding question as served to a student: private
// fields stripped, latest submission attached when one exists.
type CodingQuestionView struct {
	content.CodingQuestion
	LastSubmission *Submission `json:"last_submission"`
}

// Selection is the outcome of one question request. Exactly one of the two
// banks is populated, matching the requested track.
type Selection struct {
	Resumed bool                  `json:"resumed"`
	Coding  []CodingQuestionView  `json:"coding,omitempty"`
	MCQ     []content.MCQQuestion `json:"mcq,omitempty"`
}

// Selector decides which questions a student receives for a sub-unit,
// honoring resume state over fresh selection.
type Selector struct {
	content  content.Store
	progress ProgressStore

	mu  sync.Mutex // guards rnd; rand.Rand is not safe for concurrent use
	rnd *rand.Rand
}

type SelectorOption func(*Selector)

// WithRand fixes the random source, used by tests for repeatable draws.
func WithRand(r *rand.Rand) SelectorOption {
	return func(s *Selector) { s.rnd = r }
}

func NewSelector(cs content.Store, ps ProgressStore, opts ...SelectorOption) *Selector {
	s := &Selector{
		content:  cs,
		progress: ps,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SelectQuestions returns the question set for (student, sub-unit, track).
// A stored non-empty ID list wins and is replayed verbatim with no writes,
// so re-entry is idempotent. Otherwise a fresh draw is made and persisted.
func (s *Selector) SelectQuestions(ctx context.Context, key Key, track Track) (Selection, error) {
	if !track.Valid() {
		return Selection{}, fmt.Errorf("unknown question type: %s", track)
	}

	sub, err := s.content.GetSubUnit(ctx, key.CourseID, key.UnitID, key.SubUnitID)
	if err != nil {
		return Selection{}, err
	}

	rec, found, err := s.progress.GetResume(ctx, key)
	if err != nil {
		// A broken resume read must not block access to questions; fall
		// through to fresh selection.
		log.Printf("resume lookup failed for %s/%s/%s/%s: %v; selecting fresh",
			key.StudentID, key.CourseID, key.UnitID, key.SubUnitID, err)
		found = false
	}

	switch state := resumeStateFor(rec, found, track); state.Kind {
	case ResumedCoding:
		return s.resumeCoding(ctx, key, sub, state.IDs)
	case ResumedMCQ:
		return s.resumeMCQ(sub, state.IDs)
	default:
		if track == TrackCoding {
			return s.freshCoding(ctx, key, sub)
		}
		return s.freshMCQ(ctx, key, sub)
	}
}

func (s *Selector) resumeCoding(ctx context.Context, key Key, sub content.SubUnit, ids []string) (Selection, error) {
	views := make([]CodingQuestionView, 0, len(ids))
	for _, id := range ids {
		q, ok := findCoding(sub.Coding, id)
		if !ok {
			return Selection{}, fmt.Errorf("resumed question %s: %w", id, content.ErrNotFound)
		}
		view := CodingQuestionView{CodingQuestion: q.StudentView()}
		last, found, err := s.progress.GetSubmission(ctx, key, id)
		switch {
		case err != nil:
			// Non-fatal: the question is still served, just without the
			// saved code.
			log.Printf("submission lookup failed for %s/%s: %v", key.StudentID, id, err)
		case found:
			view.LastSubmission = &last
		}
		views = append(views, view)
	}
	return Selection{Resumed: true, Coding: views}, nil
}

func (s *Selector) resumeMCQ(sub content.SubUnit, ids []string) (Selection, error) {
	qs := make([]content.MCQQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := findMCQ(sub.MCQ, id)
		if !ok {
			return Selection{}, fmt.Errorf("resumed question %s: %w", id, content.ErrNotFound)
		}
		qs = append(qs, q)
	}
	return Selection{Resumed: true, MCQ: qs}, nil
}

func (s *Selector) freshCoding(ctx context.Context, key Key, sub content.SubUnit) (Selection, error) {
	bank := make([]content.CodingQuestion, len(sub.Coding))
	copy(bank, sub.Coding)
	s.shuffleCoding(bank)

	n := sub.EffectiveDisplayCount()
	if n > len(bank) {
		n = len(bank)
	}
	chosen := bank[:n]

	ids := make([]string, 0, n)
	views := make([]CodingQuestionView, 0, n)
	for _, q := range chosen {
		ids = append(ids, q.ID)
		views = append(views, CodingQuestionView{CodingQuestion: q.StudentView()})
	}

	if err := s.progress.SetResumeTrack(ctx, key, TrackCoding, ids, StatusResumed); err != nil {
		return Selection{}, fmt.Errorf("persist coding selection: %w", err)
	}
	return Selection{Resumed: false, Coding: views}, nil
}

func (s *Selector) freshMCQ(ctx context.Context, key Key, sub content.SubUnit) (Selection, error) {
	qs := make([]content.MCQQuestion, len(sub.MCQ))
	copy(qs, sub.MCQ)
	if sub.ShuffleMCQ {
		s.shuffleMCQ(qs)
	}

	ids := make([]string, 0, len(qs))
	for _, q := range qs {
		ids = append(ids, q.ID)
	}
	if err := s.progress.SetResumeTrack(ctx, key, TrackMCQ, ids, StatusResumed); err != nil {
		return Selection{}, fmt.Errorf("persist mcq selection: %w", err)
	}
	return Selection{Resumed: false, MCQ: qs}, nil
}

func (s *Selector) shuffleCoding(bank []content.CodingQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(len(bank), func(i, j int) { bank[i], bank[j] = bank[j], bank[i] })
}

func (s *Selector) shuffleMCQ(bank []content.MCQQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rnd.Shuffle(len(bank), func(i, j int) { bank[i], bank[j] = bank[j], bank[i] })
}

func findCoding(bank []content.CodingQuestion, id string) (content.CodingQuestion, bool) {
	for _, q := range bank {
		if q.ID == id {
			return q, true
		}
	}
	return content.CodingQuestion{}, false
}

func findMCQ(bank []content.MCQQuestion, id string) (content.MCQQuestion, bool) {
	for _, q := range bank {
		if q.ID == id {
			return q, true
		}
	}
	return content.MCQQuestion{}, false
}
