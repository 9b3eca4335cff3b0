package exam

import "context"

// ProgressStore is the relational side of test state. Implementations must
// honor the per-entity write semantics: submissions upsert on their natural
// key, results are replaced by an explicit delete before insert.
type ProgressStore interface {
	GetResume(ctx context.Context, key Key) (ResumeRecord, bool, error)
	// SetResumeTrack upserts the record and writes only the given track's
	// ID list and status; the other track is left untouched.
	SetResumeTrack(ctx context.Context, key Key, track Track, ids []string, status TrackStatus) error

	UpsertSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, key Key, questionID string) (Submission, bool, error)

	ReplaceResult(ctx context.Context, r Result) error
	GetResult(ctx context.Context, universityID string, key Key, track Track) (Result, bool, error)
}
