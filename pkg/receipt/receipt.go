// Package receipt persists verification results for audit.
//
// A [Receipt] is the flattened, storage-friendly form of a [gate.Result].
// Receipts are written once and never updated; saving the same result
// twice keeps the first copy.
//
// # Backends
//
//   - [MemoryStore]: process-local, used by tests and the CLI
//   - [MongoStore]: shared store for server deployments
package receipt

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
)

// DefaultListLimit caps List results when no limit is given.
const DefaultListLimit = 100

// Receipt is the stored form of one verification.
type Receipt struct {
	ID             string      `json:"id" bson:"_id"`
	Claim          gate.Claim  `json:"claim" bson:"claim"`
	State          string      `json:"state" bson:"state"`
	Stage          string      `json:"stage" bson:"stage"`
	Accepted       bool        `json:"accepted" bson:"accepted"`
	DiffPercentage float64     `json:"diff_percentage" bson:"diff_percentage"`
	Reason         errors.Code `json:"reason,omitempty" bson:"reason,omitempty"`
	Message        string      `json:"message,omitempty" bson:"message,omitempty"`
	Seed           uint32      `json:"seed" bson:"seed"`
	ReferenceCID   string      `json:"reference_cid,omitempty" bson:"reference_cid,omitempty"`
	CandidateCID   string      `json:"candidate_cid,omitempty" bson:"candidate_cid,omitempty"`
	Approval       string      `json:"approval" bson:"approval"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	DurationMS     int64       `json:"duration_ms" bson:"duration_ms"`
}

// FromResult converts a gate result.
func FromResult(res *gate.Result) *Receipt {
	return &Receipt{
		ID:             res.ID.String(),
		Claim:          res.Claim,
		State:          res.State.String(),
		Stage:          res.Stage.String(),
		Accepted:       res.Verdict.Accepted,
		DiffPercentage: res.Verdict.DiffPercentage,
		Reason:         res.Verdict.Reason,
		Message:        res.Verdict.Message,
		Seed:           res.Seed,
		ReferenceCID:   res.ReferenceCID,
		CandidateCID:   res.CandidateCID,
		Approval:       res.Approval.String(),
		CreatedAt:      res.StartedAt.UTC().Truncate(time.Millisecond),
		DurationMS:     res.Duration.Milliseconds(),
	}
}

// Query filters List results. Zero fields match everything.
type Query struct {
	JobID    *uint32
	Network  uint64
	Accepted *bool
	Limit    int
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultListLimit
	}
	return q.Limit
}

func (q Query) matches(r *Receipt) bool {
	if q.JobID != nil && r.Claim.JobID != *q.JobID {
		return false
	}
	if q.Network != 0 && r.Claim.Network != q.Network {
		return false
	}
	if q.Accepted != nil && r.Accepted != *q.Accepted {
		return false
	}
	return true
}

// Store persists receipts. It implements [gate.Recorder].
type Store interface {
	Save(ctx context.Context, res *gate.Result) error
	Get(ctx context.Context, id string) (*Receipt, error)
	// List returns matching receipts, newest first.
	List(ctx context.Context, q Query) ([]*Receipt, error)
	Close() error
}

// ParseID validates a receipt id.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid receipt id %q", id)
	}
	return u.String(), nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "receipt %s not found", id)
}
