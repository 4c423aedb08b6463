// Package gate decides whether a mint job may proceed.
//
// A [Claim] names a source asset, a style and the image the minter
// submitted. The gate re-renders the reference image from the claim,
// resolves and decodes the submitted image, and compares the two. Each step
// is a [State]; the first failing step ends verification with a rejected
// verdict whose reason is that step's error code. There are no retries and
// no step is skipped.
//
//	g, _ := gate.New(runner, resolver, gate.DefaultConfig(), logger)
//	res := g.Evaluate(ctx, claim)
//	if res.Verdict.Accepted {
//	    ledger.Approve(res.Approval)
//	}
package gate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cod1ng-earth/splicenft/pkg/compare"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/imagecodec"
	"github.com/cod1ng-earth/splicenft/pkg/observability"
	"github.com/cod1ng-earth/splicenft/pkg/pipeline"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/seed"
	"github.com/cod1ng-earth/splicenft/pkg/storage"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// Claim is one mint job submitted for verification.
type Claim struct {
	JobID      uint32   `json:"job_id" bson:"job_id"`
	Network    uint64   `json:"network" bson:"network"`
	Collection string   `json:"collection" bson:"collection"`
	TokenID    string   `json:"token_id" bson:"token_id"`
	StyleID    uint64   `json:"style_id" bson:"style_id"`
	ImageRef   string   `json:"image" bson:"image"`
	Palette    []string `json:"palette,omitempty" bson:"palette,omitempty"`
}

// Result is the auditable outcome of one verification.
type Result struct {
	ID    uuid.UUID `json:"id"`
	Claim Claim     `json:"claim"`

	// State is Accepted or Rejected. Stage is the last state reached before
	// it.
	State State `json:"state"`
	Stage State `json:"stage"`

	Verdict      compare.Verdict `json:"verdict"`
	Seed         uint32          `json:"seed"`
	ReferenceCID string          `json:"reference_cid,omitempty"`
	CandidateCID string          `json:"candidate_cid,omitempty"`
	Approval     Approval        `json:"approval"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ImageResolver fetches submitted image bytes. *storage.Resolver
// implements it.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, error)
}

// Recorder persists verification results.
type Recorder interface {
	Save(ctx context.Context, res *Result) error
}

// Config holds the render and comparison parameters of a gate.
type Config struct {
	Compare    compare.Options
	Dim        render.Dimensions
	Randomness float64

	// Publish puts every reference render into the runner's store.
	Publish bool
}

// DefaultConfig returns 1500×500 renders at full randomness compared with
// the default tolerance.
func DefaultConfig() Config {
	return Config{
		Compare:    compare.DefaultOptions(),
		Dim:        render.DefaultDimensions(),
		Randomness: render.DefaultRandomness,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Compare.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateDimensions(c.Dim.Width, c.Dim.Height); err != nil {
		return err
	}
	return errors.ValidateRandomness(c.Randomness)
}

// Gate verifies mint claims. It is safe for concurrent use.
type Gate struct {
	runner   *pipeline.Runner
	images   ImageResolver
	cfg      Config
	recorder Recorder
	logger   *log.Logger
}

// New creates a gate. A nil logger discards output.
func New(runner *pipeline.Runner, images ImageResolver, cfg Config, logger *log.Logger) (*Gate, error) {
	if runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "gate requires a pipeline runner")
	}
	if images == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "gate requires an image resolver")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Gate{runner: runner, images: images, cfg: cfg, logger: logger}, nil
}

// WithRecorder makes the gate save every result to rec.
func (g *Gate) WithRecorder(rec Recorder) *Gate {
	g.recorder = rec
	return g
}

// Config returns the gate configuration.
func (g *Gate) Config() Config { return g.cfg }

// Verify returns only the verdict of [Gate.Evaluate]. It never fails.
func (g *Gate) Verify(ctx context.Context, claim Claim) compare.Verdict {
	return g.Evaluate(ctx, claim).Verdict
}

// Evaluate runs every verification stage and returns the full result.
// Failures are reported in the result, never as an error.
func (g *Gate) Evaluate(ctx context.Context, claim Claim) *Result {
	ev := &evaluation{
		gate: g,
		res: &Result{
			ID:        uuid.New(),
			Claim:     claim,
			State:     Received,
			Stage:     Received,
			StartedAt: time.Now(),
		},
	}
	logger := g.logger.With("job", claim.JobID, "verification", ev.res.ID)

	err := ev.run(ctx)
	res := ev.finish(err)

	hooks := observability.Gate()
	hooks.OnVerdict(ctx, res.Verdict.Accepted, string(res.Verdict.Reason), res.Verdict.DiffPercentage)
	if res.Verdict.Accepted {
		logger.Info("mint job accepted", "diff", fmt.Sprintf("%.2f%%", res.Verdict.DiffPercentage), "duration", res.Duration)
	} else {
		logger.Warn("mint job rejected", "stage", res.Stage, "reason", res.Verdict.Reason, "message", res.Verdict.Message)
	}

	if g.recorder != nil {
		if err := g.recorder.Save(ctx, res); err != nil {
			logger.Error("failed to record verification", "error", err)
		}
	}
	return res
}

// evaluation carries the intermediate values of one Evaluate call.
type evaluation struct {
	gate *Gate
	res  *Result

	palette   render.Palette
	style     style.Style
	reference *render.Raster
	candidate *render.Raster
	verdict   compare.Verdict
}

func (ev *evaluation) run(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.New(errors.ErrCodeInternal, "verification panicked: %v", p)
		}
	}()

	steps := []struct {
		next State
		fn   func(context.Context) error
	}{
		{RandomnessDerived, ev.deriveSeed},
		{StyleResolved, ev.resolveStyle},
		{Rendered, ev.renderReference},
		{CandidateDecoded, ev.decodeCandidate},
		{Compared, ev.compare},
	}
	for _, step := range steps {
		start := time.Now()
		serr := step.fn(ctx)
		observability.Gate().OnStage(ctx, step.next.String(), time.Since(start), serr)
		if serr != nil {
			return serr
		}
		ev.res.Stage = step.next
	}
	return nil
}

func (ev *evaluation) finish(err error) *Result {
	res := ev.res
	if err != nil {
		res.Verdict = compare.Reject(err)
	} else {
		res.Verdict = ev.verdict
	}
	res.State = Rejected
	if res.Verdict.Accepted {
		res.State = Accepted
	}
	res.Approval = ApprovalWord(res.Claim.JobID, res.Verdict.Accepted)
	res.Duration = time.Since(res.StartedAt)
	return res
}

// deriveSeed validates the claim and derives its seed.
func (ev *evaluation) deriveSeed(context.Context) error {
	claim := ev.res.Claim
	if err := errors.ValidateReference(claim.ImageRef); err != nil {
		return err
	}
	if len(claim.Palette) > 0 {
		p, err := render.ParsePalette(claim.Palette)
		if err != nil {
			return err
		}
		ev.palette = p
	}
	s, err := seed.DeriveString(claim.Collection, claim.TokenID)
	if err != nil {
		return err
	}
	ev.res.Seed = s
	return nil
}

func (ev *evaluation) resolveStyle(ctx context.Context) error {
	styles := ev.gate.runner.Styles
	if styles == nil {
		return errors.New(errors.ErrCodeCatalogUnavailable, "no style registry configured")
	}
	st, err := styles.GetStyle(ctx, ev.res.Claim.Network, ev.res.Claim.StyleID)
	if err != nil {
		return err
	}
	ev.style = st
	return nil
}

func (ev *evaluation) renderReference(ctx context.Context) error {
	cfg := ev.gate.cfg
	req := render.Request{
		Seed:       ev.res.Seed,
		Palette:    ev.palette,
		Dim:        cfg.Dim,
		Randomness: cfg.Randomness,
	}
	if len(req.Palette) == 0 {
		req.Palette = ev.style.PaletteOr(render.Grayscale)
	}

	// The reference is always rendered. Writing it back replaces whatever
	// the cache held under the same key.
	runner := ev.gate.runner
	png, raster, _, err := runner.RenderWithCacheInfo(ctx, ev.style, req, true)
	if err != nil {
		return err
	}
	id, err := storage.CID(png)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "content address reference")
	}
	if cfg.Publish {
		if err := runner.Publish(ctx, id, png); err != nil {
			return err
		}
	}
	ev.reference = raster
	ev.res.ReferenceCID = id.String()
	return nil
}

func (ev *evaluation) decodeCandidate(ctx context.Context) error {
	data, err := ev.gate.images.Resolve(ctx, ev.res.Claim.ImageRef)
	if err != nil {
		return err
	}
	if id, err := storage.CID(data); err == nil {
		ev.res.CandidateCID = id.String()
	}
	raster, err := imagecodec.Decode(data)
	if err != nil {
		return err
	}
	ev.candidate = raster
	return nil
}

func (ev *evaluation) compare(context.Context) error {
	v, err := compare.Compare(ev.reference, ev.candidate, ev.gate.cfg.Compare)
	if err != nil {
		return err
	}
	ev.verdict = v
	return nil
}
