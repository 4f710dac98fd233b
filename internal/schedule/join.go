package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/classify/internal/model"
)

const (
	defaultLookupConcurrency = 4
	defaultLookupTimeout     = 15 * time.Second
	defaultCommentCap        = 2
)

// ProfileLookup resolves an instructor to a rating profile. A nil profile
// with a nil error is a miss; an error is a transport failure.
type ProfileLookup interface {
	Resolve(ctx context.Context, given, family string) (*model.ProfessorProfile, error)
}

// NameResolver splits a display name into given and family parts.
type NameResolver func(name string) (model.ResolvedName, bool)

// Joiner merges extracted section records with instructor profiles.
type Joiner struct {
	lookup      ProfileLookup
	resolve     NameResolver
	concurrency int
	timeout     time.Duration
	commentCap  int
}

// JoinerOption configures a Joiner.
type JoinerOption func(*Joiner)

// WithConcurrency bounds the number of in-flight lookups.
func WithConcurrency(n int) JoinerOption {
	return func(j *Joiner) {
		if n > 0 {
			j.concurrency = n
		}
	}
}

// WithLookupTimeout bounds each individual lookup.
func WithLookupTimeout(d time.Duration) JoinerOption {
	return func(j *Joiner) {
		if d > 0 {
			j.timeout = d
		}
	}
}

// WithCommentCap sets how many comments are kept per profile.
func WithCommentCap(n int) JoinerOption {
	return func(j *Joiner) {
		j.commentCap = n
	}
}

// WithNameResolver replaces ResolveName.
func WithNameResolver(r NameResolver) JoinerOption {
	return func(j *Joiner) {
		j.resolve = r
	}
}

// NewJoiner creates a Joiner backed by the given lookup.
func NewJoiner(lookup ProfileLookup, opts ...JoinerOption) *Joiner {
	j := &Joiner{
		lookup:      lookup,
		resolve:     ResolveName,
		concurrency: defaultLookupConcurrency,
		timeout:     defaultLookupTimeout,
		commentCap:  defaultCommentCap,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

type joinSlot struct {
	record  model.ComparisonRecord
	warning *model.Warning
}

// Join produces one comparison record per input record, grouped by class
// number in first-seen order. Lookups run concurrently; each result is
// written to its own slot so input order survives the fan-in. A failed or
// missing lookup never drops a record.
func (j *Joiner) Join(ctx context.Context, records []model.SectionRecord) (model.Comparison, []model.Warning) {
	log := zap.L().With(zap.String("phase", "join"))
	slots := make([]joinSlot, len(records))

	var g errgroup.Group
	g.SetLimit(j.concurrency)

	for i, rec := range records {
		name, ok := j.resolve(rec.Teacher)
		if !ok {
			log.Warn("schedule: unresolvable instructor name, lookup skipped",
				zap.String("teacher", rec.Teacher),
				zap.String("course_section", rec.CourseSection),
			)
			slots[i] = joinSlot{
				record: model.ComparisonRecord{SectionRecord: rec, Status: model.LookupSkipped},
				warning: &model.Warning{
					Code:    model.WarnUnresolvableName,
					Subject: rec.CourseSection,
					Message: fmt.Sprintf("instructor %q could not be split into given and family names", rec.Teacher),
				},
			}
			continue
		}

		g.Go(func() error {
			slots[i] = j.lookupOne(ctx, log, rec, name)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.ComparisonRecord, len(slots))
	var warnings []model.Warning
	for i, s := range slots {
		out[i] = s.record
		if s.warning != nil {
			warnings = append(warnings, *s.warning)
		}
	}
	return GroupByClass(out), warnings
}

func (j *Joiner) lookupOne(ctx context.Context, log *zap.Logger, rec model.SectionRecord, name model.ResolvedName) joinSlot {
	lctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cr := model.ComparisonRecord{SectionRecord: rec, Name: &name}

	profile, err := j.lookup.Resolve(lctx, name.Given, name.Family)
	switch {
	case err != nil:
		log.Warn("schedule: instructor lookup failed",
			zap.String("teacher", name.String()),
			zap.Error(err),
		)
		cr.Status = model.LookupError
		return joinSlot{record: cr, warning: &model.Warning{
			Code:    model.WarnLookupError,
			Subject: name.String(),
			Message: fmt.Sprintf("rating lookup for %s failed: %v", name, err),
		}}
	case profile == nil:
		log.Info("schedule: no rating profile for instructor", zap.String("teacher", name.String()))
		cr.Status = model.LookupNotFound
		return joinSlot{record: cr, warning: &model.Warning{
			Code:    model.WarnLookupMiss,
			Subject: name.String(),
			Message: fmt.Sprintf("no rating profile found for %s", name),
		}}
	default:
		capped := profile.WithCommentCap(j.commentCap)
		cr.Professor = &capped
		cr.Status = model.LookupFound
		return joinSlot{record: cr}
	}
}

// GroupByClass groups records by class number, keeping groups in the order
// their class number first appears and records in input order.
func GroupByClass(records []model.ComparisonRecord) model.Comparison {
	var (
		out   model.Comparison
		index = make(map[string]int)
	)
	for _, r := range records {
		i, ok := index[r.ClassNumber]
		if !ok {
			i = len(out)
			index[r.ClassNumber] = i
			out = append(out, model.ComparisonGroup{ClassNumber: r.ClassNumber})
		}
		out[i].Records = append(out[i].Records, r)
	}
	return out
}
