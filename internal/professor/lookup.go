// Package professor resolves instructor names to rating profiles and exports
// them for offline use.
package professor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/classify/internal/model"
	"github.com/sells-group/classify/internal/store"
	"github.com/sells-group/classify/pkg/ratemyprof"
)

// ErrTransport marks failures reaching the rating service, as opposed to
// a professor simply not being found.
var ErrTransport = errors.New("professor: rating service unavailable")

// Lookup resolves a name pair to a profile via Rate My Professors, caching
// hits in the store.
type Lookup struct {
	client  ratemyprof.Client
	cache   store.Store
	ttl     time.Duration
	breaker *Breaker
}

// LookupOption configures a Lookup.
type LookupOption func(*Lookup)

// WithBreaker guards calls to the rating service with b.
func WithBreaker(b *Breaker) LookupOption {
	return func(l *Lookup) {
		l.breaker = b
	}
}

// NewLookup creates a Lookup. cache may be nil to disable caching; ttl <= 0
// also disables it.
func NewLookup(client ratemyprof.Client, cache store.Store, ttl time.Duration, opts ...LookupOption) *Lookup {
	l := &Lookup{client: client, cache: cache, ttl: ttl}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CacheKey folds the name pair into the key used for the profile cache.
func CacheKey(given, family string) string {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(given)) + "|" + fold.String(strings.TrimSpace(family))
}

// Resolve returns the profile whose given and family names both match
// exactly under Unicode case folding, with its comments. It returns nil, nil
// when no search result matches.
func (l *Lookup) Resolve(ctx context.Context, given, family string) (*model.ProfessorProfile, error) {
	key := CacheKey(given, family)
	if l.caching() {
		cached, err := l.cache.GetCachedProfile(ctx, key)
		if err != nil {
			zap.L().Warn("professor: cache read failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	if l.breaker != nil && !l.breaker.Allow() {
		return nil, eris.Wrapf(errors.Join(ErrTransport, ErrBreakerOpen), "professor: search %s %s", given, family)
	}
	profile, err := l.fetch(ctx, given, family)
	if l.breaker != nil {
		if errors.Is(err, context.Canceled) {
			l.breaker.Release()
		} else {
			l.breaker.Record(err != nil)
		}
	}
	if err != nil || profile == nil {
		return nil, err
	}

	if l.caching() {
		if err := l.cache.SetCachedProfile(ctx, key, profile, l.ttl); err != nil {
			zap.L().Warn("professor: cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return profile, nil
}

func (l *Lookup) fetch(ctx context.Context, given, family string) (*model.ProfessorProfile, error) {
	teachers, err := l.client.SearchTeachers(ctx, strings.TrimSpace(given)+" "+strings.TrimSpace(family))
	if err != nil {
		return nil, eris.Wrapf(errors.Join(ErrTransport, err), "professor: search %s %s", given, family)
	}

	match := exactMatch(teachers, given, family)
	if match == nil {
		zap.L().Debug("professor: no exact match",
			zap.String("given", given),
			zap.String("family", family),
			zap.Int("results", len(teachers)),
		)
		return nil, nil
	}

	ratings, err := l.client.Ratings(ctx, match.ID)
	if err != nil {
		return nil, eris.Wrapf(errors.Join(ErrTransport, err), "professor: ratings for %s %s", given, family)
	}
	return toProfile(*match, ratings), nil
}

func (l *Lookup) caching() bool {
	return l.cache != nil && l.ttl > 0
}

func exactMatch(teachers []ratemyprof.Teacher, given, family string) *ratemyprof.Teacher {
	fold := cases.Fold()
	g := fold.String(strings.TrimSpace(given))
	f := fold.String(strings.TrimSpace(family))
	for i := range teachers {
		t := &teachers[i]
		if fold.String(strings.TrimSpace(t.FirstName)) == g && fold.String(strings.TrimSpace(t.LastName)) == f {
			return t
		}
	}
	return nil
}

func toProfile(t ratemyprof.Teacher, ratings []ratemyprof.Rating) *model.ProfessorProfile {
	p := &model.ProfessorProfile{
		ID:                    t.ID,
		Given:                 t.FirstName,
		Family:                t.LastName,
		Department:            t.Department,
		School:                t.School.Name,
		AvgRating:             t.AvgRating,
		AvgDifficulty:         t.AvgDifficulty,
		NumRatings:            t.NumRatings,
		WouldTakeAgainPercent: t.WouldTakeAgainPercent,
	}
	for _, r := range ratings {
		p.Comments = append(p.Comments, model.Comment{
			Comment: r.Comment,
			Tags:    r.Tags(),
			Class:   r.Class,
			Date:    r.Date,
		})
	}
	return p
}
