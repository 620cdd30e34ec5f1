// Package ads decides whether a sponsored audio spot plays before the next
// track, enforcing per-user daily frequency caps against a ledger store.
package ads

import (
	"math/rand"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultDailyCap is the maximum times one ad plays for one user per day.
	DefaultDailyCap = 3
	// DefaultProbability is the Bernoulli gate for showing an eligible ad.
	DefaultProbability = 0.8
)

// Engine selects an ad for a free-tier play transition, or none.
type Engine struct {
	catalog     Catalog
	ledger      LedgerStore
	placement   string
	dailyCap    int
	probability float64
	rng         *rand.Rand
	clock       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDailyCap overrides the per-user, per-ad daily cap.
func WithDailyCap(cap int) Option {
	return func(e *Engine) {
		if cap > 0 {
			e.dailyCap = cap
		}
	}
}

// WithProbability overrides the Bernoulli gate probability.
func WithProbability(p float64) Option {
	return func(e *Engine) {
		if p >= 0 && p <= 1 {
			e.probability = p
		}
	}
}

// WithRand injects a deterministic random source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithClock injects the clock used to derive the ledger day key.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// New creates an ad engine for the given placement.
func New(catalog Catalog, ledger LedgerStore, placement string, opts ...Option) *Engine {
	e := &Engine{
		catalog:     catalog,
		ledger:      ledger,
		placement:   placement,
		dailyCap:    DefaultDailyCap,
		probability: DefaultProbability,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Placement returns the placement identifier this engine serves.
func (e *Engine) Placement() string {
	return e.placement
}

// Decide returns the ad to insert before the next track, or nil.
//
// Candidates come from the catalog; an ad is eligible while its ledger
// count for (user, ad, today) is strictly below the daily cap. An empty
// eligible set or a failed Bernoulli trial means no ad, with no ledger
// change. Catalog and ledger errors never propagate: they resolve to
// "no ad" and "ineligible" respectively.
func (e *Engine) Decide(userID string) *Advertisement {
	candidates, err := e.catalog.Ads(e.placement)
	if err != nil {
		logrus.WithError(err).WithField("placement", e.placement).
			Debug("ad catalog unavailable, skipping ad")
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	day := DayOf(e.clock())
	eligible := lo.Filter(candidates, func(ad Advertisement, _ int) bool {
		count, err := e.ledger.Count(userID, ad.ID, day)
		if err != nil {
			logrus.WithError(err).WithField("ad", ad.ID).
				Debug("ledger read failed, ad treated as ineligible")
			return false
		}
		return count < e.dailyCap
	})
	if len(eligible) == 0 {
		return nil
	}

	if e.rng.Float64() >= e.probability {
		return nil
	}

	ad := eligible[e.rng.Intn(len(eligible))]
	return &ad
}

// RecordStart increments the ledger for an ad that started playing.
// Called once per ad start; this is a "shown" count, so a premium skip
// later does not undo it. Ledger failures are logged and discarded.
func (e *Engine) RecordStart(userID string, ad Advertisement) {
	day := DayOf(e.clock())
	if err := e.ledger.Increment(userID, ad.ID, day); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user": userID,
			"ad":   ad.ID,
		}).Warn("ledger increment failed")
	}
}
