package service

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/leads-extractor/internal/entity"
)

const defaultEnrichConcurrency = 3

// Contacts are the emails and phones found on a website.
type Contacts struct {
	Emails []string
	Phones []string
}

// ContactSource looks up the contacts published on a website.
type ContactSource interface {
	Contacts(ctx context.Context, website string) (Contacts, error)
}

// Enricher fills missing emails or phones of existing records from their websites.
type Enricher struct {
	source      ContactSource
	validator   *Validator
	concurrency int
	logger      *zap.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnrichLogger sets the logger.
func WithEnrichLogger(l *zap.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEnrichConcurrency bounds the number of websites visited at once.
func WithEnrichConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEnricher builds an Enricher.
func NewEnricher(source ContactSource, v *Validator, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		source:      source,
		validator:   v,
		concurrency: defaultEnrichConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type enrichField struct {
	name    string
	missing func(entity.BusinessRecord) bool
	fill    func(*Validator, *entity.BusinessRecord, Contacts) bool
}

var (
	emailField = enrichField{
		name:    "email",
		missing: func(r entity.BusinessRecord) bool { return r.Email == "" },
		fill: func(v *Validator, r *entity.BusinessRecord, c Contacts) bool {
			for _, raw := range c.Emails {
				if email, ok := v.NormalizeEmail(raw); ok {
					r.Email = email
					return true
				}
			}
			return false
		},
	}
	phoneField = enrichField{
		name:    "phone",
		missing: func(r entity.BusinessRecord) bool { return r.Phone == "" },
		fill: func(v *Validator, r *entity.BusinessRecord, c Contacts) bool {
			for _, raw := range c.Phones {
				if phone, ok := v.ValidatePhone(raw); ok {
					r.Phone = phone
					return true
				}
			}
			return false
		},
	}
)

// EnrichEmails looks up an email for every record that has a website but no email.
func (e *Enricher) EnrichEmails(ctx context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error) {
	return e.enrich(ctx, records, emailField)
}

// EnrichPhones looks up a phone for every record that has a website but no phone.
func (e *Enricher) EnrichPhones(ctx context.Context, records []entity.BusinessRecord) ([]entity.BusinessRecord, entity.EnrichStats, error) {
	return e.enrich(ctx, records, phoneField)
}

func (e *Enricher) enrich(ctx context.Context, records []entity.BusinessRecord, field enrichField) ([]entity.BusinessRecord, entity.EnrichStats, error) {
	out := make([]entity.BusinessRecord, len(records))
	var (
		mu    sync.Mutex
		stats entity.EnrichStats
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, rec := range records {
		out[i] = e.validator.ValidateBusinessResult(rec)
		website := out[i].Website
		if website == "" || !field.missing(out[i]) {
			stats.Skipped++
			continue
		}
		stats.Processed++

		g.Go(func() error {
			contacts, err := e.source.Contacts(gCtx, website)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				e.logger.Debug("enrichment lookup failed",
					zap.String("field", field.name),
					zap.String("website", website),
					zap.Error(err),
				)
				return nil
			}
			if field.fill(e.validator, &out[i], contacts) {
				stats.Enriched++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, entity.EnrichStats{}, eris.Wrapf(err, "enrich %ss", field.name)
	}

	e.logger.Info("enrichment completed",
		zap.String("field", field.name),
		zap.Int("processed", stats.Processed),
		zap.Int("enriched", stats.Enriched),
		zap.Int("failed", stats.Failed),
	)
	return RemoveDuplicates(out), stats, nil
}
