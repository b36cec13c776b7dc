package freshservice

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

// TicketSource is the part of Client the enricher needs.
type TicketSource interface {
	ListTickets(ctx context.Context, viewID string, page int) ([]TicketSummary, error)
	GetRequestedItems(ctx context.Context, ticketID string) (*RequestedItemRecord, error)
}

// Result pairs the listed tickets with their requested items. Items[i]
// belongs to Tickets[i].
type Result struct {
	Tickets []TicketSummary
	Items   Batch
}

// Empty counts the tickets that had no requested items.
func (r *Result) Empty() int {
	n := 0
	for _, it := range r.Items {
		if it == nil {
			n++
		}
	}
	return n
}

type Enricher struct {
	Source      TicketSource
	Concurrency int
	// MaxPages is how many view pages are listed. Zero means one.
	MaxPages int
	Logger   logrus.FieldLogger
}

func NewEnricher(source TicketSource, concurrency, maxPages int, logger logrus.FieldLogger) *Enricher {
	if source == nil {
		panic("NewEnricher: source is nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Enricher{
		Source:      source,
		Concurrency: concurrency,
		MaxPages:    maxPages,
		Logger:      logger,
	}
}

// ListAll lists view pages in order until MaxPages is reached or a page comes
// back short.
func (e *Enricher) ListAll(ctx context.Context, viewID string) ([]TicketSummary, error) {
	pages := e.MaxPages
	if pages < 1 {
		pages = 1
	}
	var all []TicketSummary
	for page := 1; page <= pages; page++ {
		tickets, err := e.Source.ListTickets(ctx, viewID, page)
		if err != nil {
			return nil, fmt.Errorf("list view %s page %d: %w", viewID, page, err)
		}
		e.logger(ctx).WithFields(logrus.Fields{
			"view_id": viewID,
			"page":    page,
			"tickets": len(tickets),
		}).Debug("Listed view page")
		all = append(all, tickets...)
		if len(tickets) < PageSize {
			break
		}
	}
	return all, nil
}

// EnrichBatch lists the view and fetches every ticket's requested items
// concurrently. The first failed fetch cancels the others and fails the whole
// batch.
func (e *Enricher) EnrichBatch(ctx context.Context, viewID string) (*Result, error) {
	tickets, err := e.ListAll(ctx, viewID)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Tickets: tickets,
		Items:   make(Batch, len(tickets)),
	}
	if len(tickets) == 0 {
		return res, nil
	}

	limit := e.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	start := time.Now()
	for i, t := range tickets {
		i, id := i, t.DisplayID.String()
		g.Go(func() error {
			rec, err := e.Source.GetRequestedItems(gctx, id)
			if err != nil {
				return fmt.Errorf("requested items of ticket %s: %w", id, err)
			}
			res.Items[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger(ctx).WithFields(logrus.Fields{
		"view_id":  viewID,
		"tickets":  len(tickets),
		"empty":    res.Empty(),
		"duration": time.Since(start),
	}).Info("Enriched tickets")
	return res, nil
}

func (e *Enricher) logger(ctx context.Context) logrus.FieldLogger {
	return loggerFromContext(ctx, e.Logger)
}
