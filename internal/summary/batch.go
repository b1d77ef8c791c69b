package summary

import (
	"cmp"
	"context"
	"log"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/CollectionsReport/internal/activity"
)

// Batch is the result of summarizing a whole account roster.
type Batch struct {
	// Summaries has one entry per distinct roster account, in roster order.
	Summaries []Summary
	// Orphans are events whose account is not in the roster, in Seq order.
	Orphans []activity.ClassifiedEvent
}

// SummarizeRoster summarizes every account in roster, including accounts with
// no events. Accounts are independent and are summarized on up to workers
// goroutines (0 means GOMAXPROCS). Duplicate roster ids are collapsed.
func (s *Summarizer) SummarizeRoster(ctx context.Context, roster []string, events []activity.ClassifiedEvent, workers int) (*Batch, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ids := make([]string, 0, len(roster))
	known := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		if _, dup := known[id]; dup {
			continue
		}
		known[id] = struct{}{}
		ids = append(ids, id)
	}

	byAccount := make(map[string][]activity.ClassifiedEvent, len(ids))
	var orphans []activity.ClassifiedEvent
	for _, ev := range events {
		if _, ok := known[ev.AccountID]; !ok {
			orphans = append(orphans, ev)
			continue
		}
		byAccount[ev.AccountID] = append(byAccount[ev.AccountID], ev)
	}
	if len(orphans) > 0 {
		slices.SortStableFunc(orphans, func(a, b activity.ClassifiedEvent) int {
			return cmp.Compare(a.Seq, b.Seq)
		})
		log.Printf("%d events reference accounts missing from the roster", len(orphans))
	}

	summaries := make([]Summary, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i] = s.Summarize(id, byAccount[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Batch{Summaries: summaries, Orphans: orphans}, nil
}
