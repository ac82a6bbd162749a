package hierarchy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/employee"
)

// walkStats reports what a breadth-first walk observed besides the visited nodes.
type walkStats struct {
	visited   int
	revisited []int64
}

// walk performs a level-by-level breadth-first traversal below rootID using an
// explicit frontier and a single visited set. visit is called once per newly
// discovered employee in BFS order; returning false stops the walk early.
//
// Subordinate queries of one level may run concurrently; their results are
// merged in frontier order, so the visit order is the same as a sequential walk.
func (g *Guard) walk(ctx context.Context, op string, rootID int64, visit func(employee.Employee) bool) (walkStats, error) {
	var stats walkStats
	seen := map[int64]struct{}{rootID: {}}
	frontier := []int64{rootID}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		levels, err := g.expand(ctx, frontier)
		if err != nil {
			return stats, err
		}

		next := make([]int64, 0, len(frontier))
		for _, subs := range levels {
			for _, sub := range subs {
				if _, ok := seen[sub.ID]; ok {
					stats.revisited = append(stats.revisited, sub.ID)
					continue
				}
				seen[sub.ID] = struct{}{}
				stats.visited++
				if g.maxNodes > 0 && stats.visited > g.maxNodes {
					return stats, inconsistency(op, KindBoundExceeded, rootID)
				}
				if !visit(sub) {
					return stats, nil
				}
				next = append(next, sub.ID)
			}
		}
		frontier = next
	}
	return stats, nil
}

// expand fetches the direct subordinates of every id in the frontier.
// results[i] belongs to frontier[i].
func (g *Guard) expand(ctx context.Context, frontier []int64) ([][]employee.Employee, error) {
	results := make([][]employee.Employee, len(frontier))
	if g.concurrency <= 1 || len(frontier) == 1 {
		for i, id := range frontier {
			subs, err := g.store.GetSubordinates(ctx, id)
			if err != nil {
				return nil, err
			}
			results[i] = subs
		}
		return results, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, id := range frontier {
		eg.Go(func() error {
			subs, err := g.store.GetSubordinates(egCtx, id)
			if err != nil {
				return err
			}
			results[i] = subs
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
