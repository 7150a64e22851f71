package pagination

import (
	"context"
	"iter"
)

// Page is one remote listing page and the cursor that follows it
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// FetchFunc fetches the page starting at cursor. An empty cursor means the
// first page.
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Pager walks a cursor-paginated listing one page at a time. It is lazy,
// finite and cannot be restarted.
type Pager[T any] struct {
	fetch    FetchFunc[T]
	cursor   string
	maxPages int
	fetched  int
	visited  map[string]struct{}
	done     bool
	err      error
}

// New creates a pager that starts at startCursor and fetches at most maxPages
// pages. maxPages below 1 is treated as 1.
func New[T any](fetch FetchFunc[T], startCursor string, maxPages int) *Pager[T] {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Pager[T]{
		fetch:    fetch,
		cursor:   startCursor,
		maxPages: maxPages,
		visited:  make(map[string]struct{}),
	}
}

// Next fetches the next page. It returns false once the listing is exhausted,
// the page bound is reached, or a previous call failed.
func (p *Pager[T]) Next(ctx context.Context) (Page[T], bool, error) {
	if p.done || p.fetched >= p.maxPages {
		p.done = true
		return Page[T]{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		p.fail(err)
		return Page[T]{}, false, err
	}

	p.visited[p.cursor] = struct{}{}
	page, err := p.fetch(ctx, p.cursor)
	p.fetched++
	if err != nil {
		p.fail(err)
		return Page[T]{}, false, err
	}

	p.cursor = page.NextCursor
	if page.NextCursor == "" {
		p.done = true
	} else if _, seen := p.visited[page.NextCursor]; seen {
		// the remote pointed back at a page we already read, so there is
		// nothing left to resume from
		p.cursor = ""
		p.done = true
	}

	return page, true, nil
}

// All returns the remaining pages as a range-over-func sequence. Iteration
// stops after the first error is yielded.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		for {
			page, ok, err := p.Next(ctx)
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

// PagesFetched returns how many remote fetches the pager has issued
func (p *Pager[T]) PagesFetched() int {
	return p.fetched
}

// Cursor returns the cursor of the next unfetched page, or empty when the
// listing has no more pages
func (p *Pager[T]) Cursor() string {
	return p.cursor
}

// Done reports whether the pager will fetch nothing more
func (p *Pager[T]) Done() bool {
	return p.done || p.fetched >= p.maxPages
}

// Err returns the error that stopped the pager, if any
func (p *Pager[T]) Err() error {
	return p.err
}

func (p *Pager[T]) fail(err error) {
	p.err = err
	p.done = true
}

// Collect drains the pager into one slice, keeping the first item seen for
// each key. It returns the cursor where the walk stopped. Any page failure
// discards everything collected so far.
func Collect[T any, K comparable](ctx context.Context, p *Pager[T], key func(T) K) ([]T, string, error) {
	var items []T
	seen := make(map[K]struct{})

	for page, err := range p.All(ctx) {
		if err != nil {
			return nil, "", err
		}
		for _, item := range page.Items {
			k := key(item)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			items = append(items, item)
		}
	}

	if items == nil {
		items = []T{}
	}
	return items, p.Cursor(), nil
}
