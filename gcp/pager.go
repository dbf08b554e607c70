/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package gcp

import (
	"context"

	"google.golang.org/api/iterator"
)

// PageFunc fetches the page addressed by token. It returns the page and the
// continuation token of the following page, which is empty on the last page.
type PageFunc[T any] func(ctx context.Context, token string) (page T, next string, err error)

// Pages iterates over the pages of a paginated list call. A page is only
// requested when Next is called, so a consumer that stops early never
// triggers the remaining requests. Pages is not safe for concurrent use.
type Pages[T any] struct {
	ctx   context.Context
	fetch PageFunc[T]
	token string
	done  bool
	err   error
}

// NewPages returns an iterator that starts with the first page of fetch.
func NewPages[T any](ctx context.Context, fetch PageFunc[T]) *Pages[T] {
	return &Pages[T]{ctx: ctx, fetch: fetch}
}

// Next fetches the next page. It returns iterator.Done once the last page
// was returned. Errors are not retried and every later call returns the
// same error.
func (p *Pages[T]) Next() (T, error) {
	var zero T
	if p.err != nil {
		return zero, p.err
	}
	if p.done {
		return zero, iterator.Done
	}
	if err := p.ctx.Err(); err != nil {
		p.err = err
		return zero, err
	}

	page, next, err := p.fetch(p.ctx, p.token)
	if err != nil {
		p.err = err
		return zero, err
	}
	p.token = next
	if next == "" {
		p.done = true
	}
	return page, nil
}

// Collect drains pages whose items are slices and concatenates the items in
// page order.
func Collect[T any](pages *Pages[[]T]) ([]T, error) {
	var items []T
	for {
		page, err := pages.Next()
		if err == iterator.Done {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
	}
}
