// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog drives a scriptable browser session against the CORDIS
// search interface and extracts candidate projects from the rendered page.
//
// See docs/ARCHITECTURE § Catalog Search.
package catalog

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

// Session is a rendered-page browser session. The collector acquires one
// session per batch, injects it into the client, and releases it on all
// exit paths; tests substitute a fake.
type Session interface {
	// Navigate loads the given URL in the session's page.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current rendered page markup.
	HTML(ctx context.Context) (string, error)

	// Close releases the session and its browser process.
	Close() error
}

// BrowserSession is a chromedp-backed Session.
type BrowserSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// NewBrowserSession launches a headless Chrome instance. Failure to start
// the browser is reported as ErrSessionUnavailable: the whole batch is
// unusable without a session.
func NewBrowserSession(cfg types.CatalogConfig) (*BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Start the browser now so session failures surface before the first query.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	return &BrowserSession{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}, nil
}

// runContext derives a context for one browser action: it carries the
// session's browser state but is cancelled as soon as the caller's ctx
// is, so a batch timeout aborts an in-flight page load instead of
// waiting it out. The returned release func must be called when the
// action finishes.
func (s *BrowserSession) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url and waits for the document body to be ready.
func (s *BrowserSession) Navigate(ctx context.Context, url string) error {
	runCtx, release := s.runContext(ctx)
	defer release()

	if err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// HTML returns the rendered page's outer HTML.
func (s *BrowserSession) HTML(ctx context.Context) (string, error) {
	runCtx, release := s.runContext(ctx)
	defer release()

	var html string
	if err := chromedp.Run(runCtx,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("reading rendered page: %w", err)
	}
	return html, nil
}

// Close tears down the browser process.
func (s *BrowserSession) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}
