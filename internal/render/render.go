// Package render turns report HTML into PDF bytes with headless Chrome.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var (
	// ErrRender wraps every failure producing a PDF, timeouts included.
	ErrRender = errors.New("pdf render failed")
	// ErrNotInitialized is returned by Render before Init or after Close.
	ErrNotInitialized = errors.New("renderer not initialized")
)

const defaultTimeout = 60 * time.Second

// A4 in inches, which is what PrintToPDF measures in.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 0.4
)

type Options struct {
	Timeout time.Duration
	// ChromePath overrides the browser binary chromedp would find on PATH.
	ChromePath string
}

// Renderer owns one headless browser. Init starts it, Close stops it, and
// Render may be called any number of times in between.
type Renderer struct {
	opts Options

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func New(opts Options) *Renderer {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Renderer{opts: opts}
}

// Init launches the browser. The browser outlives ctx only as far as ctx
// allows: cancelling ctx kills it.
func (r *Renderer) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil {
		return nil
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)

	if r.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.opts.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run on a fresh context starts the browser. It must not carry a
	// deadline, cancelling it would kill the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()

		return fmt.Errorf("%w: starting browser: %w", ErrRender, err)
	}

	r.browserCtx = browserCtx
	r.cancelAlloc = cancelAlloc
	r.cancelBrowser = cancelBrowser

	return nil
}

// Render prints html to an A4 PDF with backgrounds. Each call uses its own
// tab and is bounded by the configured timeout.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	r.mu.Lock()
	browserCtx := r.browserCtx
	r.mu.Unlock()

	if browserCtx == nil {
		return nil, ErrNotInitialized
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.opts.Timeout)
	defer cancelTimeout()

	// Propagate the caller's cancellation into the tab.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var pdf []byte

	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}

			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			if err != nil {
				return err
			}

			pdf = buf

			return nil
		}),
	)
	if err != nil {
		if ctxErr := tabCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrRender, ctxErr)
		}

		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	return pdf, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx == nil {
		return nil
	}

	r.cancelBrowser()
	r.cancelAlloc()

	r.browserCtx = nil
	r.cancelBrowser = nil
	r.cancelAlloc = nil

	return nil
}
