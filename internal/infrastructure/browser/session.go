package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/domain"
	"DiscountScanner/internal/ports"
)

// Retail sites check navigator.webdriver before rendering their offer
// grids; clearing it keeps the headless session indistinguishable enough.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined, configurable: true});`

// Factory launches configured chromedp sessions, one per scrape run.
type Factory struct {
	cfg    config.BrowserConfig
	logger *slog.Logger
}

var _ ports.SessionFactory = (*Factory)(nil)

// NewFactory wires the browser profile shared by all sessions.
func NewFactory(cfg config.BrowserConfig, logger *slog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// Launch starts a headless browser with a realistic profile and one page.
// A failure here is fatal to the run: no browser, no data.
func (f *Factory) Launch(ctx context.Context) (ports.BrowserSession, error) {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoSandbox,
		chromedp.UserAgent(f.cfg.UserAgent),
		chromedp.WindowSize(f.cfg.Width, f.cfg.Height),
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", f.cfg.Locale),
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	boot := chromedp.Tasks{
		emulation.SetTimezoneOverride(f.cfg.Timezone),
		emulation.SetLocaleOverride().WithLocale(f.cfg.Locale),
		// Registered before any navigation so the override is in place
		// when the page's own scripts first run.
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}
	if err := chromedp.Run(pageCtx, boot); err != nil {
		cancelPage()
		cancelAlloc()
		return nil, fmt.Errorf("%w: launch browser: %v", domain.ErrSession, err)
	}

	if f.logger != nil {
		f.logger.Debug("browser session launched", "headless", f.cfg.Headless, "locale", f.cfg.Locale)
	}

	return &Session{
		pageCtx:    pageCtx,
		cancelMain: cancelPage,
		cancelAux:  cancelAlloc,
		navTimeout: f.cfg.NavigationTimeout(),
		logger:     f.logger,
	}, nil
}

// Session owns one browser page for the duration of a scrape run.
type Session struct {
	pageCtx    context.Context
	cancelMain context.CancelFunc
	cancelAux  context.CancelFunc
	navTimeout time.Duration
	logger     *slog.Logger
	closeOnce  sync.Once
}

var _ ports.BrowserSession = (*Session)(nil)

// Navigate loads a page and blocks until the DOM is parsed. Full network
// idle is deliberately not awaited: ad slots on retail sites keep the
// network busy long after the offers have rendered.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(s.pageCtx, s.navTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: navigate %s: %v", domain.ErrSession, url, err)
	}
	return nil
}

// DismissOverlay waits for a cookie/consent element, clicks it, and waits
// for it to disappear. An empty selector skips the whole dance; a timeout
// is reported as an error for the caller to downgrade to a warning.
func (s *Session) DismissOverlay(ctx context.Context, selector string, timeout time.Duration) error {
	if selector == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(s.pageCtx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.WaitNotPresent(selector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("dismiss overlay %q: %w", selector, err)
	}
	return nil
}

// Text reads the visible text of the first element matching the selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(s.pageCtx, s.navTimeout)
	defer cancel()

	var out string
	if err := chromedp.Run(runCtx, chromedp.Text(selector, &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read text %q: %w", selector, err)
	}
	return out, nil
}

// HTML snapshots the rendered document. Everything downstream traverses
// this snapshot in memory, so a whole run costs one DOM round-trip here
// no matter how many products it extracts.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(s.pageCtx, s.navTimeout)
	defer cancel()

	var out string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("%w: snapshot document: %v", domain.ErrSession, err)
	}
	return out, nil
}

// Close releases the page and the browser process. Safe to call once from
// any error path; subsequent calls are no-ops.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancelMain()
		s.cancelAux()
		if s.logger != nil {
			s.logger.Debug("browser session closed")
		}
	})
	return nil
}
