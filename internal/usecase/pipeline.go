package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/domain"
	"DiscountScanner/internal/ports"
	"DiscountScanner/internal/scrape"
)

// PipelineDeps wires all driven adapters into the scrape orchestration.
type PipelineDeps struct {
	Sessions       ports.SessionFactory
	Registry       *scrape.Registry
	Reconciler     ports.Reconciler
	Journal        ports.RunJournal
	Notifier       ports.Notifier
	ChatClient     ports.ChatClient
	Retailers      []config.RetailerConfig
	OverlayTimeout time.Duration
	Logger         *slog.Logger
	Clock          func() time.Time
}

// Pipeline drives one retailer scrape end to end: session, navigation,
// cookie handling, expiry, per-category discovery, per-product extraction,
// and reconciliation, with the audit row finalized on every exit path.
type Pipeline struct {
	sessions       ports.SessionFactory
	registry       *scrape.Registry
	reconciler     ports.Reconciler
	journal        ports.RunJournal
	notifier       ports.Notifier
	chatClient     ports.ChatClient
	retailers      []config.RetailerConfig
	overlayTimeout time.Duration
	logger         *slog.Logger
	clock          func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	overlayTimeout := deps.OverlayTimeout
	if overlayTimeout <= 0 {
		overlayTimeout = 15 * time.Second
	}
	return &Pipeline{
		sessions:       deps.Sessions,
		registry:       deps.Registry,
		reconciler:     deps.Reconciler,
		journal:        deps.Journal,
		notifier:       deps.Notifier,
		chatClient:     deps.ChatClient,
		retailers:      deps.Retailers,
		overlayTimeout: overlayTimeout,
		logger:         deps.Logger,
		clock:          clock,
	}
}

// RunScrape executes one full scrape-and-reconcile cycle for a retailer.
// Safe to call repeatedly; concurrent calls for the same retailer are
// serialized by the reconciler's per-retailer lock.
func (p *Pipeline) RunScrape(ctx context.Context, retailer string) (domain.ReconciliationSummary, error) {
	var summary domain.ReconciliationSummary

	target, ok := p.target(retailer)
	if !ok {
		return summary, fmt.Errorf("retailer %s is not configured", retailer)
	}

	var runID int64
	if p.journal != nil {
		id, err := p.journal.StartRun(ctx, target.Name)
		if err != nil {
			p.warn("cannot open audit row", "retailer", target.Name, "error", err)
		} else {
			runID = id
		}
	}

	records, expiry, err := p.scrapeRetailer(ctx, target)
	if err != nil {
		p.finish(ctx, runID, domain.RunFailed, 0, summary, err.Error())
		return summary, err
	}

	summary, err = p.reconciler.Reconcile(ctx, target.Name, expiry, records)
	if err != nil {
		p.finish(ctx, runID, domain.RunFailed, len(records), domain.ReconciliationSummary{}, err.Error())
		return domain.ReconciliationSummary{}, err
	}

	status := domain.RunSuccess
	if len(records) == 0 {
		// Zero products is indistinguishable from a silently changed page
		// structure, so it gets its own status and nothing was deactivated.
		status = domain.RunEmpty
		p.warn("scrape produced no products", "retailer", target.Name)
	}
	p.finish(ctx, runID, status, len(records), summary, "")

	if p.notifier != nil {
		if err := p.notifier.PublishSummary(ctx, target.Name, status, summary); err != nil {
			p.warn("publish summary", "retailer", target.Name, "error", err)
		}
	}
	if p.chatClient != nil && len(records) > 0 {
		payload, err := buildDigestJSON(records)
		if err == nil {
			err = p.chatClient.SendDigest(ctx, payload)
		}
		if err != nil {
			p.warn("send deal digest", "retailer", target.Name, "error", err)
		}
	}

	return summary, nil
}

// scrapeRetailer walks the run state machine up to the aggregated record
// list. The session is closed on every path out of here.
func (p *Pipeline) scrapeRetailer(ctx context.Context, target config.RetailerConfig) ([]domain.ProductDiscountRecord, time.Time, error) {
	var none time.Time

	extractor, err := p.registry.Resolve(target.Extractor)
	if err != nil {
		return nil, none, fmt.Errorf("retailer %s: %w", target.Name, err)
	}

	session, err := p.sessions.Launch(ctx)
	if err != nil {
		return nil, none, err
	}
	defer func() { _ = session.Close() }()

	if err := session.Navigate(ctx, target.URL); err != nil {
		return nil, none, err
	}

	if target.CookieSelector != "" {
		if err := session.DismissOverlay(ctx, target.CookieSelector, p.overlayTimeout); err != nil {
			p.warn("cookie banner not dismissed", "retailer", target.Name, "error", err)
		}
	}

	rawPeriod, err := session.Text(ctx, target.ExpirySelector)
	if err != nil {
		// The browser failed to deliver the element; parse errors proper
		// come out of ParseExpiry below.
		return nil, none, fmt.Errorf("%w: read period text: %v", domain.ErrSession, err)
	}
	expiry, markerFound, err := scrape.ParseExpiry(rawPeriod, p.clock())
	if err != nil {
		return nil, none, err
	}
	if !markerFound {
		p.warn("period text without t/m marker", "retailer", target.Name, "text", rawPeriod)
	}

	html, err := session.HTML(ctx)
	if err != nil {
		return nil, none, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, none, fmt.Errorf("%w: parse document: %v", domain.ErrSession, err)
	}

	var records []domain.ProductDiscountRecord
	for _, categorySelector := range target.Categories {
		category, err := scrape.DiscoverCategory(doc, categorySelector, target.ProductSelector)
		if err != nil {
			p.error("category discovery failed", "retailer", target.Name, "selector", categorySelector, "error", err)
			continue
		}
		if len(category.Anchors) == 0 {
			p.warn("category has no products", "retailer", target.Name, "category", category.Name)
			continue
		}

		for _, anchor := range category.Anchors {
			fields := extractor.ExtractProduct(anchor, target.Fields)
			if fields.Name == "" {
				p.warn("dropping product without name", "retailer", target.Name, "category", category.Name)
				continue
			}
			records = append(records, domain.ProductDiscountRecord{
				Name:          fields.Name,
				OriginalPrice: fields.OriginalPrice,
				DiscountPrice: fields.DiscountPrice,
				PromotionTag:  fields.PromotionTag,
				Category:      category.Name,
				Retailer:      target.Name,
				ExpiresOn:     expiry,
			})
		}
		p.debug("category scanned", "retailer", target.Name, "category", category.Name, "products", len(category.Anchors))
	}

	return records, expiry, nil
}

func (p *Pipeline) target(retailer string) (config.RetailerConfig, bool) {
	for _, t := range p.retailers {
		if t.Name == retailer {
			return t, true
		}
	}
	return config.RetailerConfig{}, false
}

func (p *Pipeline) finish(ctx context.Context, runID int64, status domain.RunStatus, scraped int, summary domain.ReconciliationSummary, errMessage string) {
	if p.journal == nil || runID == 0 {
		return
	}
	if err := p.journal.FinishRun(ctx, runID, status, scraped, summary, errMessage); err != nil {
		p.warn("cannot finalize audit row", "run_id", runID, "error", err)
	}
}

func buildDigestJSON(records []domain.ProductDiscountRecord) ([]byte, error) {
	type item struct {
		Name          string  `json:"name"`
		Category      string  `json:"category"`
		Retailer      string  `json:"retailer"`
		OriginalPrice float64 `json:"originalPrice"`
		DiscountPrice float64 `json:"discountPrice"`
		PromotionTag  string  `json:"promotionTag,omitempty"`
	}

	payload := make([]item, 0, len(records))
	for _, rec := range records {
		payload = append(payload, item{
			Name:          rec.Name,
			Category:      rec.Category,
			Retailer:      rec.Retailer,
			OriginalPrice: rec.OriginalPrice,
			DiscountPrice: rec.DiscountPrice,
			PromotionTag:  rec.PromotionTag,
		})
	}

	return json.Marshal(payload)
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
