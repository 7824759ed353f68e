package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/busmarket/bus-scraper/internal/database"
	"github.com/busmarket/bus-scraper/internal/models"
	"github.com/busmarket/bus-scraper/internal/parser"
)

// busContextKey carries the partial record from the listing request to its
// detail request, the way the original pipeline carried request-scoped state.
const busContextKey = "bus"

const retriesContextKey = "retries"

// retryStatusCodes are the transport failures worth re-fetching. Anything
// else is terminal for that record.
var retryStatusCodes = map[int]bool{
	400: true,
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// Store persists one finished record. Integrity conflicts roll back that
// record only; the crawl continues.
type Store interface {
	Save(ctx context.Context, bus *models.Bus) error
}

// Feed receives every finished record for the raw export file.
type Feed interface {
	Append(bus *models.Bus) error
}

type Config struct {
	StartURL      string
	AllowedDomain string
	// Source tags every record with the site it came from.
	Source      string
	UserAgent   string
	Parallelism int
	Delay       time.Duration
	RandomDelay time.Duration
	MaxRetries  int
}

// Crawler drives the two-stage fetch: listing pages yield partial records
// plus detail URLs; detail pages complete, validate and persist them. Each
// record is independent, so detail fetches run concurrently up to the
// configured parallelism.
type Crawler struct {
	cfg    Config
	parser *parser.BusParser
	store  Store
	feed   Feed
	logger *slog.Logger

	listings *colly.Collector
	details  *colly.Collector

	scraped atomic.Int64
	dropped atomic.Int64
}

func New(cfg Config, busParser *parser.BusParser, store Store, feed Feed, logger *slog.Logger) (*Crawler, error) {
	c := &Crawler{
		cfg:    cfg,
		parser: busParser,
		store:  store,
		feed:   feed,
		logger: logger.With("component", "crawler"),
	}

	listings := colly.NewCollector(
		colly.AllowedDomains(cfg.AllowedDomain),
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	limit := &colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}
	if err := listings.Limit(limit); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	details := listings.Clone()

	c.listings = listings
	c.details = details
	return c, nil
}

// Run crawls from the start URL until every queued page has been handled or
// the context is cancelled.
func (c *Crawler) Run(ctx context.Context) error {
	c.setupListingHandlers(ctx)
	c.setupDetailHandlers(ctx)

	c.logger.Info("starting crawl",
		"start_url", c.cfg.StartURL,
		"parallelism", c.cfg.Parallelism)

	if err := c.listings.Visit(c.cfg.StartURL); err != nil {
		return fmt.Errorf("failed to visit start url: %w", err)
	}

	c.listings.Wait()
	c.details.Wait()

	c.logger.Info("crawl finished",
		"scraped", c.scraped.Load(),
		"dropped", c.dropped.Load())
	return nil
}

func (c *Crawler) setupListingHandlers(ctx context.Context) {
	c.listings.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		c.logger.Debug("fetching listing page", "url", r.URL.String())
	})

	c.listings.OnResponse(func(r *colly.Response) {
		if r.StatusCode > 400 {
			c.logger.Warn("listing request returned error status",
				"url", r.Request.URL.String(),
				"status", r.StatusCode)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			c.logger.Error("failed to parse listing page",
				"url", r.Request.URL.String(),
				"error", err)
			return
		}

		entries := c.parser.ParseListingPage(doc, r.Request.URL, c.cfg.Source)
		c.logger.Info("parsed listing page",
			"url", r.Request.URL.String(),
			"entries", len(entries))

		for _, entry := range entries {
			reqCtx := colly.NewContext()
			reqCtx.Put(busContextKey, entry.Bus)
			if err := c.details.Request("GET", entry.DetailURL, nil, reqCtx, nil); err != nil {
				c.logger.Error("failed to queue detail page",
					"url", entry.DetailURL,
					"error", err)
			}
		}

		// Paginated listings index: queue the next page.
		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if !strings.Contains(strings.ToLower(a.Text()), "next") {
				return
			}
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			next := r.Request.AbsoluteURL(href)
			if next == "" {
				return
			}
			if err := r.Request.Visit(next); err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
				c.logger.Debug("skipping next page link", "url", next, "error", err)
			}
		})
	})

	c.listings.OnError(c.errorHandler("listing"))
}

func (c *Crawler) setupDetailHandlers(ctx context.Context) {
	c.details.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		c.logger.Debug("fetching detail page", "url", r.URL.String())
	})

	c.details.OnResponse(func(r *colly.Response) {
		bus, ok := r.Ctx.GetAny(busContextKey).(*models.Bus)
		if !ok {
			c.logger.Error("detail response without carried record",
				"url", r.Request.URL.String())
			return
		}

		if r.StatusCode > 400 {
			c.logger.Warn("detail request returned error status",
				"url", r.Request.URL.String(),
				"status", r.StatusCode)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			c.logger.Error("failed to parse detail page",
				"url", r.Request.URL.String(),
				"error", err)
			c.dropped.Add(1)
			return
		}

		c.parser.ParseDetailPage(doc, r.Request.URL, bus)
		parser.ValidateBus(bus)

		if err := c.store.Save(ctx, bus); err != nil {
			if database.IsIntegrityViolation(err) {
				c.logger.Warn("integrity conflict, record skipped",
					"source_url", bus.SourceURL,
					"error", err)
			} else {
				c.logger.Error("failed to save record",
					"source_url", bus.SourceURL,
					"error", err)
			}
			c.dropped.Add(1)
			return
		}

		if c.feed != nil {
			if err := c.feed.Append(bus); err != nil {
				c.logger.Warn("failed to append to feed",
					"source_url", bus.SourceURL,
					"error", err)
			}
		}

		c.scraped.Add(1)
		c.logger.Info("bus stored",
			"title", bus.Title,
			"id", bus.ID,
			"source_url", bus.SourceURL)
	})

	c.details.OnError(c.errorHandler("detail"))
}

// errorHandler retries transient failures and drops the record once retries
// are exhausted. No partial record is ever persisted for a failed fetch.
func (c *Crawler) errorHandler(kind string) colly.ErrorCallback {
	return func(r *colly.Response, err error) {
		url := r.Request.URL.String()

		if r.StatusCode > 400 {
			c.logger.Warn("request failed",
				"kind", kind,
				"url", url,
				"status", r.StatusCode,
				"error", err)
		} else {
			c.logger.Warn("request failed",
				"kind", kind,
				"url", url,
				"error", err)
		}

		retries, _ := r.Ctx.GetAny(retriesContextKey).(int)
		if retries < c.cfg.MaxRetries && (r.StatusCode == 0 || retryStatusCodes[r.StatusCode]) {
			r.Ctx.Put(retriesContextKey, retries+1)
			if retryErr := r.Request.Retry(); retryErr != nil {
				c.logger.Error("failed to retry request", "url", url, "error", retryErr)
			}
			return
		}

		if kind == "detail" {
			c.dropped.Add(1)
		}
		c.logger.Error("giving up on page",
			"kind", kind,
			"url", url,
			"retries", retries)
	}
}

// Scraped returns the number of records stored during this run.
func (c *Crawler) Scraped() int64 {
	return c.scraped.Load()
}

// Dropped returns the number of records abandoned during this run.
func (c *Crawler) Dropped() int64 {
	return c.dropped.Load()
}
