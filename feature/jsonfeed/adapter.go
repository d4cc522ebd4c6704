package jsonfeed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"
	"unisync/core/utils"

	"go.uber.org/zap"
)

const (
	// Kind is the adapter name used in institution config.
	Kind = "jsonfeed"

	placeholderPage  = "{page}"
	placeholderSince = "{since}"

	defaultMaxPages = 1000
)

// Adapter reads catalog records from a JSON API. Each category is served by
// an endpoint template from the institution config; categories without an
// endpoint are unsupported.
type Adapter struct {
	client    *source.Client
	endpoints map[catalog.Category]string
	firstPage int
	maxPages  int
	logger    *zap.Logger
}

// New creates an adapter for inst. Endpoint keys must be category names.
// Recognized options: first_page (default 1) and max_pages (default 1000).
func New(inst source.Institution, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if inst.BaseURL == "" {
		return nil, fmt.Errorf("jsonfeed %s: base_url is required", inst.Code)
	}

	endpoints := make(map[catalog.Category]string, len(inst.Endpoints))
	for name, tmpl := range inst.Endpoints {
		c, err := catalog.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("jsonfeed %s: endpoint %q: %w", inst.Code, name, err)
		}
		endpoints[c] = tmpl
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("jsonfeed %s: no endpoints configured", inst.Code)
	}

	client, err := source.NewClient(source.ClientConfig{
		BaseURL:         inst.BaseURL,
		RequestInterval: inst.RequestInterval,
		Burst:           inst.Burst,
		UserAgent:       inst.Option("user_agent", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("jsonfeed %s: %w", inst.Code, err)
	}

	firstPage := utils.ToInt(inst.Option("first_page", "1"))
	maxPages := utils.ToInt(inst.Option("max_pages", strconv.Itoa(defaultMaxPages)))
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	return &Adapter{
		client:    client,
		endpoints: endpoints,
		firstPage: firstPage,
		maxPages:  maxPages,
		logger:    logger.With(zap.String("institution", inst.Code)),
	}, nil
}

// Categories lists the categories with a configured endpoint.
func (a *Adapter) Categories() []catalog.Category {
	var out []catalog.Category
	for _, c := range catalog.AllCategories() {
		if _, ok := a.endpoints[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Fetch walks the category's pages. Pagination follows the envelope's next
// link when present, otherwise increments {page} until an empty page.
func (a *Adapter) Fetch(ctx context.Context, category catalog.Category, hint source.Hint) source.Sequence {
	tmpl, ok := a.endpoints[category]
	if !ok {
		return source.Failed(fmt.Errorf("jsonfeed %s: %w", category, source.ErrUnsupportedCategory))
	}

	since := ""
	if hint.Mode == source.ModeIncremental && !hint.Since.IsZero() {
		since = hint.Since.UTC().Format(time.RFC3339)
	}
	paged := strings.Contains(tmpl, placeholderPage)

	return func(yield func(catalog.Record, error) bool) {
		page := a.firstPage
		ref := expand(tmpl, page, since)

		for n := 1; ; n++ {
			if n > a.maxPages {
				yield(nil, source.NewFetchError(source.KindBadResponse, ref,
					fmt.Errorf("more than %d pages", a.maxPages)))
				return
			}

			a.logger.Debug("Fetching page",
				zap.String("category", string(category)),
				zap.String("ref", ref))

			body, err := a.client.Get(ctx, ref)
			if err != nil {
				yield(nil, err)
				return
			}
			env, err := decodeEnvelope(body)
			if err != nil {
				yield(nil, source.NewFetchError(source.KindBadResponse, ref, err))
				return
			}

			for i, item := range env.Items {
				rec, err := decodeRecord(category, item)
				if err != nil {
					err = source.NewParseError(fmt.Sprintf("page %d item %d", n, i+1), err)
				}
				if !yield(rec, err) {
					return
				}
			}

			switch {
			case env.Next != "":
				ref = env.Next
			case paged && len(env.Items) > 0:
				page++
				ref = expand(tmpl, page, since)
			default:
				return
			}
		}
	}
}

// expand fills the {page} and {since} placeholders.
func expand(tmpl string, page int, since string) string {
	return strings.NewReplacer(
		placeholderPage, strconv.Itoa(page),
		placeholderSince, url.QueryEscape(since),
	).Replace(tmpl)
}
