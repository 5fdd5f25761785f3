// Package search provides the search_news tool backed by a curated news feed.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/sentinell"
)

// ToolName is the name the model uses to call the tool.
const ToolName = "search_news"

// Topic is a set of headlines returned when a query mentions any of its keywords.
type Topic struct {
	Keywords  []string
	Headlines []string
}

// DefaultFeed is the curated feed used for demonstrations. Topics are matched in order and only
// the first matching topic is returned.
var DefaultFeed = []Topic{
	{
		Keywords: []string{"taiwan"},
		Headlines: []string{
			"BREAKING: Magnitude 7.4 Earthquake strikes off east coast of Taiwan.",
			"Taiwan Semiconductor Manufacturing Co (TSMC) evacuates factory areas due to safety protocols.",
			"Global supply chain analysts predict 2-week delays in semiconductor shipments.",
		},
	},
	{
		Keywords: []string{"vietnam"},
		Headlines: []string{
			"Vietnam Port Authority reports normal operations despite heavy rains.",
			"Tech manufacturing exports from Hanoi see 5% growth this quarter.",
		},
	},
	{
		Keywords: []string{"logistics", "shipping"},
		Headlines: []string{
			"Global container shipping rates stabilize after last month's spike.",
			"Air freight capacity increases on trans-pacific routes.",
		},
	},
}

// Tool searches recent headlines. It is read-only and safe for concurrent use.
type Tool struct {
	feed []Topic
}

var _ sentinell.Tool = (*Tool)(nil)

// Option configures a Tool.
type Option func(*Tool)

// WithFeed replaces the news feed.
func WithFeed(feed []Topic) Option {
	return func(t *Tool) {
		t.feed = feed
	}
}

// New creates a search_news tool.
func New(options ...Option) *Tool {
	t := &Tool{feed: DefaultFeed}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Spec implements sentinell.Tool.
func (x *Tool) Spec() sentinell.ToolSpec {
	return sentinell.ToolSpec{
		Name:        ToolName,
		Description: "Searches for recent news headlines and current events. Useful for monitoring external risks like weather, geopolitics, or strikes.",
		Parameters: []*sentinell.Parameter{
			{
				Name:        "query",
				Type:        sentinell.TypeString,
				Description: `The search keywords (e.g., "Taiwan earthquake", "Port strike LA").`,
				Required:    true,
			},
		},
	}
}

// Run implements sentinell.Tool.
func (x *Tool) Run(ctx context.Context, args sentinell.Args) (string, error) {
	return x.Search(ctx, args.String("query")), nil
}

// Search returns the formatted headlines for query, or a no-news message.
func (x *Tool) Search(ctx context.Context, query string) string {
	logger := ctxlog.From(ctx)
	logger.Info("searching news", "query", query)

	headlines := x.lookup(query)
	if len(headlines) == 0 {
		logger.Warn("no news found", "query", query)
		return fmt.Sprintf("No recent breaking news found regarding '%s'.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 **News Results for '%s':**\n", query)
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	logger.Debug("found news", "query", query, "count", len(headlines))
	return b.String()
}

func (x *Tool) lookup(query string) []string {
	q := strings.ToLower(query)
	for _, topic := range x.feed {
		for _, kw := range topic.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				return topic.Headlines
			}
		}
	}
	return nil
}
