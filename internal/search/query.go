package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit applies when Params.Limit is not positive.
const DefaultLimit = 20

// Params configures a search.
type Params struct {
	Query    string
	MenuName string // restrict to one menu; empty searches all
	Limit    int
	Offset   int
}

// Result holds matching items ordered by relevance.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching item.
type Hit struct {
	ItemID     int64             `json:"item_id"`
	Name       string            `json:"name"`
	MenuName   string            `json:"menu_name"`
	URL        string            `json:"url,omitempty"`
	NamedURL   string            `json:"named_url,omitempty"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs a query against item labels, urls and route names.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	if params.Query == "" {
		req.SortBy([]string{"menu_name", "order", "item_id"})
	} else {
		req.SortBy([]string{"-_score", "item_id"})
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
	}
	req.Fields = []string{"item_id", "name", "menu_name", "url", "named_url"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if id, ok := h.Fields["item_id"].(float64); ok {
			hit.ItemID = int64(id)
		}
		hit.Name, _ = h.Fields["name"].(string)
		hit.MenuName, _ = h.Fields["menu_name"].(string)
		hit.URL, _ = h.Fields["url"].(string)
		hit.NamedURL, _ = h.Fields["named_url"].(string)

		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}

// buildSearchQuery matches the label first, then url and route name,
// with fuzzy and prefix fallbacks on the label for typos and autocomplete.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		urlMatch := bleve.NewMatchQuery(q)
		urlMatch.SetField("url")
		urlMatch.SetBoost(1.0)

		routeMatch := bleve.NewTermQuery(q)
		routeMatch.SetField("named_url")
		routeMatch.SetBoost(2.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)

		text := []query.Query{nameMatch, urlMatch, routeMatch, fuzzy}

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.MenuName != "" {
		menu := bleve.NewTermQuery(params.MenuName)
		menu.SetField("menu_name")
		queries = append(queries, menu)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
