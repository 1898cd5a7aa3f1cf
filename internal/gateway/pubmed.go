package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Article is one PubMed search hit.
type Article struct {
	PMID    string `json:"pmid"`
	Title   string `json:"title"`
	Journal string `json:"journal,omitempty"`
	PubDate string `json:"pub_date,omitempty"`
}

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryResponse struct {
	Result map[string]struct {
		Title    string `json:"title"`
		FullJrnl string `json:"fulljournalname"`
		PubDate  string `json:"pubdate"`
	} `json:"result"`
}

// SearchPubMed runs an esearch for q, then an esummary for the returned ids.
func (c *Client) SearchPubMed(ctx context.Context, q string, limit int) ([]Article, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	key := fmt.Sprintf("pubmed:%s:%d", q, limit)

	var articles []Article
	err := c.cached(ctx, "pubmed", key, &articles, func() (interface{}, error) {
		searchURL := fmt.Sprintf("%s/esearch.fcgi?db=pubmed&term=%s&retmax=%d&retmode=json",
			c.cfg.PubMedBaseURL, url.QueryEscape(q), limit)
		var search esearchResponse
		if err := c.getJSON(ctx, searchURL, &search); err != nil {
			return nil, err
		}
		ids := search.ESearchResult.IDList
		if len(ids) == 0 {
			return []Article{}, nil
		}

		summaryURL := fmt.Sprintf("%s/esummary.fcgi?db=pubmed&id=%s&retmode=json",
			c.cfg.PubMedBaseURL, strings.Join(ids, ","))
		var summary esummaryResponse
		if err := c.getJSON(ctx, summaryURL, &summary); err != nil {
			return nil, err
		}

		// Preserve search ranking: iterate ids, not the summary map.
		out := make([]Article, 0, len(ids))
		for _, id := range ids {
			s, ok := summary.Result[id]
			if !ok {
				continue
			}
			out = append(out, Article{
				PMID:    id,
				Title:   s.Title,
				Journal: s.FullJrnl,
				PubDate: s.PubDate,
			})
		}
		return out, nil
	})
	return articles, err
}
