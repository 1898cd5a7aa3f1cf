package gateway

import (
	"context"
	"fmt"
	"net/url"
)

// DiseaseResult is one disease hit from MyDisease.info.
type DiseaseResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
}

type myDiseaseResponse struct {
	Hits []struct {
		ID    string `json:"_id"`
		Mondo struct {
			Label      string `json:"label"`
			Definition string `json:"definition"`
		} `json:"mondo"`
	} `json:"hits"`
}

// LookupDisease queries MyDisease.info for conditions matching q.
func (c *Client) LookupDisease(ctx context.Context, q string, limit int) ([]DiseaseResult, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}
	key := fmt.Sprintf("disease:%s:%d", q, limit)

	var results []DiseaseResult
	err := c.cached(ctx, "mydisease", key, &results, func() (interface{}, error) {
		u := fmt.Sprintf("%s/query?q=%s&fields=mondo.label,mondo.definition&size=%d",
			c.cfg.DiseaseBaseURL, url.QueryEscape(q), limit)
		var resp myDiseaseResponse
		if err := c.getJSON(ctx, u, &resp); err != nil {
			return nil, err
		}
		out := make([]DiseaseResult, 0, len(resp.Hits))
		for _, h := range resp.Hits {
			out = append(out, DiseaseResult{
				ID:         h.ID,
				Name:       h.Mondo.Label,
				Definition: h.Mondo.Definition,
			})
		}
		return out, nil
	})
	return results, err
}
