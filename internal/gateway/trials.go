package gateway

import (
	"context"
	"fmt"
	"net/url"
)

// Trial is one ClinicalTrials.gov study.
type Trial struct {
	NCTID   string `json:"nct_id"`
	Title   string `json:"title"`
	Status  string `json:"status,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type trialsResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
			StatusModule struct {
				OverallStatus string `json:"overallStatus"`
			} `json:"statusModule"`
			DescriptionModule struct {
				BriefSummary string `json:"briefSummary"`
			} `json:"descriptionModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

// SearchTrials queries ClinicalTrials.gov v2 for studies matching condition.
func (c *Client) SearchTrials(ctx context.Context, condition string, limit int) ([]Trial, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	key := fmt.Sprintf("trials:%s:%d", condition, limit)

	var trials []Trial
	err := c.cached(ctx, "trials", key, &trials, func() (interface{}, error) {
		u := fmt.Sprintf("%s/studies?query.cond=%s&pageSize=%d",
			c.cfg.TrialsBaseURL, url.QueryEscape(condition), limit)
		var resp trialsResponse
		if err := c.getJSON(ctx, u, &resp); err != nil {
			return nil, err
		}
		out := make([]Trial, 0, len(resp.Studies))
		for _, s := range resp.Studies {
			ps := s.ProtocolSection
			out = append(out, Trial{
				NCTID:   ps.IdentificationModule.NCTID,
				Title:   ps.IdentificationModule.BriefTitle,
				Status:  ps.StatusModule.OverallStatus,
				Summary: ps.DescriptionModule.BriefSummary,
			})
		}
		return out, nil
	})
	return trials, err
}
