package openfda

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rxindex/medinfo-cli/internal/model"
)

type labelResponse struct {
	Results []*model.Label `json:"results"`
}

// isSetID reports whether s is a hyphenated 8-4-4-4-12 UUID.
func isSetID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func (c *httpClient) LabelBySetID(ctx context.Context, setID string) (*model.Label, error) {
	sid := strings.TrimSpace(setID)
	if !isSetID(sid) {
		return nil, nil
	}

	reqURL := c.searchURL("/drug/label", "set_id:"+Qstr(sid), 1)

	var resp labelResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Results) == 0 {
		return nil, nil
	}
	return resp.Results[0], nil
}

func (c *httpClient) LabelByRxCUI(ctx context.Context, rxcui string) (*model.Label, error) {
	digits := QDigits(rxcui, 1, 16)
	if digits == "" {
		return nil, nil
	}

	reqURL := c.searchURL("/drug/label", "openfda.rxcui:"+Qstr(digits), 1)

	var resp labelResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Results) == 0 {
		return nil, nil
	}
	return resp.Results[0], nil
}

func (c *httpClient) LabelCandidates(ctx context.Context, name string, limit int) ([]*model.Label, error) {
	q := "(openfda.generic_name:" + Qstr(name) +
		" OR openfda.substance_name:" + Qstr(name) +
		" OR openfda.brand_name:" + Qstr(name) + ")"

	reqURL := c.searchURL("/drug/label", q, limit)

	var resp labelResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resp.Results, nil
}
