package rxnav

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Candidate is one RxNorm approximate-match candidate. RxNorm returns
// score and rank as strings.
type Candidate struct {
	RxCUI  string `json:"rxcui"`
	RxAUI  string `json:"rxaui,omitempty"`
	Score  string `json:"score"`
	Rank   string `json:"rank"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"`
}

// ScoreValue parses the match score, 0 when unparseable.
func (c Candidate) ScoreValue() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Score), 64)
	if err != nil {
		return 0
	}
	return v
}

// RankValue parses the match rank; unparseable ranks sort last.
func (c Candidate) RankValue() int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Rank))
	if err != nil {
		return 999999
	}
	return v
}

type approximateResponse struct {
	ApproximateGroup struct {
		Candidate singleOrList[Candidate] `json:"candidate"`
	} `json:"approximateGroup"`
}

func (c *httpClient) ApproximateMatches(ctx context.Context, term string, maxEntries int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("maxEntries", strconv.Itoa(maxEntries))
	params.Set("option", "1")
	reqURL := c.baseURL + "/REST/approximateTerm.json?" + params.Encode()

	var resp approximateResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	return resp.ApproximateGroup.Candidate, nil
}

type propertiesResponse struct {
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

func (c *httpClient) NameForRxCUI(ctx context.Context, rxcui string) (string, error) {
	reqURL := c.baseURL + "/REST/rxcui/" + url.PathEscape(rxcui) + "/properties.json"

	var resp propertiesResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return "", err
	}
	return resp.Properties.Name, nil
}
