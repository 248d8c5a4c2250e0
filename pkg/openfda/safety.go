package openfda

import "context"

// Enforcement is one recall enforcement report.
type Enforcement struct {
	RecallNumber         string `json:"recall_number,omitempty"`
	Status               string `json:"status,omitempty"`
	Classification       string `json:"classification,omitempty"`
	RecallingFirm        string `json:"recalling_firm,omitempty"`
	ProductDescription   string `json:"product_description,omitempty"`
	ReasonForRecall      string `json:"reason_for_recall,omitempty"`
	RecallInitiationDate string `json:"recall_initiation_date,omitempty"`
	ReportDate           string `json:"report_date,omitempty"`
	TerminationDate      string `json:"termination_date,omitempty"`
}

// Shortage is one drug shortage record.
type Shortage struct {
	Status             string `json:"status,omitempty"`
	GenericName        string `json:"generic_name,omitempty"`
	BrandName          string `json:"brand_name,omitempty"`
	Presentation       string `json:"presentation,omitempty"`
	PackageNDC         string `json:"package_ndc,omitempty"`
	ShortageReason     string `json:"shortage_reason,omitempty"`
	Availability       string `json:"availability,omitempty"`
	CompanyName        string `json:"company_name,omitempty"`
	UpdateDate         string `json:"update_date,omitempty"`
	InitialPostingDate string `json:"initial_posting_date,omitempty"`
}

// CountBucket is one term bucket from a count query.
type CountBucket struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type enforcementResponse struct {
	Results []Enforcement `json:"results"`
}

type shortageResponse struct {
	Results []Shortage `json:"results"`
}

type countResponse struct {
	Results []CountBucket `json:"results"`
}

func (c *httpClient) EnforcementSearch(ctx context.Context, search string, limit int) ([]Enforcement, error) {
	reqURL := c.searchURL("/drug/enforcement", search, limit)

	var resp enforcementResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resp.Results, nil
}

func (c *httpClient) ShortageSearch(ctx context.Context, search string, limit int) ([]Shortage, error) {
	reqURL := c.searchURL("/drug/shortages", search, limit)

	var resp shortageResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resp.Results, nil
}

func (c *httpClient) EventCount(ctx context.Context, search, countField string, limit int) ([]CountBucket, error) {
	reqURL := c.countURL("/drug/event", search, countField, limit)

	var resp countResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resp.Results, nil
}
