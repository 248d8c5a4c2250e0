package openfda

import (
	"context"
	"strings"

	"github.com/rxindex/medinfo-cli/internal/model"
)

// ActiveIngredient is one active ingredient entry from the NDC directory.
type ActiveIngredient struct {
	Name     string `json:"name,omitempty"`
	Strength string `json:"strength,omitempty"`
}

// Packaging is one package under an NDC directory product.
type Packaging struct {
	PackageNDC         string `json:"package_ndc,omitempty"`
	Description        string `json:"description,omitempty"`
	MarketingStartDate string `json:"marketing_start_date,omitempty"`
	MarketingEndDate   string `json:"marketing_end_date,omitempty"`
	Sample             bool   `json:"sample,omitempty"`
}

// NDCResult is one NDC directory product record.
type NDCResult struct {
	ProductNDC            string             `json:"product_ndc,omitempty"`
	ProductType           string             `json:"product_type,omitempty"`
	MarketingCategory     string             `json:"marketing_category,omitempty"`
	ApplicationNumber     string             `json:"application_number,omitempty"`
	BrandName             string             `json:"brand_name,omitempty"`
	GenericName           string             `json:"generic_name,omitempty"`
	LabelerName           string             `json:"labeler_name,omitempty"`
	DosageForm            string             `json:"dosage_form,omitempty"`
	Route                 []string           `json:"route,omitempty"`
	ActiveIngredients     []ActiveIngredient `json:"active_ingredients,omitempty"`
	MarketingStartDate    string             `json:"marketing_start_date,omitempty"`
	MarketingEndDate      string             `json:"marketing_end_date,omitempty"`
	ListingExpirationDate string             `json:"listing_expiration_date,omitempty"`
	Packaging             []Packaging        `json:"packaging,omitempty"`
	OpenFDA               model.OpenFDAMeta  `json:"openfda,omitempty"`
}

type ndcResponse struct {
	Results []NDCResult `json:"results"`
}

// NDCLookup searches the NDC directory. product_ndc is a top-level field
// while package_ndc lives under packaging, so a 3-segment input searches
// both, a 2-segment input only product_ndc, and anything else falls back
// to an exact match attempt against both fields.
func (c *httpClient) NDCLookup(ctx context.Context, ndc string, limit int) ([]NDCResult, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, strings.TrimSpace(ndc))

	var parts []string
	for _, p := range strings.Split(cleaned, "-") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	var productNDC, packageNDC string
	switch len(parts) {
	case 3:
		packageNDC = cleaned
		productNDC = parts[0] + "-" + parts[1]
	case 2:
		productNDC = cleaned
	}

	var terms []string
	if productNDC != "" {
		terms = append(terms, "product_ndc:"+Qstr(productNDC))
	}
	if packageNDC != "" {
		terms = append(terms, "packaging.package_ndc:"+Qstr(packageNDC))
	}
	if len(terms) == 0 {
		terms = []string{
			"product_ndc:" + Qstr(cleaned),
			"packaging.package_ndc:" + Qstr(cleaned),
		}
	}

	q := "(" + strings.Join(terms, " OR ") + ")"
	reqURL := c.searchURL("/drug/ndc", q, limit)

	var resp ndcResponse
	found, err := c.getJSON(ctx, reqURL, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resp.Results, nil
}
