package rxnav

import (
	"context"
	"net/url"
)

// DrugClass is one drug class membership from RxClass.
type DrugClass struct {
	ClassID    string `json:"classId,omitempty"`
	ClassName  string `json:"className,omitempty"`
	ClassType  string `json:"classType,omitempty"`
	RelaSource string `json:"relaSource,omitempty"`
}

type rxclassDrugInfo struct {
	RxclassMinConceptItem DrugClass `json:"rxclassMinConceptItem"`
}

type rxclassResponse struct {
	RxclassDrugInfoList struct {
		RxclassDrugInfo singleOrList[rxclassDrugInfo] `json:"rxclassDrugInfo"`
	} `json:"rxclassDrugInfoList"`
}

func (c *httpClient) ClassesByRxCUI(ctx context.Context, rxcui string) ([]DrugClass, error) {
	params := url.Values{}
	params.Set("rxcui", rxcui)
	reqURL := c.baseURL + "/REST/rxclass/class/byRxcui.json?" + params.Encode()

	var resp rxclassResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	infos := resp.RxclassDrugInfoList.RxclassDrugInfo
	out := make([]DrugClass, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.RxclassMinConceptItem)
	}
	return out, nil
}
