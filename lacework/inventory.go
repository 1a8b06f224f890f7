package lacework

import (
	"context"
	"net/http"

	"github.com/yairfalse/omista/types"
)

// MaxPageSize is the platform's documented cap on records per search
// call. The server chooses the actual page size; this is an upper bound.
const MaxPageSize = 5000

// SearchFilter is one filter clause in an inventory search.
type SearchFilter struct {
	Field      string `json:"field"`
	Expression string `json:"expression"`
	Value      string `json:"value"`
}

// TimeFilter bounds a search to a time window.
type TimeFilter struct {
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// InventorySearchRequest is the body of an inventory search call.
type InventorySearchRequest struct {
	CSP        string         `json:"csp"`
	TimeFilter *TimeFilter    `json:"timeFilter,omitempty"`
	Filters    []SearchFilter `json:"filters,omitempty"`
	Returns    []string       `json:"returns,omitempty"`
}

// AccountInventorySearch builds the standard full-account search request.
func AccountInventorySearch(accountID string, dates types.DateRange) InventorySearchRequest {
	req := InventorySearchRequest{
		CSP: "AWS",
		Filters: []SearchFilter{
			{Field: "cloudDetails.accountID", Expression: "eq", Value: accountID},
		},
		Returns: []string{
			"resourceId",
			"resourceType",
			"resourceConfig",
			"resourceTags",
			"cloudDetails",
		},
	}
	if !dates.IsZero() {
		req.TimeFilter = &TimeFilter{
			StartTime: dates.Start + "T00:00:00Z",
			EndTime:   dates.End + "T23:59:59Z",
		}
	}
	return req
}

// Paging carries the pagination cursor state of a search response.
type Paging struct {
	Rows      int `json:"rows"`
	TotalRows int `json:"totalRows"`
	URLs      struct {
		NextPage string `json:"nextPage"`
	} `json:"urls"`
}

// InventoryPage is one page of inventory search results.
type InventoryPage struct {
	Data   []types.ResourceRecord `json:"data"`
	Paging Paging                 `json:"paging"`
}

// SearchInventory issues the initial inventory search call.
func (c *Client) SearchInventory(ctx context.Context, req InventorySearchRequest) (*InventoryPage, error) {
	var page InventoryPage
	if err := c.doJSON(ctx, "inventory search", http.MethodPost, c.baseURL+"/api/v2/Inventory/search", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchInventoryPage follows a pagination cursor URL from a previous
// response.
func (c *Client) SearchInventoryPage(ctx context.Context, nextPageURL string) (*InventoryPage, error) {
	var page InventoryPage
	if err := c.doJSON(ctx, "inventory next page", http.MethodGet, nextPageURL, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
