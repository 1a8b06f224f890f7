package lacework

import (
	"context"
	"net/http"

	"github.com/yairfalse/omista/types"
)

// awsConfigIntegration is the platform's AWS configuration integration
// type; one exists per monitored AWS account.
const awsConfigIntegration = "AwsCfg"

type cloudAccountEntry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Enabled  int    `json:"enabled"`
	IntgGUID string `json:"intgGuid"`
	Data     struct {
		AWSAccountID string `json:"awsAccountId"`
	} `json:"data"`
	// Some tenants report the account id at the top level instead.
	AWSAccountID string `json:"awsAccountId"`
}

// ListAWSAccounts returns the enabled AWS accounts integrated with the
// platform. Disabled integrations and entries without an account id are
// dropped.
func (c *Client) ListAWSAccounts(ctx context.Context) ([]types.Account, error) {
	var resp struct {
		Data []cloudAccountEntry `json:"data"`
	}
	if err := c.doJSON(ctx, "list cloud accounts", http.MethodGet, c.baseURL+"/api/v2/CloudAccounts", nil, &resp); err != nil {
		return nil, err
	}

	var accounts []types.Account
	for _, entry := range resp.Data {
		if entry.Type != awsConfigIntegration || entry.Enabled != 1 {
			continue
		}
		accountID := entry.Data.AWSAccountID
		if accountID == "" {
			accountID = entry.AWSAccountID
		}
		if accountID == "" {
			continue
		}
		accounts = append(accounts, types.Account{
			ID:              accountID,
			Alias:           entry.Name,
			Enabled:         true,
			IntegrationGUID: entry.IntgGUID,
		})
	}
	return accounts, nil
}
