package provider

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/shopspring/decimal"
)

// ErrNoInvestments is returned by FetchHoldings when the credential has no
// investment accounts. Callers treat it as "nothing to do", not a failure.
var ErrNoInvestments = errors.New("no investment accounts on item")

const defaultCallTimeout = 30 * time.Second

// PlaidGateway implements Gateway against the Plaid API.
type PlaidGateway struct {
	client  *plaid.APIClient
	timeout time.Duration
}

func NewPlaidGateway(client *plaid.APIClient) *PlaidGateway {
	return &PlaidGateway{client: client, timeout: defaultCallTimeout}
}

func (g *PlaidGateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *PlaidGateway) ExchangePublicToken(ctx context.Context, publicToken string) (Credential, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	exchangeReq := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	exchangeResp, _, err := g.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*exchangeReq).Execute()
	if err != nil {
		return Credential{}, normalize("exchange_public_token", err)
	}

	cred := Credential{
		AccessToken: exchangeResp.GetAccessToken(),
		ItemID:      exchangeResp.GetItemId(),
	}

	// Institution details are best-effort; the exchange itself succeeded.
	itemReq := plaid.NewItemGetRequest(cred.AccessToken)
	itemResp, _, err := g.client.PlaidApi.ItemGet(ctx).ItemGetRequest(*itemReq).Execute()
	if err != nil {
		log.Printf("ERROR: Failed to fetch item details for item %s: %v", cred.ItemID, err)
		return cred, nil
	}
	item := itemResp.GetItem()
	if id, ok := item.GetInstitutionIdOk(); ok && id != nil {
		cred.InstitutionID = *id
	}
	if name, ok := item.AdditionalProperties["institution_name"].(string); ok {
		cred.InstitutionName = name
	}
	return cred, nil
}

func (g *PlaidGateway) FetchAccounts(ctx context.Context, accessToken string) ([]AccountData, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	request := plaid.NewAccountsGetRequest(accessToken)
	resp, _, err := g.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
	if err != nil {
		return nil, normalize("fetch_accounts", err)
	}

	accounts := make([]AccountData, 0, len(resp.GetAccounts()))
	for _, acc := range resp.GetAccounts() {
		if acc.GetAccountId() == "" {
			log.Printf("ERROR: Skipping provider account with empty account id")
			continue
		}
		balances := acc.GetBalances()

		accountType := string(acc.GetType())
		data := AccountData{
			AccountID:      acc.GetAccountId(),
			Name:           acc.GetName(),
			Type:           accountType,
			CurrentBalance: signedBalance(accountType, nullableAmount(balances.GetCurrentOk())),
			Currency:       "USD",
		}
		if v, ok := acc.GetOfficialNameOk(); ok && v != nil {
			data.OfficialName = v
		}
		if v, ok := acc.GetMaskOk(); ok && v != nil {
			data.Mask = v
		}
		if v, ok := acc.GetSubtypeOk(); ok && v != nil {
			subtype := string(*v)
			data.Subtype = &subtype
		}
		if v, ok := balances.GetAvailableOk(); ok && v != nil {
			d := decimal.NewFromFloat(*v)
			data.AvailableBalance = &d
		}
		if v, ok := balances.GetLimitOk(); ok && v != nil {
			d := decimal.NewFromFloat(*v)
			data.CreditLimit = &d
		}
		if v, ok := balances.GetIsoCurrencyCodeOk(); ok && v != nil {
			data.Currency = *v
		}
		accounts = append(accounts, data)
	}

	return accounts, nil
}

func (g *PlaidGateway) FetchHoldings(ctx context.Context, accessToken string) ([]HoldingData, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	request := plaid.NewInvestmentsHoldingsGetRequest(accessToken)
	resp, _, err := g.client.PlaidApi.InvestmentsHoldingsGet(ctx).InvestmentsHoldingsGetRequest(*request).Execute()
	if err != nil {
		if pe, convErr := plaid.ToPlaidError(err); convErr == nil {
			switch string(pe.GetErrorCode()) {
			case "NO_INVESTMENT_ACCOUNTS", "PRODUCTS_NOT_SUPPORTED", "PRODUCT_NOT_READY":
				return nil, ErrNoInvestments
			}
		}
		return nil, normalize("fetch_holdings", err)
	}

	// Securities are referenced by id from each holding.
	securities := make(map[string]plaid.Security, len(resp.GetSecurities()))
	for _, sec := range resp.GetSecurities() {
		securities[sec.GetSecurityId()] = sec
	}

	holdings := make([]HoldingData, 0, len(resp.GetHoldings()))
	for _, h := range resp.GetHoldings() {
		data := HoldingData{
			AccountID:  h.GetAccountId(),
			SecurityID: h.GetSecurityId(),
			Quantity:   decimal.NewFromFloat(h.GetQuantity()),
			Currency:   "USD",
		}
		if v, ok := h.GetCostBasisOk(); ok && v != nil {
			d := decimal.NewFromFloat(*v)
			data.CostBasis = &d
		}
		value := decimal.NewFromFloat(h.GetInstitutionValue())
		data.CurrentValue = &value
		if v, ok := h.GetIsoCurrencyCodeOk(); ok && v != nil {
			data.Currency = *v
		}

		if sec, ok := securities[h.GetSecurityId()]; ok {
			if v, ok := sec.GetTickerSymbolOk(); ok && v != nil {
				data.Symbol = *v
			}
			if v, ok := sec.GetNameOk(); ok && v != nil {
				data.Name = v
			}
			if v, ok := sec.GetClosePriceOk(); ok && v != nil {
				d := decimal.NewFromFloat(*v)
				data.CurrentPrice = &d
			}
		}
		// Cash positions come back with no ticker.
		if data.Symbol == "" {
			if data.Name != nil {
				data.Symbol = *data.Name
			} else {
				data.Symbol = "CASH"
			}
		}
		holdings = append(holdings, data)
	}

	return holdings, nil
}

func (g *PlaidGateway) FetchTransactions(ctx context.Context, accessToken, cursor string) (TransactionsPage, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	request := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		request.SetCursor(cursor)
	}
	resp, _, err := g.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
	if err != nil {
		return TransactionsPage{}, normalize("fetch_transactions", err)
	}

	page := TransactionsPage{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}
	page.Added = convertTransactions(resp.GetAdded())
	page.Modified = convertTransactions(resp.GetModified())
	for _, removed := range resp.GetRemoved() {
		page.Removed = append(page.Removed, removed.GetTransactionId())
	}
	return page, nil
}

func convertTransactions(txns []plaid.Transaction) []TransactionData {
	out := make([]TransactionData, 0, len(txns))
	for _, txn := range txns {
		date, err := time.Parse("2006-01-02", txn.GetDate())
		if err != nil {
			log.Printf("ERROR: Skipping transaction %s with bad date %q: %v", txn.GetTransactionId(), txn.GetDate(), err)
			continue
		}
		data := TransactionData{
			TransactionID: txn.GetTransactionId(),
			AccountID:     txn.GetAccountId(),
			Date:          date,
			Amount:        decimal.NewFromFloat(txn.GetAmount()),
			Description:   txn.GetName(),
			Pending:       txn.GetPending(),
		}
		if v, ok := txn.GetMerchantNameOk(); ok && v != nil {
			data.MerchantName = v
		}
		if pfc, ok := txn.GetPersonalFinanceCategoryOk(); ok && pfc != nil {
			data.Category = pfc.GetPrimary()
			data.CategoryDetailed = pfc.GetDetailed()
		}
		out = append(out, data)
	}
	return out
}

// signedBalance normalizes the provider's sign convention. Plaid reports
// money owed on credit and loan accounts as a positive current balance;
// storage keeps negative-means-owed so downstream consumers treat the sign
// uniformly across account types.
func signedBalance(accountType string, current decimal.Decimal) decimal.Decimal {
	switch accountType {
	case "credit", "loan":
		return current.Neg()
	}
	return current
}

func nullableAmount(v *float64, ok bool) decimal.Decimal {
	if !ok || v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

// normalize maps an SDK error to the engine's taxonomy.
func normalize(op string, err error) *Error {
	if isNetworkTimeout(err) {
		return newError(KindTransient, op, err)
	}
	if pe, convErr := plaid.ToPlaidError(err); convErr == nil {
		return classify(op, string(pe.GetErrorType()), string(pe.GetErrorCode()), err)
	}
	return newError(KindTransient, op, err)
}
