package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/plrectco/dcf/internal/logger"
	"golang.org/x/time/rate"
)

var ErrNotFound = errors.New("symbol not found")

// modules needed to build a DCF snapshot
var defaultModules = []string{
	"defaultKeyStatistics",
	"financialData",
	"earningsTrend",
	"incomeStatementHistory",
	"balanceSheetHistory",
	"cashflowStatementHistory",
}

// DefaultCookieURL hands out the session cookie that getcrumb requires.
const DefaultCookieURL = "https://fc.yahoo.com"

// Client calls the v10 quoteSummary endpoint. Yahoo only answers it for a
// session that holds a cookie from CookieURL and passes the matching crumb,
// so the first request performs that handshake and the crumb is reused
// until a 401 invalidates it. An empty CookieURL skips the handshake, for
// proxies that already attach credentials.
type Client struct {
	HttpClient *http.Client
	BaseURL    string
	CookieURL  string
	MaxRetries int
	RetryAfter time.Duration

	limiter *rate.Limiter

	crumbMu sync.Mutex
	crumb   string
}

// NewClient copies httpClient and gives the copy a cookie jar when it has
// none, so the session cookie survives between requests.
func NewClient(baseURL string, httpClient *http.Client, requestsPerSecond int) *Client {
	if httpClient.Jar == nil {
		if jar, err := cookiejar.New(nil); err == nil {
			withJar := *httpClient
			withJar.Jar = jar
			httpClient = &withJar
		}
	}

	return &Client{
		HttpClient: httpClient,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		CookieURL:  DefaultCookieURL,
		MaxRetries: 3,
		RetryAfter: 5 * time.Second,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// Value is Yahoo's {"raw": 1.2, "fmt": "1.2"} wrapper. Missing line items
// come back as {} so Raw is nil.
type Value struct {
	Raw *float64 `json:"raw"`
}

type IncomeStatement struct {
	EndDate          Value `json:"endDate"`
	InterestExpense  Value `json:"interestExpense"`
	IncomeTaxExpense Value `json:"incomeTaxExpense"`
	IncomeBeforeTax  Value `json:"incomeBeforeTax"`
}

type BalanceSheet struct {
	EndDate Value `json:"endDate"`
	Cash    Value `json:"cash"`
}

type CashflowStatement struct {
	EndDate                          Value `json:"endDate"`
	TotalCashFromOperatingActivities Value `json:"totalCashFromOperatingActivities"`
	CapitalExpenditures              Value `json:"capitalExpenditures"`
}

type Trend struct {
	Period string `json:"period"`
	Growth Value  `json:"growth"`
}

type QuoteSummary struct {
	DefaultKeyStatistics struct {
		Beta Value `json:"beta"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		CurrentPrice Value `json:"currentPrice"`
		TotalDebt    Value `json:"totalDebt"`
		TotalCash    Value `json:"totalCash"`
		FreeCashflow Value `json:"freeCashflow"`
	} `json:"financialData"`
	EarningsTrend struct {
		Trend []Trend `json:"trend"`
	} `json:"earningsTrend"`
	IncomeStatementHistory struct {
		IncomeStatementHistory []IncomeStatement `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory struct {
		BalanceSheetStatements []BalanceSheet `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	CashflowStatementHistory struct {
		CashflowStatements []CashflowStatement `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

// GrowthEstimate returns the analyst growth estimate for a period such as "+1y".
func (q QuoteSummary) GrowthEstimate(period string) *float64 {
	for _, t := range q.EarningsTrend.Trend {
		if t.Period == period {
			return t.Growth.Raw
		}
	}
	return nil
}

// statements are ordered most recent first
func (q QuoteSummary) LatestIncomeStatement() *IncomeStatement {
	if len(q.IncomeStatementHistory.IncomeStatementHistory) == 0 {
		return nil
	}
	return &q.IncomeStatementHistory.IncomeStatementHistory[0]
}

func (q QuoteSummary) LatestBalanceSheet() *BalanceSheet {
	if len(q.BalanceSheetHistory.BalanceSheetStatements) == 0 {
		return nil
	}
	return &q.BalanceSheetHistory.BalanceSheetStatements[0]
}

func (q QuoteSummary) LatestCashflowStatement() *CashflowStatement {
	if len(q.CashflowStatementHistory.CashflowStatements) == 0 {
		return nil
	}
	return &q.CashflowStatementHistory.CashflowStatements[0]
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []QuoteSummary `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *Client) GetQuoteSummary(ctx context.Context, symbol string) (*QuoteSummary, error) {
	return c.getQuoteSummary(ctx, symbol, 0)
}

func (c *Client) getQuoteSummary(ctx context.Context, symbol string, attempt int) (*QuoteSummary, error) {
	log := logger.FromContext(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("modules", strings.Join(defaultModules, ","))
	if c.CookieURL != "" {
		crumb, err := c.getCrumb(ctx)
		if err != nil {
			return nil, err
		}
		params.Set("crumb", crumb)
	}
	reqUrl := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.BaseURL, url.PathEscape(symbol), params.Encode())

	req, err := newRequest(ctx, reqUrl)
	if err != nil {
		return nil, err
	}

	response, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode == http.StatusTooManyRequests && attempt < c.MaxRetries {
		log.Debugf("hit rate limit for %s. sleeping %s...", symbol, c.RetryAfter)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.RetryAfter):
		}
		return c.getQuoteSummary(ctx, symbol, attempt+1)
	}

	if response.StatusCode == http.StatusUnauthorized && c.CookieURL != "" && attempt < c.MaxRetries {
		log.Debugf("crumb rejected for %s, refreshing", symbol)
		c.resetCrumb()
		return c.getQuoteSummary(ctx, symbol, attempt+1)
	}

	responseJson := quoteSummaryResponse{}
	jsonErr := json.Unmarshal(responseBytes, &responseJson)

	if response.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	} else if response.StatusCode != http.StatusOK {
		if jsonErr == nil && responseJson.QuoteSummary.Error != nil {
			return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, responseJson.QuoteSummary.Error.Description)
		}
		return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, string(responseBytes))
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("failed to parse quote summary for %s: %w", symbol, jsonErr)
	}
	if len(responseJson.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}

	return &responseJson.QuoteSummary.Result[0], nil
}

func newRequest(ctx context.Context, reqUrl string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	return req, nil
}

func (c *Client) getCrumb(ctx context.Context) (string, error) {
	c.crumbMu.Lock()
	defer c.crumbMu.Unlock()
	if c.crumb != "" {
		return c.crumb, nil
	}

	// only the Set-Cookie matters, the page itself is usually a 404
	req, err := newRequest(ctx, c.CookieURL)
	if err != nil {
		return "", err
	}
	response, err := c.HttpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get session cookie: %w", err)
	}
	io.Copy(io.Discard, response.Body)
	response.Body.Close()

	req, err = newRequest(ctx, c.BaseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", err
	}
	response, err = c.HttpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get crumb: %w", err)
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(responseBytes))
	if response.StatusCode != http.StatusOK || crumb == "" {
		return "", fmt.Errorf("failed to get crumb: status code %d", response.StatusCode)
	}

	c.crumb = crumb
	return crumb, nil
}

func (c *Client) resetCrumb() {
	c.crumbMu.Lock()
	defer c.crumbMu.Unlock()
	c.crumb = ""
}
