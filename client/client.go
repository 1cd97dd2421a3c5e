// Package client is the Go SDK for the grana API. It wraps the REST
// surface with typed calls, short-lived read caching and retries, and
// layers the optimistic shopping-list session on top.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/granaapp/grana/internal/model"
)

const (
	defaultCacheTTL  = 30 * time.Second
	defaultCacheSize = 64
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string

	listsCache    *ttlCache[[]model.ShoppingList]
	listCache     *ttlCache[model.ShoppingList]
	accountsCache *ttlCache[[]model.Account]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		listsCache:    newTTLCache[[]model.ShoppingList](defaultCacheSize, defaultCacheTTL),
		listCache:     newTTLCache[model.ShoppingList](defaultCacheSize, defaultCacheTTL),
		accountsCache: newTTLCache[[]model.Account](defaultCacheSize, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(apiErr)
		}
		return apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// get retries transient failures with exponential backoff. Mutations are
// never retried automatically; the session layer owns their recovery.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, query, nil, out)
	})
}

// --- Auth ---

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login authenticates with form-encoded credentials and stores the
// returned bearer token on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: "login failed"}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.token = tr.AccessToken
	return nil
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &tr); err != nil {
		return err
	}
	c.token = tr.AccessToken
	return nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Accounts ---

func (c *Client) Accounts(ctx context.Context) ([]model.Account, error) {
	if accounts, ok := c.accountsCache.Get("accounts"); ok {
		return accounts, nil
	}

	var accounts []model.Account
	if err := c.get(ctx, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	c.accountsCache.Set("accounts", accounts)
	return accounts, nil
}

// --- Shopping lists ---

func listCacheKey(id int64) string {
	return "list:" + strconv.FormatInt(id, 10)
}

func (c *Client) invalidateList(id int64) {
	c.listCache.Delete(listCacheKey(id))
	c.listsCache.Clear()
}

// ListFilter narrows ShoppingLists. Zero values match everything.
type ListFilter struct {
	Status string
	Month  string
}

func (f ListFilter) query() url.Values {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", f.Status)
	}
	if f.Month != "" {
		query.Set("month", f.Month)
	}
	return query
}

func (c *Client) ShoppingLists(ctx context.Context, filter ListFilter) ([]model.ShoppingList, error) {
	key := "lists:" + filter.Status + ":" + filter.Month
	if lists, ok := c.listsCache.Get(key); ok {
		return lists, nil
	}

	var lists []model.ShoppingList
	if err := c.get(ctx, "/shopping-lists", filter.query(), &lists); err != nil {
		return nil, err
	}
	c.listsCache.Set(key, lists)
	return lists, nil
}

func (c *Client) ShoppingList(ctx context.Context, id int64) (*model.ShoppingList, error) {
	if list, ok := c.listCache.Get(listCacheKey(id)); ok {
		return &list, nil
	}

	var list model.ShoppingList
	if err := c.get(ctx, fmt.Sprintf("/shopping-lists/%d", id), nil, &list); err != nil {
		return nil, err
	}
	c.listCache.Set(listCacheKey(id), list)
	return &list, nil
}

func (c *Client) CreateShoppingList(ctx context.Context, name string, month *string) (*model.ShoppingList, error) {
	var list model.ShoppingList
	body := map[string]any{"name": name, "month": month}
	if err := c.do(ctx, http.MethodPost, "/shopping-lists", nil, body, &list); err != nil {
		return nil, err
	}
	c.listsCache.Clear()
	return &list, nil
}

func (c *Client) RenameShoppingList(ctx context.Context, id int64, name string, month *string) (*model.ShoppingList, error) {
	var list model.ShoppingList
	body := map[string]any{"name": name, "month": month}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/shopping-lists/%d", id), nil, body, &list); err != nil {
		return nil, err
	}
	c.invalidateList(id)
	return &list, nil
}

func (c *Client) DeleteShoppingList(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/shopping-lists/%d", id), nil, nil, nil); err != nil {
		return err
	}
	c.invalidateList(id)
	return nil
}

// SetShoppingListStatus moves a list between active and archived, or
// reopens a completed one.
func (c *Client) SetShoppingListStatus(ctx context.Context, id int64, status string) (*model.ShoppingList, error) {
	var list model.ShoppingList
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/shopping-lists/%d", id), nil, body, &list); err != nil {
		return nil, err
	}
	c.invalidateList(id)
	return &list, nil
}

// CompleteShoppingList marks the list completed. When createTransactions
// is set the server materializes one expense per purchased category, and
// accountID (optional) selects the account to debit.
func (c *Client) CompleteShoppingList(ctx context.Context, id int64, createTransactions bool, accountID *int64) (*model.ShoppingList, error) {
	query := url.Values{}
	query.Set("create_transactions", strconv.FormatBool(createTransactions))
	if accountID != nil {
		query.Set("account_id", strconv.FormatInt(*accountID, 10))
	}

	var list model.ShoppingList
	body := map[string]string{"status": model.ListCompleted}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/shopping-lists/%d", id), query, body, &list); err != nil {
		return nil, err
	}
	c.invalidateList(id)
	c.accountsCache.Clear()
	return &list, nil
}

// DuplicateShoppingList starts a fresh list from an existing one.
func (c *Client) DuplicateShoppingList(ctx context.Context, id int64, newName, newMonth string) (*model.ShoppingList, error) {
	query := url.Values{}
	if newName != "" {
		query.Set("new_name", newName)
	}
	if newMonth != "" {
		query.Set("new_month", newMonth)
	}

	var list model.ShoppingList
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/shopping-lists/%d/duplicate", id), query, nil, &list); err != nil {
		return nil, err
	}
	c.listsCache.Clear()
	return &list, nil
}

// --- Items ---

// ItemDraft is the add-item form state.
type ItemDraft struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Quantity       string          `json:"quantity"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	Notes          *string         `json:"notes,omitempty"`
}

// ItemUpdate is a partial item mutation; nil fields are left unchanged.
type ItemUpdate struct {
	Name           *string          `json:"name,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Quantity       *string          `json:"quantity,omitempty"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price,omitempty"`
	ActualPrice    *decimal.Decimal `json:"actual_price,omitempty"`
	IsPurchased    *bool            `json:"is_purchased,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

func (c *Client) AddItem(ctx context.Context, listID int64, draft ItemDraft) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/shopping-lists/%d/items", listID), nil, draft, &item); err != nil {
		return nil, err
	}
	c.invalidateList(listID)
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, listID, itemID int64, update ItemUpdate) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/shopping-lists/%d/items/%d", listID, itemID), nil, update, &item); err != nil {
		return nil, err
	}
	c.invalidateList(listID)
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, listID, itemID int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/shopping-lists/%d/items/%d", listID, itemID), nil, nil, nil); err != nil {
		return err
	}
	c.invalidateList(listID)
	return nil
}
