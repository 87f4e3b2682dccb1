// Package client is a typed Go client for the marketplace REST API.
//
// Authentication state lives in an explicit Session value returned by Login, Register
// and WalletLogin. Calls that need a user take the session as an argument; logging out
// is dropping the value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nft_marketplace/internal/api"
	"nft_marketplace/internal/domain"
	"nft_marketplace/internal/service"
)

const defaultTimeout = 15 * time.Second

// Client talks to one marketplace server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL, e.g. "http://localhost:8080"
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api",
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Session is a logged-in user and their bearer token
type Session struct {
	Token string
	User  domain.AccountView
}

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error implements error
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// ErrorCode returns the API error code of err, or "" when err is not an *APIError
func ErrorCode(err error) string {
	var e *APIError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, s *Session, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Code, apiErr.Message = payload.Code, payload.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, s *Session, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, s, "application/json", body, out)
}

func sessionFrom(resp api.AuthResponse) *Session {
	return &Session{Token: resp.Token, User: resp.User}
}

// Register creates an account and returns its session
func (c *Client) Register(ctx context.Context, username, email, password string) (*Session, error) {
	var resp api.AuthResponse
	req := api.RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return sessionFrom(resp), nil
}

// Login exchanges email and password for a session
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp api.AuthResponse
	req := api.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, req, &resp); err != nil {
		return nil, err
	}
	return sessionFrom(resp), nil
}

// WalletNonce requests the challenge message a wallet must sign
func (c *Client) WalletNonce(ctx context.Context, address string) (*service.WalletChallenge, error) {
	var challenge service.WalletChallenge
	req := api.WalletNonceRequest{WalletAddress: address}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/wallet-nonce", nil, req, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// WalletLogin submits a signed challenge and returns the wallet's session
func (c *Client) WalletLogin(ctx context.Context, address, nonce, signature string) (*Session, error) {
	var resp api.AuthResponse
	req := api.WalletLoginRequest{WalletAddress: address, Nonce: nonce, Signature: signature}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/wallet-login", nil, req, &resp); err != nil {
		return nil, err
	}
	return sessionFrom(resp), nil
}

// ListParams filters the catalog; zero values are omitted
type ListParams struct {
	Search    string
	Category  domain.Category
	MinPrice  *float64
	MaxPrice  *float64
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (p ListParams) query() string {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("search", p.Search)
	set("category", string(p.Category))
	set("sortBy", p.SortBy)
	set("sortOrder", p.SortOrder)
	if p.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*p.MinPrice, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListNFTs returns one catalog page
func (c *Client) ListNFTs(ctx context.Context, p ListParams) (*api.NFTListResponse, error) {
	var resp api.NFTListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/nft"+p.query(), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetNFT returns one NFT
func (c *Client) GetNFT(ctx context.Context, id string) (*domain.NFTView, error) {
	var nft domain.NFTView
	if err := c.doJSON(ctx, http.MethodGet, "/nft/"+url.PathEscape(id), nil, nil, &nft); err != nil {
		return nil, err
	}
	return &nft, nil
}

// NewNFT is a listing to create
type NewNFT struct {
	Name        string
	Description string
	Price       float64
	Currency    domain.Currency // ETH when empty
	Category    domain.Category
	Tags        []string
	Properties  map[string]any
	ImageName   string // File name; its extension selects the image type
	Image       io.Reader
}

// CreateNFT uploads an image and lists a new NFT owned by the session user
func (c *Client) CreateNFT(ctx context.Context, s *Session, n NewNFT) (*domain.NFTView, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":        n.Name,
		"description": n.Description,
		"price":       strconv.FormatFloat(n.Price, 'f', -1, 64),
		"currency":    string(n.Currency),
		"category":    string(n.Category),
		"tags":        strings.Join(n.Tags, ","),
	}
	if n.Properties != nil {
		raw, err := json.Marshal(n.Properties)
		if err != nil {
			return nil, fmt.Errorf("encode properties: %w", err)
		}
		fields["properties"] = string(raw)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if n.Image != nil {
		part, err := mw.CreateFormFile("image", n.ImageName)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, n.Image); err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var resp api.NFTResponse
	if err := c.do(ctx, http.MethodPost, "/nft", s, mw.FormDataContentType(), &buf, &resp); err != nil {
		return nil, err
	}
	return &resp.NFT, nil
}

// UpdateNFT applies a partial update; only set fields of in are sent
func (c *Client) UpdateNFT(ctx context.Context, s *Session, id string, in service.UpdateInput) (*domain.NFTView, error) {
	var resp api.NFTResponse
	if err := c.doJSON(ctx, http.MethodPut, "/nft/"+url.PathEscape(id), s, in, &resp); err != nil {
		return nil, err
	}
	return &resp.NFT, nil
}

// DeleteNFT removes an NFT created by the session user
func (c *Client) DeleteNFT(ctx context.Context, s *Session, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/nft/"+url.PathEscape(id), s, nil, nil)
}

// BuyNFT purchases a listed NFT
func (c *Client) BuyNFT(ctx context.Context, s *Session, id string) (*api.PurchaseResponse, error) {
	var resp api.PurchaseResponse
	if err := c.doJSON(ctx, http.MethodPost, "/nft/"+url.PathEscape(id)+"/buy", s, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserNFTs lists NFTs a user created, or owns when kind is "owned"
func (c *Client) UserNFTs(ctx context.Context, userID, kind string) ([]domain.NFTView, error) {
	path := "/nft/user/" + url.PathEscape(userID)
	if kind != "" {
		path += "?type=" + url.QueryEscape(kind)
	}
	var nfts []domain.NFTView
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &nfts); err != nil {
		return nil, err
	}
	return nfts, nil
}

// Profile returns a user's public profile and stats
func (c *Client) Profile(ctx context.Context, userID string) (*api.ProfileResponse, error) {
	var resp api.ProfileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile/"+url.PathEscape(userID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile edits the session user's profile; empty fields are left unchanged
func (c *Client) UpdateProfile(ctx context.Context, s *Session, in api.UpdateProfileRequest) (*domain.AccountView, error) {
	var resp struct {
		User domain.AccountView `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/user/profile", s, in, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Transactions returns a page of the session user's purchases and sales
func (c *Client) Transactions(ctx context.Context, s *Session, page, limit int) (*api.TransactionListResponse, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/user/transactions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp api.TransactionListResponse
	if err := c.doJSON(ctx, http.MethodGet, path, s, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
