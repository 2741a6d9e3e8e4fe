// Package client talks to the design API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"marketmaster/core"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache key prefixes invalidated by mutations.
const (
	keyDesigns    = "designs"
	keyCategories = "categories"
	keyProperties = "properties"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Is lets callers test a 404 with errors.Is(err, core.ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case core.ErrNotFound:
		return e.Status == http.StatusNotFound
	case core.ErrAlreadyExists:
		return e.Status == http.StatusConflict
	case core.ErrInvalid:
		return e.Status == http.StatusBadRequest
	}
	return false
}

type Client struct {
	baseURL string
	client  *http.Client
	cache   *QueryCache
}

// New returns a client for the server at baseURL. A nil httpClient uses one
// with a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		cache:   NewQueryCache(),
	}
}

// Cache exposes the read cache, mainly so callers can Invalidate on a
// server push.
func (c *Client) Cache() *QueryCache {
	return c.cache
}

func (c *Client) ListDesigns(ctx context.Context) ([]*core.Design, error) {
	var designs []*core.Design
	err := c.query(ctx, keyDesigns, "/api/designs", &designs)
	return designs, err
}

func (c *Client) DesignsByCategory(ctx context.Context, category string) ([]*core.Design, error) {
	var designs []*core.Design
	path := "/api/designs/category?" + url.Values{"category": {category}}.Encode()
	err := c.query(ctx, keyDesigns+"/category/"+category, path, &designs)
	return designs, err
}

func (c *Client) DesignsBySubcategory(ctx context.Context, category, subcategory string) ([]*core.Design, error) {
	var designs []*core.Design
	path := "/api/designs/category/" + url.PathEscape(category) + "/subcategory/" + url.PathEscape(subcategory)
	err := c.query(ctx, keyDesigns+"/category/"+category+"/subcategory/"+subcategory, path, &designs)
	return designs, err
}

func (c *Client) GetDesign(ctx context.Context, id int) (*core.Design, error) {
	var design core.Design
	if err := c.query(ctx, keyDesigns+"/id/"+strconv.Itoa(id), "/api/designs/"+strconv.Itoa(id), &design); err != nil {
		return nil, err
	}
	return &design, nil
}

func (c *Client) CreateDesign(ctx context.Context, design *core.NewDesign) (*core.Design, error) {
	var created core.Design
	if err := c.do(ctx, http.MethodPost, "/api/designs", design, &created); err != nil {
		return nil, err
	}
	c.cache.Invalidate(keyDesigns)
	return &created, nil
}

func (c *Client) UpdateDesign(ctx context.Context, id int, patch *core.DesignPatch) (*core.Design, error) {
	var updated core.Design
	if err := c.do(ctx, http.MethodPatch, "/api/designs/"+strconv.Itoa(id), patch, &updated); err != nil {
		return nil, err
	}
	c.cache.Invalidate(keyDesigns)
	return &updated, nil
}

func (c *Client) DeleteDesign(ctx context.Context, id int) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/designs/"+strconv.Itoa(id), nil, &resp); err != nil {
		return err
	}
	c.cache.Invalidate(keyDesigns)
	return nil
}

func (c *Client) ListCategories(ctx context.Context) ([]*core.Category, error) {
	var categories []*core.Category
	err := c.query(ctx, keyCategories, "/api/categories", &categories)
	return categories, err
}

func (c *Client) GetCategory(ctx context.Context, name string) (*core.Category, error) {
	var category core.Category
	if err := c.query(ctx, keyCategories+"/"+name, "/api/categories/"+url.PathEscape(name), &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateSubcategories replaces the subcategory list of a category. The
// server normalises the names and puts "all" first.
func (c *Client) UpdateSubcategories(ctx context.Context, name string, subcategories []string) (*core.Category, error) {
	if subcategories == nil {
		subcategories = []string{}
	}
	body := map[string][]string{"subcategories": subcategories}
	var category core.Category
	if err := c.do(ctx, http.MethodPatch, "/api/categories/"+url.PathEscape(name), body, &category); err != nil {
		return nil, err
	}
	c.cache.Invalidate(keyCategories)
	return &category, nil
}

func (c *Client) ListProperties(ctx context.Context) ([]core.Property, error) {
	var listings []core.Property
	err := c.query(ctx, keyProperties, "/api/properties", &listings)
	return listings, err
}

// query serves a GET through the cache and decodes the body into out.
func (c *Client) query(ctx context.Context, key, path string, out any) error {
	body, err := c.cache.Query(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.send(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	body, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}
	logrus.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("API request")
	return body, nil
}

func newAPIError(status int, body []byte) *APIError {
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Message == "" {
		resp.Message = strings.TrimSpace(string(body))
	}
	if resp.Message == "" {
		resp.Message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: resp.Message}
}
