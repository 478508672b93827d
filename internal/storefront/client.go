package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"minhng/pricewatch/internal/catalog"
	"minhng/pricewatch/logger"
	"minhng/pricewatch/pkg/errors"
	"minhng/pricewatch/pkg/retry"
)

// Product is the subset of a storefront product record this service reads
type Product struct {
	ID           int    `json:"id"`
	Name         string `json:"name,omitempty"`
	SKU          string `json:"sku,omitempty"`
	RegularPrice string `json:"regular_price"`
}

// Client talks to the WooCommerce catalog REST API with key/secret basic
// auth. Lookups and updates are retried per the configured policy; the
// operation-level contracts (PriceBySKU, UpdatePriceBySKU) never raise.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
	retryCfg   retry.Config
	log        *logger.Logger
}

// NewClient creates a storefront client
func NewClient(baseURL, key, secret string, retryCfg retry.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		secret:     secret,
		httpClient: &http.Client{},
		retryCfg:   retryCfg,
		log:        logger.ForStorefront(),
	}
}

func (c *Client) configured() bool {
	return c.baseURL != "" && c.key != "" && c.secret != ""
}

// SearchProducts queries the catalog for an exact SKU match
func (c *Client) SearchProducts(ctx context.Context, sku string) ([]Product, error) {
	endpoint := fmt.Sprintf("%s/products?sku=%s", c.baseURL, url.QueryEscape(sku))

	return retry.Do(ctx, c.retryCfg, func(ctx context.Context) ([]Product, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errors.NewStorefront("search", "failed to create request", err)
		}
		req.SetBasicAuth(c.key, c.secret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.NewNetwork("search", "request failed for sku "+sku, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, errors.NewStorefront("search", fmt.Sprintf("unexpected status %d for sku %s", resp.StatusCode, sku), nil)
		}

		var products []Product
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			return nil, errors.NewParsing("search", "failed to decode product list", err)
		}
		return products, nil
	})
}

// UpdateProduct sets both the regular and effective price of a product
func (c *Client) UpdateProduct(ctx context.Context, id int, price int) error {
	endpoint := fmt.Sprintf("%s/products/%d", c.baseURL, id)
	payload, err := json.Marshal(map[string]string{
		"regular_price": strconv.Itoa(price),
		"price":         strconv.Itoa(price),
	})
	if err != nil {
		return errors.NewStorefront("update", "failed to marshal payload", err)
	}

	_, err = retry.Do(ctx, c.retryCfg, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, errors.NewStorefront("update", "failed to create request", err)
		}
		req.SetBasicAuth(c.key, c.secret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, errors.NewNetwork("update", fmt.Sprintf("request failed for product %d", id), err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, errors.NewStorefront("update",
				fmt.Sprintf("unexpected status %d for product %d: %s", resp.StatusCode, id, string(body)), nil)
		}
		return struct{}{}, nil
	})
	return err
}

// PriceBySKU returns the currently listed regular price for a SKU. Empty
// SKU, failed queries and empty result sets all degrade to the sentinel
// observation.
func (c *Client) PriceBySKU(ctx context.Context, sku string) catalog.Observation {
	if strings.TrimSpace(sku) == "" {
		return catalog.FailedObservation(errors.NewValidation("storefront", "empty sku"))
	}
	if !c.configured() {
		return catalog.FailedObservation(errors.NewConfiguration("storefront API is not configured", nil))
	}

	products, err := c.SearchProducts(ctx, sku)
	if err != nil {
		c.log.Warn().Err(err).Str("sku", sku).Msg("Product lookup failed")
		return catalog.FailedObservation(err)
	}
	if len(products) == 0 {
		c.log.Debug().Str("sku", sku).Msg("No product matches sku")
		return catalog.FailedObservation(errors.NewStorefront("search", "no product matches sku "+sku, nil))
	}
	if len(products) > 1 {
		// Duplicate SKUs in the storefront catalog; first result wins.
		c.log.Warn().Str("sku", sku).Int("matches", len(products)).Msg("Multiple products match sku, using first")
	}

	return catalog.ObservedPrice(catalog.NormalizePrice(products[0].RegularPrice))
}

// UpdatePriceBySKU looks the product up by SKU and pushes the target price.
// Returns false instead of an error on every failure path.
func (c *Client) UpdatePriceBySKU(ctx context.Context, sku string, price int) bool {
	if strings.TrimSpace(sku) == "" {
		c.log.Error().Msg("Refusing price update for empty sku")
		return false
	}
	if !c.configured() {
		c.log.Error().Msg("Storefront API is not configured")
		return false
	}

	products, err := c.SearchProducts(ctx, sku)
	if err != nil {
		c.log.Error().Err(err).Str("sku", sku).Msg("Product lookup failed, price not updated")
		return false
	}
	if len(products) == 0 {
		c.log.Warn().Str("sku", sku).Msg("No product matches sku, price not updated")
		return false
	}

	if err := c.UpdateProduct(ctx, products[0].ID, price); err != nil {
		c.log.Error().Err(err).Str("sku", sku).Int("price", price).Msg("Price update failed")
		return false
	}

	c.log.Info().Str("sku", sku).Int("product_id", products[0].ID).Int("price", price).Msg("Price updated")
	return true
}
