package gateway

import (
	"cmp"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
)

const catalogResource = "catalog"

// Catalog reads the public catalog views.
type Catalog struct {
	client *Client
}

// Catalog returns the catalog gateway.
func (c *Client) Catalog() *Catalog {
	return &Catalog{client: c}
}

// Categories lists the category tree.
func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	rc := call{op: "categories", resource: catalogResource, method: http.MethodGet, path: "/books/categories"}
	return list[domain.Category](ctx, c.client, rc)
}

// BooksByCategory lists the books filed under big/sub.
func (c *Catalog) BooksByCategory(ctx context.Context, big, sub string) ([]domain.Book, error) {
	rc := call{op: "category", resource: catalogResource, id: big + "/" + sub, method: http.MethodGet}
	if big == "" || sub == "" {
		return nil, wrapError(rc, 0, errors.Validation("category and subcategory slugs are required"))
	}
	rc.path = "/books/categories/" + url.PathEscape(big) + "/" + url.PathEscape(sub) + "/books"
	return list[domain.Book](ctx, c.client, rc)
}

// Suggested lists the backend's suggested books.
func (c *Catalog) Suggested(ctx context.Context) ([]domain.Book, error) {
	rc := call{op: "suggest", resource: catalogResource, method: http.MethodGet, path: "/books/suggest"}
	return list[domain.Book](ctx, c.client, rc)
}

// CategoryDistribution reports how many books each category holds, largest
// first. The backend sends either a list of shares or an object keyed by
// category name.
func (c *Catalog) CategoryDistribution(ctx context.Context) ([]domain.CategoryShare, error) {
	rc := call{op: "stats", resource: catalogResource, method: http.MethodGet, path: "/books/category-distribution"}

	var raw json.RawMessage
	if _, err := c.client.do(ctx, rc, &raw); err != nil {
		return nil, err
	}

	shares := []domain.CategoryShare{}
	switch {
	case len(raw) == 0:
	case raw[0] == '{':
		var counts map[string]int
		if err := json.Unmarshal(raw, &counts); err != nil {
			return nil, wrapError(rc, 0, errors.MalformedResponse("category distribution is not a count map").WithCause(err))
		}
		for name, n := range counts {
			shares = append(shares, domain.CategoryShare{Category: name, Count: n})
		}
	default:
		if err := json.Unmarshal(raw, &shares); err != nil {
			return nil, wrapError(rc, 0, errors.MalformedResponse("category distribution is not a list").WithCause(err))
		}
	}
	if err := checkEach(c.client, rc, shares); err != nil {
		return nil, err
	}

	slices.SortStableFunc(shares, func(a, b domain.CategoryShare) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(a.Category, b.Category)
	})
	return shares, nil
}
