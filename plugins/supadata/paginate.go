package supadata

import (
	"context"

	"github.com/Jeffail/gabs/v2"
)

// PageLimits bounds a listing. Zero means unlimited.
type PageLimits struct {
	MaxPages int
	MaxItems int
}

// PageVisitor consumes one page and reports how many items it took from it.
type PageVisitor func(page *gabs.Container) (int, error)

// Walk requests req and keeps requesting while the latest answer carries a
// truthy "next" field. The query is only sent with the first page.
//
// Requesting a page beyond MaxPages, or collecting more than MaxItems, fails
// with *PaginationLimitError.
func (c *Client) Walk(ctx context.Context, creds Credentials, req Request, limits PageLimits, visit PageVisitor) error {
	collected := 0
	for page := 1; ; page++ {
		if limits.MaxPages > 0 && page > limits.MaxPages {
			return &PaginationLimitError{Path: req.Path, Limit: "pages", Max: limits.MaxPages}
		}

		resp, err := c.Do(ctx, creds, req)
		if err != nil {
			return err
		}

		n, err := visit(resp)
		if err != nil {
			return err
		}
		collected += n
		if limits.MaxItems > 0 && collected > limits.MaxItems {
			return &PaginationLimitError{Path: req.Path, Limit: "items", Max: limits.MaxItems}
		}

		if !truthy(resp.S("next").Data()) {
			c.l.DebugContext(ctx, "Pagination finished", "path", req.Path, "pages", page, "items", collected)
			return nil
		}
		req.Query = nil
	}
}

// All collects the array field property of every page, in page order.
func (c *Client) All(ctx context.Context, creds Credentials, property string, req Request, limits PageLimits) ([]any, error) {
	items := []any{}
	err := c.Walk(ctx, creds, req, limits, func(page *gabs.Container) (int, error) {
		found := arrayField(page, property)
		items = append(items, found...)
		return len(found), nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// arrayField returns the array stored under key, or nil when it is absent or
// not an array.
func arrayField(doc *gabs.Container, key string) []any {
	list, _ := doc.S(key).Data().([]any)
	return list
}

// truthy follows JSON truthiness: null, false, 0 and "" end the listing.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}
