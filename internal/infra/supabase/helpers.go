package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for POST and PATCH, plus PostgREST filter builders
// ============================================================

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := c.restRequest(ctx, http.MethodPost, table, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("supabase: POST OK", zap.String("table", table))
	return body, nil
}

func (c *Client) doPatch(ctx context.Context, path string, data any) ([]byte, error) {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := c.restRequest(ctx, http.MethodPatch, path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("supabase: PATCH OK", zap.String("path", path))
	return body, nil
}

// insertOne posts one row and decodes the returned representation.
func insertOne[T any](ctx context.Context, c *Client, service, table string, row any) (*T, error) {
	body, err := c.mutate(service, func() ([]byte, error) {
		return c.doPost(ctx, table, row)
	})
	if err != nil {
		return nil, err
	}
	return firstRow[T](service, body)
}

// patchOne patches rows matching path and decodes the first returned row.
// A patch that matches nothing yields (nil, nil).
func patchOne[T any](ctx context.Context, c *Client, service, path string, fields map[string]any) (*T, error) {
	body, err := c.mutate(service, func() ([]byte, error) {
		return c.doPatch(ctx, path, fields)
	})
	if err != nil {
		return nil, err
	}
	return firstRow[T](service, body)
}

// getOne reads path and returns the first row, or nil when there is none.
func getOne[T any](ctx context.Context, c *Client, service, path string) (*T, error) {
	var rows []T
	if err := c.read(ctx, service, path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// getMany reads path into a non-nil slice.
func getMany[T any](ctx context.Context, c *Client, service, path string) ([]T, error) {
	rows := make([]T, 0)
	if err := c.read(ctx, service, path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func firstRow[T any](service string, body []byte) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &decodeError{service: service, err: err}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type decodeError struct {
	service string
	err     error
}

func (e *decodeError) Error() string { return "failed to decode " + e.service + ": " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// eq builds an eq. filter value with the argument escaped.
func eq(v string) string {
	return "eq." + url.QueryEscape(v)
}

// ilikeExact builds an ilike. filter that matches v literally, ignoring
// case. LIKE wildcards are escaped; PostgREST reads * as %, so a literal *
// is widened to _ and callers confirm the match with strings.EqualFold.
func ilikeExact(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `_`)
	return "ilike." + url.QueryEscape(r.Replace(v))
}

// in builds an in.(a,b) filter value. Each item is double-quoted so that
// commas inside values stay literal.
func in(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, `"`+strings.ReplaceAll(v, `"`, `\"`)+`"`)
	}
	return "in." + url.QueryEscape("("+strings.Join(quoted, ",")+")")
}
