// ABOUTME: Pagination cursor rewriting for relayed upstream list payloads
// ABOUTME: Absolute next/previous URLs become origin-relative paths; malformed values pass through

package services

import (
	"errors"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// CursorRewriter maps a parsed absolute upstream cursor to the value the
// client should see. Returning "" leaves the cursor unchanged.
type CursorRewriter func(u *url.URL) string

// StripOrigin keeps path and query, dropping scheme and host
func StripOrigin(u *url.URL) string {
	return u.RequestURI()
}

// ReplacePath keeps the query but swaps the path for a fixed inbound one
func ReplacePath(path string) CursorRewriter {
	return func(u *url.URL) string {
		if u.RawQuery == "" {
			return path
		}
		return path + "?" + u.RawQuery
	}
}

// ErrInvalidCursor is returned for cursors that do not address the upstream API
var ErrInvalidCursor = errors.New("invalid pagination cursor")

var cursorFields = []string{"next", "previous"}

// RewriteCursor applies rewrite to raw if it is an absolute http(s) URL.
// Anything else, including unparsable values, is returned unchanged.
func RewriteCursor(raw string, rewrite CursorRewriter) string {
	if rewrite == nil {
		rewrite = StripOrigin
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return raw
	}
	if out := rewrite(u); out != "" {
		return out
	}
	return raw
}

// RewritePageCursors rewrites the top-level next/previous strings of a JSON
// object in place. Other bytes of the payload are left untouched; non-JSON
// bodies and non-string cursors are returned as-is.
func RewritePageCursors(body []byte, rewrite CursorRewriter) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return body
	}

	out := body
	for _, field := range cursorFields {
		value := doc.Get(field)
		if value.Type != gjson.String {
			continue
		}
		rewritten := RewriteCursor(value.Str, rewrite)
		if rewritten == value.Str {
			continue
		}
		updated, err := sjson.SetBytes(out, field, rewritten)
		if err != nil {
			continue
		}
		out = updated
	}
	return out
}

// NormalizeNext turns a client-supplied cursor (absolute or relative) into an
// upstream path with query. Only paths under /api/ are accepted so the
// cursor cannot steer the request elsewhere.
func NormalizeNext(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidCursor
	}
	if u.Host != "" && u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidCursor
	}
	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/api/") || strings.Contains(path, "/..") {
		return "", ErrInvalidCursor
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}

// SplitNext separates a normalized cursor into path and query
func SplitNext(next string) (string, url.Values) {
	path, rawQuery, _ := strings.Cut(next, "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path, url.Values{}
	}
	return path, query
}

// ItemsEnvelope flattens an upstream list (bare array or paginated object
// with results/next) into {"items": [...], "next": ...}. The next cursor
// is rewritten with rewrite. Other shapes yield ErrUnexpectedResponse.
func ItemsEnvelope(body []byte, rewrite CursorRewriter) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, unexpected("items", errors.New("list payload is not JSON"))
	}
	doc := gjson.ParseBytes(body)

	items := "[]"
	next := gjson.Result{}
	switch {
	case doc.IsArray():
		items = doc.Raw
	case doc.IsObject():
		if results := doc.Get("results"); results.IsArray() {
			items = results.Raw
		} else if results.Exists() && results.Type != gjson.Null {
			return nil, unexpected("items", errors.New("results is not a list"))
		}
		next = doc.Get("next")
	default:
		return nil, unexpected("items", errors.New("list payload is neither array nor object"))
	}

	out, err := sjson.SetRawBytes([]byte(`{"items":[],"next":null}`), "items", []byte(items))
	if err != nil {
		return nil, err
	}
	if next.Type == gjson.String && next.Str != "" {
		out, err = sjson.SetBytes(out, "next", RewriteCursor(next.Str, rewrite))
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ValidJSON reports whether body is a syntactically valid JSON document
func ValidJSON(body []byte) bool {
	return len(body) > 0 && gjson.ValidBytes(body)
}
