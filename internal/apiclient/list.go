package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// GetList fetches a collection endpoint and decodes it with DecodeList.
func (c *Client) GetList(ctx context.Context, path string, query url.Values, out any, keys ...string) error {
	var raw json.RawMessage
	if err := c.GetJSON(ctx, path, query, &raw); err != nil {
		return err
	}
	return DecodeList(raw, out, keys...)
}

// DecodeList accepts a bare JSON array or an object holding the array under
// one of keys, then "items". An empty body or an object without any of
// those keys leaves out untouched.
func DecodeList(raw []byte, out any, keys ...string) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode list: %w", err)
		}
		return nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	for _, k := range append(keys[:len(keys):len(keys)], "items") {
		list, ok := wrapped[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(list, out); err != nil {
			return fmt.Errorf("decode list %q: %w", k, err)
		}
		return nil
	}
	return nil
}
