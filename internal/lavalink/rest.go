package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/keshon/rockola/pkg/retrylimit"
)

// RESTError is the error body Lavalink returns with 4xx and 5xx responses.
type RESTError struct {
	Status  int    `json:"status"`
	Err     string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func (e *RESTError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lavalink %d %s: %s", e.Status, e.Err, e.Message)
	}
	return fmt.Sprintf("lavalink %d %s", e.Status, e.Err)
}

func (e *RESTError) StatusCode() int { return e.Status }

// LoadTracks resolves an identifier: a URL or a prefixed search such as
// "ytsearch:lofi".
func (n *Node) LoadTracks(ctx context.Context, identifier string) (*LoadResult, error) {
	var res LoadResult
	path := "/v4/loadtracks?identifier=" + url.QueryEscape(identifier)
	if err := n.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, errors.Wrapf(err, "load tracks %q", identifier)
	}
	return &res, nil
}

// UpdatePlayer patches the player of guildID, creating it if needed.
func (n *Node) UpdatePlayer(ctx context.Context, guildID string, update PlayerUpdate) error {
	sid := n.SessionID()
	if sid == "" {
		return ErrNoSession
	}
	path := fmt.Sprintf("/v4/sessions/%s/players/%s?noReplace=false", sid, guildID)
	return errors.Wrapf(n.do(ctx, http.MethodPatch, path, update, nil), "update player %s", guildID)
}

// DestroyPlayer removes the player of guildID from the node.
func (n *Node) DestroyPlayer(ctx context.Context, guildID string) error {
	sid := n.SessionID()
	if sid == "" {
		return ErrNoSession
	}
	path := fmt.Sprintf("/v4/sessions/%s/players/%s", sid, guildID)
	return errors.Wrapf(n.do(ctx, http.MethodDelete, path, nil, nil), "destroy player %s", guildID)
}

func (n *Node) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}

	return retrylimit.Do(ctx, n.limiter, n.retry, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, n.cfg.restURL()+path, reader)
		if err != nil {
			return retrylimit.Fatal(err)
		}
		req.Header.Set("Authorization", n.cfg.Password)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := n.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			restErr := &RESTError{Status: resp.StatusCode}
			_ = json.NewDecoder(resp.Body).Decode(restErr)
			restErr.Status = resp.StatusCode
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retrylimit.Fatal(restErr)
			}
			return restErr
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retrylimit.Fatal(errors.Wrap(err, "decode response"))
		}
		return nil
	})
}
