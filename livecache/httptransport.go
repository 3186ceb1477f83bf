package livecache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/google/uuid"
)

// HTTPTransport talks to the scoreboard REST API. It implements Transport and Fetcher.
type HTTPTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPTransport: token - JWT с ролью admin/moderator, пустой для чтения без команд.
// Per-request deadlines come from the context.
func NewHTTPTransport(baseURL, token string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

// commandIDHeader lets the server record the command in Match.RecentCommands, which is
// how the cache recognises its own command in change notifications.
const commandIDHeader = "X-Command-ID"

type sideRequest struct {
	Side models.Side `json:"side"`
}

type completeRequest struct {
	WinnerSide models.Side `json:"winner_side"`
}

type statusRequest struct {
	Status models.MatchStatus `json:"status"`
}

func commandRoute(cmd Command) (method, path string, body interface{}, err error) {
	base := "/matches/" + cmd.MatchID.String()
	switch cmd.Kind {
	case KindStart:
		return http.MethodPost, base + "/start", nil, nil
	case KindIncrement:
		return http.MethodPost, base + "/score", sideRequest{Side: cmd.Side}, nil
	case KindDecrement:
		return http.MethodPost, base + "/undo", sideRequest{Side: cmd.Side}, nil
	case KindEndSet:
		return http.MethodPost, base + "/end-set", sideRequest{Side: cmd.Side}, nil
	case KindComplete:
		return http.MethodPost, base + "/complete", completeRequest{WinnerSide: cmd.Side}, nil
	case KindSetStatus:
		return http.MethodPatch, base + "/status", statusRequest{Status: cmd.Status}, nil
	}
	return "", "", nil, fmt.Errorf("%w: unknown command kind %q", ErrRejected, cmd.Kind)
}

func (t *HTTPTransport) Send(ctx context.Context, cmd Command) (*models.Match, error) {
	method, path, body, err := commandRoute(cmd)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Match *models.Match `json:"match"`
	}
	header := http.Header{commandIDHeader: []string{cmd.ID.String()}}
	if err := t.do(ctx, method, path, header, body, &envelope); err != nil {
		return nil, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.MatchID, err)
	}
	return envelope.Match, nil
}

func (t *HTTPTransport) FetchMatches(ctx context.Context) ([]*models.Match, error) {
	var envelope struct {
		Matches []*models.Match `json:"matches"`
	}
	if err := t.do(ctx, http.MethodGet, "/matches", nil, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch matches: %w", err)
	}
	return envelope.Matches, nil
}

func (t *HTTPTransport) FetchMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var envelope struct {
		Match *models.Match `json:"match"`
	}
	if err := t.do(ctx, http.MethodGet, "/matches/"+id.String(), nil, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", id, err)
	}
	if envelope.Match == nil {
		return nil, fmt.Errorf("fetch match %s: %w: empty response", id, ErrTransport)
	}
	return envelope.Match, nil
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, header http.Header, body, dst interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", ErrRejected, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	for key, values := range header {
		req.Header[key] = values
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if dst == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: decode response: %w", ErrTransport, err)
		}
		return nil
	}
	return statusError(resp.StatusCode, raw)
}

// statusError maps an API error response onto the client error classes.
func statusError(status int, raw []byte) error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &envelope) == nil && len(envelope.Error) > 0 {
		var text string
		if json.Unmarshal(envelope.Error, &text) == nil {
			message = text
		} else {
			message = string(envelope.Error)
		}
	}
	cause := fmt.Errorf("server responded %d: %s", status, message)

	var kind error
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity,
		status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind = ErrRejected
	case status == http.StatusConflict:
		kind = ErrConflict
	case status == http.StatusNotFound:
		kind = ErrNotFound
	default:
		kind = ErrTransport
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
