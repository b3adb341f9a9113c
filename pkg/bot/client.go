package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/models"
)

// ErrAPIUnreachable means the suggestion API could not be contacted at all.
var ErrAPIUnreachable = errors.New("could not connect to the API server")

// Suggester answers a building query. *oncall.Service and *APIClient both
// satisfy it.
type Suggester interface {
	Suggest(ctx context.Context, building string) (*models.Suggestion, error)
}

// APIClient calls a running server's POST /api/suggest-person.
type APIClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Log     *slog.Logger
}

// NewAPIClient returns a client for baseURL, e.g. "http://localhost:8000".
func NewAPIClient(baseURL, apiKey string, log *slog.Logger) *APIClient {
	if log == nil {
		log = slog.Default()
	}
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Log:     log,
	}
}

// Suggest posts the building and decodes the suggestion.
func (c *APIClient) Suggest(ctx context.Context, building string) (*models.Suggestion, error) {
	body, err := json.Marshal(models.SuggestInput{Building: building})
	if err != nil {
		return nil, err
	}

	url := c.BaseURL + "/api/suggest-person"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create suggest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIUnreachable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Log.WarnContext(ctx, "failed to close suggest response body", "err", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = fmt.Sprintf("API error: %d", resp.StatusCode)
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", models.ErrBuildingNotFound, apiErr.Error)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", models.ErrInputMissing, apiErr.Error)
		default:
			return nil, errors.New(apiErr.Error)
		}
	}

	var out models.SuggestionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("could not decode suggestion: %w", err)
	}

	return &models.Suggestion{
		Building: models.Building{Building: out.Building, Code: out.Code, Zone: out.Zone},
		SuggestionResult: models.SuggestionResult{
			OnShift:   out.OnShift,
			Suggested: out.Suggested,
			Textual:   out.Textual,
		},
	}, nil
}
