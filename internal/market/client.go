// Package market talks to the Tarkov Market HTTP API: it issues the list
// requests, unwraps the response envelope, delegates the obfuscated payload
// to the decoder and maps the raw records into fully typed models.
//
// Failure policy: a non-success HTTP status is a fetch error the caller must
// contain per map; an absent/empty payload field or a decode failure is not
// an error at all — some maps legitimately have zero entries, so both yield
// an empty slice.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/tarkovsync/internal/common"
	"github.com/dmitrijs2005/tarkovsync/internal/config"
	"github.com/dmitrijs2005/tarkovsync/internal/decoder"
	"github.com/dmitrijs2005/tarkovsync/internal/logging"
	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

const (
	markersPath = "/api/be/markers/list"
	questsPath  = "/api/be/quests/list"
)

type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	log       logging.Logger
}

func NewClient(cfg *config.Config, log logging.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		log:       log,
	}
}

// envelope is the JSON object wrapping every list response. Exactly one of
// the fields is populated, holding the obfuscated payload.
type envelope struct {
	Markers string `json:"markers"`
	Quests  string `json:"quests"`
}

// FetchMarkers returns the marker list for one map. An absent or empty
// payload field and a decode failure both yield an empty, non-error result.
func (c *Client) FetchMarkers(ctx context.Context, mapName string) ([]models.Marker, error) {
	u := c.baseURL + markersPath + "?map=" + url.QueryEscape(mapName)

	env, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if env.Markers == "" {
		c.log.Warn(ctx, "no markers in response", "map", mapName)
		return []models.Marker{}, nil
	}

	jsonStr, err := decoder.Decode(env.Markers)
	if err != nil {
		c.log.Error(ctx, "failed to decode markers payload", "map", mapName, "error", err)
		return []models.Marker{}, nil
	}

	var raw []rawMarker
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		c.log.Error(ctx, "decoded markers payload is not valid JSON", "map", mapName, "error", err)
		return []models.Marker{}, nil
	}

	markers := make([]models.Marker, 0, len(raw))
	for _, r := range raw {
		m, ok := r.toModel(mapName)
		if !ok {
			continue
		}
		markers = append(markers, m)
	}

	c.log.Info(ctx, "fetched markers", "map", mapName, "count", len(markers))
	return markers, nil
}

// FetchQuests returns the global quest list.
func (c *Client) FetchQuests(ctx context.Context) ([]models.Quest, error) {
	env, err := c.get(ctx, c.baseURL+questsPath)
	if err != nil {
		return nil, err
	}
	if env.Quests == "" {
		c.log.Warn(ctx, "no quests in response")
		return []models.Quest{}, nil
	}

	jsonStr, err := decoder.Decode(env.Quests)
	if err != nil {
		c.log.Error(ctx, "failed to decode quests payload", "error", err)
		return []models.Quest{}, nil
	}

	var raw []rawQuest
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		c.log.Error(ctx, "decoded quests payload is not valid JSON", "error", err)
		return []models.Quest{}, nil
	}

	quests := make([]models.Quest, 0, len(raw))
	for _, r := range raw {
		quests = append(quests, r.toModel())
	}

	c.log.Info(ctx, "fetched quests", "count", len(quests))
	return quests, nil
}

func (c *Client) get(ctx context.Context, url string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: %s", common.ErrFetch, resp.Status, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: reading envelope: %v", common.ErrFetch, err)
	}
	return &env, nil
}
