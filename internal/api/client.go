// Package api talks to the remote predictor API.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"predictor/internal/apperr"
	"predictor/internal/models"
	"predictor/internal/providers"
	"predictor/internal/structures"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
)

const (
	defaultCreateLeadPath         = "/api/create"
	defaultPredictionsPath        = "/api/predictions"
	defaultCollegePredictionsPath = "/api/predictions/college"
	defaultUserDetailsPath        = "/api/user-details"

	maxBodyBytes = 8 << 20
)

// Credentials supplies the bearer token and is cleared when the API answers
// 401.
type Credentials interface {
	Token() (string, bool)
	Clear()
}

type ApiClientInterface interface {
	FetchPredictions(ctx context.Context, creds Credentials, q models.PredictionQuery) (*models.PredictionResultPage, error)
	FetchCollegePredictions(ctx context.Context, creds Credentials, q models.PredictionQuery, user *models.ContactDetails) (*models.PredictionResultPage, error)
	SubmitUserDetails(ctx context.Context, creds Credentials, details models.ContactDetails) error
	CreateLead(ctx context.Context, lead models.Lead) (map[string]any, error)
}

type ApiClient struct {
	baseUrl string
	paths   structures.ApiPaths
	http    *http.Client
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	cache   providers.CacheProviderInterface
}

// envelope is the response wrapper used by every endpoint. Paginated
// endpoints answer in result, the others in data.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Result  json.RawMessage   `json:"result"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type collegeRequest struct {
	Institute      string                 `json:"institute"`
	CounselingType string                 `json:"CounselingType"`
	ShowAll        bool                   `json:"showAll,omitempty"`
	UserDetails    *models.ContactDetails `json:"userDetails,omitempty"`
	Page           int                    `json:"page"`
	Limit          int                    `json:"limit"`
	Filters        map[string]string      `json:"filters,omitempty"`
}

func NewApiClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface, cache providers.CacheProviderInterface) ApiClientInterface {
	paths := conf.Api.Paths
	paths.CreateLead = orDefault(paths.CreateLead, defaultCreateLeadPath)
	paths.Predictions = orDefault(paths.Predictions, defaultPredictionsPath)
	paths.CollegePredictions = orDefault(paths.CollegePredictions, defaultCollegePredictionsPath)
	paths.UserDetails = orDefault(paths.UserDetails, defaultUserDetailsPath)

	return &ApiClient{
		baseUrl: strings.TrimRight(conf.Api.BaseUrl, "/"),
		paths:   paths,
		http:    newHTTPClient(conf.Api),
		logger:  logger,
		metrics: metrics,
		cache:   cache,
	}
}

func newHTTPClient(conf structures.ApiConfig) *http.Client {
	idle := conf.MaxIdleConns
	if idle <= 0 {
		idle = 100
	}
	return &http.Client{
		Timeout: conf.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:          idle,
			MaxIdleConnsPerHost:   max(idle/10, 2),
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: conf.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// FetchPredictions loads one page of rank-based predictions. Successful
// pages are cached by their canonical query string, per bearer token.
func (c *ApiClient) FetchPredictions(ctx context.Context, creds Credentials, q models.PredictionQuery) (*models.PredictionResultPage, error) {
	target := c.paths.Predictions + "?" + q.Encode()
	key := cacheKey(target, creds)

	if cached, ok := c.cache.Get(key); ok {
		var page models.PredictionResultPage
		if err := json.Unmarshal(cached, &page); err == nil {
			c.logger.Debugf(providers.TypeApi, "Cache hit for %s", target)
			return &page, nil
		}
	}

	env, err := c.do(ctx, creds, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	page, err := decodePage(env)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(page); err == nil {
		c.cache.Set(key, raw)
	}
	return page, nil
}

// FetchCollegePredictions loads one page of predictions for an institute.
// Filters other than the institute pairing travel in the filters object.
func (c *ApiClient) FetchCollegePredictions(ctx context.Context, creds Credentials, q models.PredictionQuery, user *models.ContactDetails) (*models.PredictionResultPage, error) {
	body := collegeRequest{
		Institute:      q.Institute,
		CounselingType: q.CounselingType,
		ShowAll:        q.ShowAll,
		UserDetails:    user,
		Page:           q.Page,
		Limit:          q.Limit,
	}
	for key, vals := range q.Values() {
		switch key {
		case "institute", "counselingType", "page", "limit", "showAll":
			continue
		}
		if body.Filters == nil {
			body.Filters = make(map[string]string)
		}
		body.Filters[key] = vals[0]
	}

	env, err := c.do(ctx, creds, http.MethodPost, c.paths.CollegePredictions, body)
	if err != nil {
		return nil, err
	}
	return decodePage(env)
}

// cacheKey scopes a cached response to the token that fetched it, so a page
// is never served to another credential and a revoked token still reaches
// the API.
func cacheKey(target string, creds Credentials) string {
	if creds == nil {
		return target
	}
	token, ok := creds.Token()
	if !ok {
		return target
	}
	return target + "#" + strconv.FormatUint(xxhash.Sum64String(token), 16)
}

func (c *ApiClient) SubmitUserDetails(ctx context.Context, creds Credentials, details models.ContactDetails) error {
	_, err := c.do(ctx, creds, http.MethodPost, c.paths.UserDetails, details)
	return err
}

func (c *ApiClient) CreateLead(ctx context.Context, lead models.Lead) (map[string]any, error) {
	env, err := c.do(ctx, nil, http.MethodPost, c.paths.CreateLead, lead)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, apperr.Upstream(http.StatusBadGateway, "unexpected lead response")
		}
	}
	return data, nil
}

func (c *ApiClient) do(ctx context.Context, creds Credentials, method, target string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", target, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", target, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds != nil {
		if token, ok := creds.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	endpoint := endpointName(target)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstreamCall(endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warnf(providers.TypeApi, "%s %s failed: %s", method, endpoint, err)
		return nil, apperr.Network(err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstreamCall(endpoint, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Network(err)
	}

	env := &envelope{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, env); err != nil && resp.StatusCode < 300 {
			c.logger.Errorf(providers.TypeApi, "%s %s returned an unreadable body: %s", method, endpoint, err)
			return nil, apperr.Upstream(http.StatusBadGateway, "unexpected response from predictor service")
		}
	}

	if err := c.statusError(resp.StatusCode, env, creds); err != nil {
		c.logger.Warnf(providers.TypeApi, "%s %s answered %d: %s", method, endpoint, resp.StatusCode, env.Message)
		return nil, err
	}
	if !env.Success {
		return nil, apperr.Upstream(resp.StatusCode, orDefault(env.Message, "request was not successful"))
	}
	return env, nil
}

func (c *ApiClient) statusError(status int, env *envelope, creds Credentials) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusUnauthorized:
		if creds != nil {
			creds.Clear()
		}
		return apperr.Unauthorized(env.Message)
	case status == http.StatusForbidden:
		return apperr.Forbidden(orDefault(env.Message, "not allowed"))
	case (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) && len(env.Errors) > 0:
		return apperr.Validation(orDefault(env.Message, "request was rejected"), env.Errors)
	case status < 500:
		e := apperr.Upstream(status, env.Message)
		e.Retryable = false
		return e
	default:
		return apperr.Upstream(status, env.Message)
	}
}

func decodePage(env *envelope) (*models.PredictionResultPage, error) {
	raw := env.Result
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = env.Data
	}
	page := &models.PredictionResultPage{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return page, nil
	}
	if err := json.Unmarshal(raw, page); err != nil {
		return nil, apperr.Upstream(http.StatusBadGateway, "unexpected prediction payload")
	}
	return page, nil
}

// endpointName strips the query string so metric labels stay bounded.
func endpointName(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
