package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"trip-planner/internal/models"
	"trip-planner/pkg/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 4 << 20

// ClientInterface is the outbound side of the trip workflow.
type ClientInterface interface {
	// PlanTrip sends one trip request. Every failure is a *models.RequestError.
	PlanTrip(ctx context.Context, req models.TripRequest) (*models.TripResult, error)
	// ResolveAsset turns an image or PDF reference into an absolute URL on
	// the backend's origin.
	ResolveAsset(ref string) string
}

// ClientOptions configures the backend client. The zero values of Timeout and
// MaxRetries mean no timeout and no retry.
type ClientOptions struct {
	BaseURL      string
	Endpoint     string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client // optional, e.g. an OAuth2 client; copied, never modified
}

// Client calls the trip-planning backend over HTTP.
type Client struct {
	baseURL      *url.URL
	endpoint     *url.URL
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
}

// NewClient validates the options and builds a Client.
func NewClient(opts ClientOptions) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("planner.NewClient: invalid base URL %q", opts.BaseURL)
	}
	ep, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("planner.NewClient: invalid endpoint %q: %w", opts.Endpoint, err)
	}

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		hc := *opts.HTTPClient
		httpClient = &hc
	}
	httpClient.Timeout = opts.Timeout

	return &Client{
		baseURL:      base,
		endpoint:     base.ResolveReference(ep),
		httpClient:   httpClient,
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
	}, nil
}

// NewOAuthHTTPClient returns an HTTP client that attaches client-credential
// tokens to every backend request.
func NewOAuthHTTPClient(ctx context.Context, tokenURL, clientID, clientSecret string, scopes []string) *http.Client {
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return cc.Client(ctx)
}

// Endpoint returns the absolute URL trip requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint.String() }

// ResolveAsset implements ClientInterface.
func (c *Client) ResolveAsset(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// PlanTrip implements ClientInterface. Transport errors and 5xx responses
// are retried up to MaxRetries times with exponential backoff starting at
// RetryBackoff; anything else fails on the first attempt.
func (c *Client) PlanTrip(ctx context.Context, req models.TripRequest) (*models.TripResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &models.RequestError{Err: fmt.Errorf("client.PlanTrip marshal: %w", err)}
	}

	log := utils.Logger.WithField("endpoint", c.endpoint.String())

	var result *models.TripResult
	var lastErr *models.RequestError
	attempt := 0
	operation := func() error {
		attempt++
		res, reqErr, retryable := c.send(ctx, payload)
		if reqErr == nil {
			result = res
			return nil
		}
		lastErr = reqErr
		if !retryable {
			return backoff.Permanent(reqErr)
		}
		return reqErr
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{"attempt": attempt, "wait": wait, "error": err}).Warn("Retrying trip request")
	}

	if err := backoff.RetryNotify(operation, c.retryPolicy(ctx), notify); err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &models.RequestError{Err: err}
	}
	return result, nil
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.retryBackoff
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(c.maxRetries, 0))), ctx)
}

// send performs a single attempt. retryable reports whether the failure was a
// transport error or a 5xx response.
func (c *Client) send(ctx context.Context, payload []byte) (*models.TripResult, *models.RequestError, bool) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, &models.RequestError{Err: fmt.Errorf("client.PlanTrip build request: %w", err)}, false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &models.RequestError{Err: fmt.Errorf("client.PlanTrip call backend: %w", err)}, true
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &models.RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("client.PlanTrip read body: %w", err)}, true
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &models.RequestError{StatusCode: resp.StatusCode}
		var errBody models.BackendErrorBody
		if json.Unmarshal(body, &errBody) == nil {
			reqErr.ServerMessage = errBody.Error
		}
		return nil, reqErr, resp.StatusCode >= 500
	}

	var result *models.TripResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &models.RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("client.PlanTrip unmarshal: %w", err)}, false
	}
	if result == nil {
		return nil, &models.RequestError{StatusCode: resp.StatusCode, Err: errors.New("client.PlanTrip: empty response body")}, false
	}
	return result, nil, false
}
