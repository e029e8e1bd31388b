package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the bearer credential for authenticated calls and
// invalidates it when the backend rejects it. The session store implements
// this; tests substitute in-memory fakes.
type TokenSource interface {
	Token() (string, error)
	Clear() error
}

// Client talks to the Reperto backend over the contract described in the
// API documentation. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// DefaultTimeout matches the transport ceiling the mobile client used.
const DefaultTimeout = 10 * time.Second

// NewClient creates a backend client. A zero timeout falls back to
// DefaultTimeout; tokens may be nil for a client that only performs
// unauthenticated calls.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
	}
}

// errorBody covers both error shapes the backend emits.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed && c.tokens != nil {
		token, err := c.tokens.Token()
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			if clearErr := c.tokens.Clear(); clearErr != nil {
				// The credential is stale either way; the caller still has
				// to re-authenticate.
				_ = clearErr
			}
		}
		return &AuthError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s", readErrorMessage(resp.Body)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readErrorMessage extracts a human-readable message from an error response
// body, falling back to the raw text when it is not JSON.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no error detail"
	}
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Detail != "" {
			return eb.Detail
		}
	}
	return strings.TrimSpace(string(raw))
}

// Login exchanges credentials for an access token. The token is returned,
// not stored; persisting it is the session layer's job.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	body := map[string]string{"email": email, "password": password}
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &tok, false); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Signup registers a new account and returns its first access token.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*Token, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &tok, false); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Me returns the authenticated clinician profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

// Cases lists the caller's cases, newest first. limit <= 0 means the
// backend default.
func (c *Client) Cases(ctx context.Context, limit int) ([]CaseSummary, error) {
	path := "/cases"
	if limit > 0 {
		path = fmt.Sprintf("/cases?limit=%d", limit)
	}
	var cases []CaseSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &cases, true); err != nil {
		return nil, err
	}
	return cases, nil
}

// Case fetches a case together with its persisted rubrics and remedies.
func (c *Client) Case(ctx context.Context, id int) (*CaseAnalysis, error) {
	var ca CaseAnalysis
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cases/%d", id), nil, &ca, true); err != nil {
		return nil, err
	}
	NormalizeRubrics(ca.Rubrics)
	NormalizeRemedies(ca.Remedies)
	return &ca, nil
}

// CreateCase opens a new case for a patient.
func (c *Client) CreateCase(ctx context.Context, in CaseCreate) (*CaseSummary, error) {
	var cs CaseSummary
	if err := c.do(ctx, http.MethodPost, "/cases", in, &cs, true); err != nil {
		return nil, err
	}
	return &cs, nil
}

// AnalyzeCase runs the full analysis for a case: the backend extracts
// rubrics from the complaint and ranks remedy candidates.
func (c *Client) AnalyzeCase(ctx context.Context, caseID int, text string) (*CaseAnalysis, error) {
	body := map[string]string{"text": text}
	var ca CaseAnalysis
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/cases/%d/analyze", caseID), body, &ca, true); err != nil {
		return nil, err
	}
	NormalizeRubrics(ca.Rubrics)
	NormalizeRemedies(ca.Remedies)
	return &ca, nil
}

// ParseText runs the lightweight rubric suggestion endpoint without
// touching any stored case.
func (c *Client) ParseText(ctx context.Context, text string) (*ParseResult, error) {
	body := map[string]string{"text": text}
	var pr ParseResult
	if err := c.do(ctx, http.MethodPost, "/ai/parse-text", body, &pr, true); err != nil {
		return nil, err
	}
	NormalizeRubrics(pr.Rubrics)
	return &pr, nil
}

// SuggestComplaint asks the backend to complete a partially typed
// complaint.
func (c *Client) SuggestComplaint(ctx context.Context, text string) (string, error) {
	body := map[string]string{"text": text}
	var out struct {
		Suggestion string `json:"suggestion"`
	}
	if err := c.do(ctx, http.MethodPost, "/ai/suggest-complaint", body, &out, true); err != nil {
		return "", err
	}
	return out.Suggestion, nil
}

// Patients lists the caller's patients, newest first.
func (c *Client) Patients(ctx context.Context) ([]PatientSummary, error) {
	var patients []PatientSummary
	if err := c.do(ctx, http.MethodGet, "/patients", nil, &patients, true); err != nil {
		return nil, err
	}
	return patients, nil
}

// Patient fetches a single patient record.
func (c *Client) Patient(ctx context.Context, id int) (*PatientSummary, error) {
	var p PatientSummary
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/patients/%d", id), nil, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePatient registers a new patient record.
func (c *Client) CreatePatient(ctx context.Context, in PatientCreate) (*PatientSummary, error) {
	var p PatientSummary
	if err := c.do(ctx, http.MethodPost, "/patients", in, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}
