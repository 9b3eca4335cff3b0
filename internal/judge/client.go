// Package judge talks to a Judge0-compatible remote code execution service.
package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoTokens means the batch submit returned an empty token list; there
	// is nothing to poll, so the whole batch fails fast.
	ErrNoTokens = errors.New("judge: batch submit returned no tokens")
	// ErrTimeout means a submission did not reach a terminal state within
	// the configured polling window.
	ErrTimeout = errors.New("judge: timed out waiting for terminal state")
)

// Status ids per the Judge0 protocol. Anything >= StatusTerminal will not
// change further (accepted, wrong answer, compile error, TLE, ...).
const (
	StatusInQueue    = 1
	StatusProcessing = 2
	StatusTerminal   = 3
)

// Unit is one source-code run: code + stdin for a given language.
type Unit struct {
	SourceCode string
	LanguageID int
	Stdin      string
}

// Result is the decoded terminal outcome of one Unit.
type Result struct {
	Token         string
	StatusID      int
	Stdout        string
	Stderr        string
	CompileOutput string
	Message       string
}

// ErrorMessage returns the first non-empty compiler/runtime diagnostic.
func (r Result) ErrorMessage() string {
	if r.CompileOutput != "" {
		return r.CompileOutput
	}
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Message
}

// Runner is the capability the grading engine needs. Results are returned in
// submission order.
type Runner interface {
	RunBatch(ctx context.Context, units []Unit) ([]Result, error)
}

type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	maxWait      time.Duration
}

func NewClient(baseURL string, pollInterval, maxWait time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = 1500 * time.Millisecond
	}
	if maxWait <= 0 {
		maxWait = 90 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		maxWait:      maxWait,
	}
}

type batchSubmission struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

type tokenResp struct {
	Token string `json:"token"`
}

type statusResp struct {
	Status struct {
		ID int `json:"id"`
	} `json:"status"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
}

// RunBatch submits all units in one call, then polls every token until it is
// terminal. One slow unit delays the batch, but never past maxWait.
func (c *Client) RunBatch(ctx context.Context, units []Unit) ([]Result, error) {
	if len(units) == 0 {
		return nil, nil
	}
	tokens, err := c.submitBatch(ctx, units)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}
	if len(tokens) != len(units) {
		return nil, fmt.Errorf("judge: submitted %d units, got %d tokens", len(units), len(tokens))
	}

	results := make([]Result, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	for i, tok := range tokens {
		g.Go(func() error {
			res, err := c.pollUntilTerminal(gctx, tok)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) submitBatch(ctx context.Context, units []Unit) ([]string, error) {
	subs := make([]batchSubmission, 0, len(units))
	for _, u := range units {
		subs = append(subs, batchSubmission{
			SourceCode: base64.StdEncoding.EncodeToString([]byte(u.SourceCode)),
			LanguageID: u.LanguageID,
			Stdin:      base64.StdEncoding.EncodeToString([]byte(u.Stdin)),
		})
	}
	body, err := json.Marshal(map[string]any{"submissions": subs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/submissions/batch?base64_encoded=true", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge: batch submit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("judge: batch submit status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var toks []tokenResp
	if err := json.NewDecoder(resp.Body).Decode(&toks); err != nil {
		return nil, fmt.Errorf("judge: decode tokens: %w", err)
	}
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if t.Token != "" {
			out = append(out, t.Token)
		}
	}
	return out, nil
}

// pollUntilTerminal fetches token status with exponential backoff (base
// pollInterval, capped at 4x) until terminal or the maxWait deadline.
func (c *Client) pollUntilTerminal(ctx context.Context, token string) (Result, error) {
	deadline := time.Now().Add(c.maxWait)
	wait := c.pollInterval
	maxStep := 4 * c.pollInterval

	for {
		res, terminal, err := c.fetchStatus(ctx, token)
		if err != nil {
			return Result{}, err
		}
		if terminal {
			res.Token = token
			return res, nil
		}
		if time.Now().After(deadline) {
			return Result{}, fmt.Errorf("%w (token %s)", ErrTimeout, token)
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxStep {
			wait = maxStep
		}
	}
}

func (c *Client) fetchStatus(ctx context.Context, token string) (Result, bool, error) {
	u := c.baseURL + "/submissions/" + url.PathEscape(token) + "?base64_encoded=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, false, fmt.Errorf("judge: fetch status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return Result{}, false, fmt.Errorf("judge: status %d for token %s: %s", resp.StatusCode, token, bytes.TrimSpace(b))
	}

	var sr statusResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Result{}, false, fmt.Errorf("judge: decode status: %w", err)
	}
	if sr.Status.ID < StatusTerminal {
		return Result{}, false, nil
	}
	return Result{
		StatusID:      sr.Status.ID,
		Stdout:        decodeB64(sr.Stdout),
		Stderr:        decodeB64(sr.Stderr),
		CompileOutput: decodeB64(sr.CompileOutput),
		Message:       decodeB64(sr.Message),
	}, true, nil
}

// decodeB64 tolerates plain text: some deployments skip encoding on short
// diagnostic fields.
func decodeB64(p *string) string {
	if p == nil {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(*p)
	if err != nil {
		return *p
	}
	return string(b)
}
