package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/model"
	"github.com/stemsi/quizrunner/internal/repository"
)

var (
	// ErrLoaderNotConfigured is returned when no quiz API URL is set.
	ErrLoaderNotConfigured = errors.New("quiz API URL not configured")
	// ErrQuizUnavailable wraps every network, status or decoding failure.
	ErrQuizUnavailable = errors.New("quiz data unavailable")
)

// maxPayloadBytes bounds the quiz response read into memory.
const maxPayloadBytes = 8 << 20

// FetchResult is one successful load of the quiz payload.
type FetchResult struct {
	// Raw is the quiz JSON exactly as received (after proxy unwrapping).
	Raw  []byte
	Quiz *model.Quiz
}

// proxyEnvelope is the response shape of the content proxy.
type proxyEnvelope struct {
	Contents *string `json:"contents"`
}

// LoaderService fetches quiz data from the remote API and hands it off to
// the runner.
type LoaderService struct {
	apiURL   string
	proxyURL string
	client   *http.Client
	handoffs repository.HandoffRepository
	log      zerolog.Logger
}

// NewLoaderService creates a new LoaderService.
func NewLoaderService(cfg *config.Config, handoffs repository.HandoffRepository, log zerolog.Logger) *LoaderService {
	return &LoaderService{
		apiURL:   strings.TrimSpace(cfg.QuizAPIURL),
		proxyURL: strings.TrimSpace(cfg.QuizProxyURL),
		client:   &http.Client{Timeout: cfg.FetchTimeout},
		handoffs: handoffs,
		log:      log.With().Str("component", "loader_service").Logger(),
	}
}

// WithHTTPClient replaces the HTTP client used for fetching.
func (s *LoaderService) WithHTTPClient(client *http.Client) *LoaderService {
	s.client = client
	return s
}

// Fetch performs a single request for the quiz. Failures are logged once
// and never retried.
func (s *LoaderService) Fetch(ctx context.Context) (*FetchResult, error) {
	if s.apiURL == "" {
		s.log.Error().Msg("QUIZ_API_URL is empty")
		return nil, ErrLoaderNotConfigured
	}

	start := time.Now()
	raw, err := s.fetchRaw(ctx)
	if err != nil {
		s.log.Error().Err(err).Bool("proxied", s.proxyURL != "").Msg("Error fetching quiz data")
		return nil, fmt.Errorf("%w: %v", ErrQuizUnavailable, err)
	}

	quiz, err := model.DecodeQuiz(raw)
	if err != nil {
		s.log.Error().Err(err).Msg("Error decoding quiz data")
		return nil, fmt.Errorf("%w: %v", ErrQuizUnavailable, err)
	}

	s.log.Info().
		Int64("quiz_id", quiz.ID).
		Str("title", quiz.Title).
		Int("questions", quiz.Total()).
		Dur("took", time.Since(start)).
		Msg("Quiz data fetched")

	return &FetchResult{Raw: raw, Quiz: quiz}, nil
}

// FetchAndHandoff fetches the quiz and stores its payload for the runner.
// It returns the summary for the landing screen and the handoff id.
func (s *LoaderService) FetchAndHandoff(ctx context.Context) (*model.QuizSummary, string, error) {
	res, err := s.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}
	id, err := s.handoffs.Put(ctx, res.Raw)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to store handoff")
		return nil, "", fmt.Errorf("hand off quiz: %w", err)
	}
	summary := res.Quiz.Summary()
	return &summary, id, nil
}

// requestURL returns the URL to fetch, routed through the proxy if one
// is configured.
func (s *LoaderService) requestURL() string {
	if s.proxyURL == "" {
		return s.apiURL
	}
	return s.proxyURL + encodeURIComponent(s.apiURL)
}

func (s *LoaderService) fetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.requestURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request quiz: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxPayloadBytes {
		return nil, fmt.Errorf("payload exceeds %d bytes", maxPayloadBytes)
	}

	if s.proxyURL == "" {
		if !json.Valid(body) {
			return nil, errors.New("response is not JSON")
		}
		return body, nil
	}
	return unwrapProxy(body)
}

// unwrapProxy extracts the JSON text carried in the proxy's contents field.
func unwrapProxy(body []byte) ([]byte, error) {
	var env proxyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode proxy envelope: %w", err)
	}
	if env.Contents == nil {
		return nil, errors.New("proxy envelope has no contents")
	}
	inner := []byte(*env.Contents)
	if !json.Valid(inner) {
		return nil, errors.New("proxy contents are not JSON")
	}
	return inner, nil
}

// encodeURIComponent escapes s like the JavaScript function of the same
// name, which proxies expect for their url parameter.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	for _, keep := range []string{"!", "'", "(", ")", "*"} {
		escaped = strings.ReplaceAll(escaped, url.QueryEscape(keep), keep)
	}
	return escaped
}
