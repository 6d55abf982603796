// Package github implements the content store on top of the GitHub repository contents API.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mindfulina/eventsync/internal/content"
	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/httpclient"
)

const (
	// DefaultAPIURL is the public GitHub REST API root
	DefaultAPIURL = "https://api.github.com"
	// DefaultBranch is the branch records are committed to
	DefaultBranch = "main"

	platformName = "GitHub"
	apiVersion   = "2022-11-28"
	mediaType    = "application/vnd.github+json"
)

// Config identifies the repository records are written to
type Config struct {
	APIURL  string
	Owner   string
	Repo    string
	Branch  string
	Timeout time.Duration
}

// Store writes files through the contents API. Writes overwrite existing files.
type Store struct {
	cfg     Config
	newHTTP func(token string) httpclient.Client
}

var _ content.Store = (*Store)(nil)

// NewStore creates a Store for cfg
func NewStore(cfg Config) (*Store, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}

	return &Store{
		cfg: cfg,
		newHTTP: func(token string) httpclient.Client {
			return httpclient.NewDefaultClient(cfg.Timeout,
				httpclient.WithHeader("Accept", mediaType),
				httpclient.WithHeader("X-GitHub-Api-Version", apiVersion),
				httpclient.WithBearerToken(token),
			)
		},
	}, nil
}

// Name returns the platform name used in messages
func (*Store) Name() string {
	return platformName
}

// Put creates file.Path or replaces its current version on the configured branch
func (s *Store) Put(ctx context.Context, token string, file content.File) (*content.Revision, error) {
	hc := s.newHTTP(token)
	endpoint := s.contentsURL(file.Path)

	sha, err := s.currentSHA(ctx, hc, endpoint)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"message": file.Message,
		"content": base64.StdEncoding.EncodeToString(file.Content),
		"branch":  s.cfg.Branch,
	}
	if sha != "" {
		body["sha"] = sha
		slog.DebugContext(ctx, "Overwriting existing file", "path", file.Path, "sha", sha)
	}

	resp, err := hc.Do(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return nil, toUpstream(err, http.MethodPut, file.Path)
	}

	result := gjson.ParseBytes(resp.Body)
	rev := &content.Revision{
		ID:  result.Get("commit.sha").String(),
		URL: result.Get("content.html_url").String(),
	}
	if rev.URL == "" {
		slog.WarnContext(ctx, "GitHub response did not include a file URL", "path", file.Path)
	}
	return rev, nil
}

// currentSHA returns the blob sha of the file on the branch, or "" when it does not exist
func (s *Store) currentSHA(ctx context.Context, hc httpclient.Client, endpoint string) (string, error) {
	resp, err := hc.Do(ctx, http.MethodGet, endpoint+"?ref="+url.QueryEscape(s.cfg.Branch), nil)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", toUpstream(err, http.MethodGet, endpoint)
	}
	return gjson.GetBytes(resp.Body, "sha").String(), nil
}

func (s *Store) contentsURL(filePath string) string {
	segments := strings.Split(strings.Trim(filePath, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.cfg.APIURL, url.PathEscape(s.cfg.Owner), url.PathEscape(s.cfg.Repo), strings.Join(segments, "/"))
}

// toUpstream converts a rejected response into an *event.UpstreamError
func toUpstream(err error, method, target string) error {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	upstream := &event.UpstreamError{
		Platform:   platformName,
		StatusCode: httpErr.StatusCode,
		Status:     http.StatusText(httpErr.StatusCode),
		Body:       string(httpErr.Body),
	}
	if gjson.ValidBytes(httpErr.Body) {
		upstream.Message = gjson.GetBytes(httpErr.Body, "message").String()
	}
	return upstream
}
