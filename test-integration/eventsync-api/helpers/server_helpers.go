package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	"github.com/mindfulina/eventsync/internal/api"
	syncapp "github.com/mindfulina/eventsync/internal/app"
	"github.com/mindfulina/eventsync/internal/config"
	"github.com/mindfulina/eventsync/internal/event"
)

// Secrets written by WriteConfig
const (
	EventbriteToken = "eb-integration-token"
	ContentToken    = "gh-integration-token"
	WebhookSecret   = "integration-secret"
)

// ServerTestHelper manages the eventsync server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	cancel     context.CancelFunc
	configPath string
	baseURL    string
	httpClient *http.Client
	app        *syncapp.EventSyncApp
	done       chan error
	port       int
}

// NewServerTestHelper creates a new server test helper listening on a free port
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	port := freePort()
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		port: port,
	}
}

// WriteConfig writes a configuration pointing both integrations at the fakes,
// with secrets in files under dir. It returns the configuration path.
func WriteConfig(dir, eventbriteURL, githubURL string, registrationEnabled bool) string {
	secrets := map[string]string{
		"eventbrite-token": EventbriteToken,
		"content-token":    ContentToken,
		"webhook-secret":   WebhookSecret,
	}
	for name, value := range secrets {
		gomega.Expect(os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0600)).To(gomega.Succeed())
	}

	cfg := fmt.Sprintf(`
registration:
  enabled: %t
  apiURL: %s
  templateEventID: "900"
  organizerID: "42"
  timezone: Pacific/Honolulu
  capacity: 12
content:
  backend: github
  github:
    apiURL: %s
    owner: mindfulina
    repo: site
credentials:
  eventbriteTokenFile: %s
  contentTokenFile: %s
  webhookSecretFile: %s
  disableKeyring: true
`, registrationEnabled, eventbriteURL, githubURL,
		filepath.Join(dir, "eventbrite-token"),
		filepath.Join(dir, "content-token"),
		filepath.Join(dir, "webhook-secret"))

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(cfg), 0600)).To(gomega.Succeed())
	return path
}

// StartServer builds the application from the configuration file and serves it in the background
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	app, err := syncapp.NewEventSyncApp(ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(fmt.Sprintf("127.0.0.1:%d", s.port)),
	)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to build app: %w", err)
	}

	s.app = app
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.Start(ctx)
	}()
	return nil
}

// StopServer stops the server and waits for Start to return
func (s *ServerTestHelper) StopServer() error {
	if s.app == nil {
		return nil
	}
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(10 * time.Second):
		return fmt.Errorf("server did not stop in time")
	}
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/health")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// PostEvent sends payload to the webhook endpoint with the shared secret
func (s *ServerTestHelper) PostEvent(payload string) (*http.Response, error) {
	return s.PostEventWithSecret(payload, WebhookSecret)
}

// PostEventWithSecret sends payload with the given secret header; an empty secret omits the header
func (s *ServerTestHelper) PostEventWithSecret(payload, secret string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.baseURL+api.EventsPath, bytes.NewBufferString(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(api.WebhookSecretHeader, secret)
	}
	return s.httpClient.Do(req)
}

// GetReadiness makes a GET request to /readiness
func (s *ServerTestHelper) GetReadiness() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/readiness")
}

// DecodeResult reads an orchestration result body and closes it
func DecodeResult(resp *http.Response) *event.OrchestrationResult {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	var res event.OrchestrationResult
	gomega.Expect(json.Unmarshal(body, &res)).To(gomega.Succeed(), string(body))
	return &res
}

func freePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = l.Close()
	}()
	return l.Addr().(*net.TCPAddr).Port
}
