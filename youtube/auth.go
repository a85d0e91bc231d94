// Package youtube publishes finished videos to YouTube.
package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// ErrAuthorizationRequired means no usable token exists and someone has to run
// the interactive authorize command. The publish path never prompts.
var ErrAuthorizationRequired = errors.New("youtube authorization required: run `tilbot authorize`")

// TokenStore persists the OAuth token as JSON
type TokenStore struct {
	path string
	mu   sync.Mutex
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load returns the cached token. A missing file wraps os.ErrNotExist.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}
	return &tok, nil
}

// Save writes tok atomically with owner-only permissions
func (s *TokenStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// LoadOAuthConfig reads the client secrets file downloaded from the Google console
func LoadOAuthConfig(credentialsPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secrets: %w", err)
	}
	return cfg, nil
}

// OAuthConfigFromEnv builds a config from YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET.
// It returns nil when either is unset.
func OAuthConfigFromEnv() *oauth2.Config {
	id, secret := os.Getenv("YOUTUBE_CLIENT_ID"), os.Getenv("YOUTUBE_CLIENT_SECRET")
	if id == "" || secret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     id,
		ClientSecret: secret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
		RedirectURL:  "http://localhost",
	}
}

// TokenProvider hands out a valid access token or ErrAuthorizationRequired
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Credentials serves tokens from the cache, refreshing and persisting them when expired
type Credentials struct {
	config *oauth2.Config
	store  *TokenStore
}

func NewCredentials(cfg *oauth2.Config, store *TokenStore) *Credentials {
	return &Credentials{config: cfg, store: store}
}

// Token returns a valid token without any user interaction
func (c *Credentials) Token(ctx context.Context) (*oauth2.Token, error) {
	cached, err := c.store.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no cached token at %s", ErrAuthorizationRequired, c.store.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthorizationRequired, err)
	}
	if cached.Valid() {
		return cached, nil
	}
	if cached.RefreshToken == "" {
		return nil, fmt.Errorf("%w: cached token expired and has no refresh token", ErrAuthorizationRequired)
	}

	fresh, err := c.config.TokenSource(ctx, cached).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode >= 400 && re.Response.StatusCode < 500 {
			return nil, fmt.Errorf("%w: refresh rejected: %v", ErrAuthorizationRequired, err)
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cached.RefreshToken
	}
	if err := c.store.Save(fresh); err != nil {
		log.Printf("[youtube] ⚠️  refreshed token not persisted: %v", err)
	} else {
		log.Println("[youtube] 🔑 Access token refreshed")
	}
	return fresh, nil
}

// HTTPClient returns an authorized client for the YouTube API
func (c *Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, c.config.TokenSource(ctx, tok)), nil
}

// Authorize runs the interactive consent flow: it prints the consent URL, reads
// the authorization code (or the full redirect URL) from in and caches the token.
func Authorize(ctx context.Context, cfg *oauth2.Config, store *TokenStore, in io.Reader, out io.Writer) error {
	authURL := cfg.AuthCodeURL("tilbot", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(out, "Open this URL in a browser and authorize tilbot:")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "  "+authURL)
	fmt.Fprintln(out, "")
	fmt.Fprint(out, "Paste the authorization code or the redirected URL: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := extractCode(line)
	if code == "" {
		return errors.New("no authorization code provided")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := store.Save(tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", store.path)
	return nil
}

// extractCode accepts either a bare code or a redirect URL carrying ?code=
func extractCode(input string) string {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "code=") {
		if u, err := url.Parse(input); err == nil {
			if c := u.Query().Get("code"); c != "" {
				return c
			}
		}
	}
	return input
}
