package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	DefaultLanguage = "en"
	DefaultBaseURL  = "https://translate.googleapis.com"
	DefaultTimeout  = 10 * time.Second
)

var ErrDisabled = errors.New("translation disabled")

type Translator interface {
	Translate(ctx context.Context, source, target, text string) (string, error)
}

// NormalizeLanguage canonicalizes a BCP 47 tag. Empty or unparseable tags
// become DefaultLanguage.
func NormalizeLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultLanguage
	}

	t, err := language.Parse(tag)
	if err != nil {
		return DefaultLanguage
	}

	return t.String()
}

// GoogleTranslator calls the public Google translate web endpoint.
type GoogleTranslator struct {
	baseURL string
	client  *http.Client
}

// NewGoogleTranslator returns a client for baseURL. An empty baseURL
// disables translation.
func NewGoogleTranslator(baseURL string, timeout time.Duration) *GoogleTranslator {
	return &GoogleTranslator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *GoogleTranslator) Translate(ctx context.Context, source, target, text string) (string, error) {
	if source == target || strings.TrimSpace(text) == "" {
		return text, nil
	}

	if g.baseURL == "" {
		return "", ErrDisabled
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body []any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return parseSegments(body)
}

// parseSegments joins the translated sentences found in the first element
// of the response, e.g. [[["Bonjour","Hello",null,null,10]],null,"en"].
func parseSegments(body []any) (string, error) {
	if len(body) == 0 {
		return "", errors.New("empty response")
	}

	segments, ok := body[0].([]any)
	if !ok {
		return "", errors.New("malformed response")
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}

		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}

	if sb.Len() == 0 {
		return "", errors.New("no translation in response")
	}

	return sb.String(), nil
}
