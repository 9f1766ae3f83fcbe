// Extracting SoundCloud credentials from a request copied out of the browser ("Copy as cURL").
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`'(https?://[^']+)'|"(https?://[^"]+)"|(https?://[^\s'"]+)`)
)

// CurlRequest holds the parts of a copied cURL command needed to reuse its credentials.
//
// Header keys are lower-cased.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts the URL, headers and cookies from a cURL command.
//
// Line continuations are accepted. A command without any header or cookie is rejected.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\r\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")

	req := &CurlRequest{Headers: make(map[string]string)}

	rest := curlCookieRegex.ReplaceAllString(curlHeaderRegex.ReplaceAllString(curlCmd, ""), "")
	if m := curlURLRegex.FindStringSubmatch(rest); m != nil {
		req.URL = firstGroup(m)
	}

	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "cookie" {
			if req.Cookie == "" {
				req.Cookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		req.Cookie = firstGroup(m)
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return req, nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// SoundCloudToken returns the OAuth token the browser sent to SoundCloud.
//
// The token is read from an "Authorization: OAuth <token>" header, falling back to the oauth_token cookie.
func (c *CurlRequest) SoundCloudToken() (string, error) {
	if auth, ok := c.Headers["authorization"]; ok {
		scheme, token, found := strings.Cut(auth, " ")
		if found && strings.EqualFold(scheme, "OAuth") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}

	for part := range strings.SplitSeq(c.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == "oauth_token" && value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf("%w: no SoundCloud OAuth token in request (copy a request to api-v2.soundcloud.com)", ErrMissingCredentials)
}
