package purpleair

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIBase is the public PurpleAir JSON endpoint
const DefaultAPIBase = "https://www.purpleair.com/json"

// maxBodySize caps how much of a response we are willing to read
const maxBodySize = 1 << 20

// ErrTransport wraps every failure to obtain a document from the device
var ErrTransport = errors.New("transport error")

// Client fetches status documents from a single sensor
type Client struct {
	url    string
	client *http.Client
}

// EndpointURL builds the URL to poll. A local IP takes precedence over the
// remote API; endpoint, when set, replaces the remote API base.
func EndpointURL(sensorID, localIP, endpoint string) (string, error) {
	if localIP = strings.TrimSpace(localIP); localIP != "" {
		return fmt.Sprintf("http://%s/json", localIP), nil
	}

	if sensorID = strings.TrimSpace(sensorID); sensorID == "" {
		return "", errors.New("either a sensor ID or a local IP is required")
	}

	base := DefaultAPIBase
	if endpoint != "" {
		base = endpoint
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", base, err)
	}
	q := u.Query()
	q.Set("show", sensorID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewClient creates a client for the given URL. A zero timeout selects ten
// seconds.
func NewClient(endpointURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url: endpointURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL returns the polled URL
func (c *Client) URL() string {
	return c.url
}

// Fetch retrieves the raw status document. Non-200 responses, timeouts and
// network failures are all reported as ErrTransport.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	return body, nil
}
