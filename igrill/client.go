package igrill

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

const readingsPath = "readings"

// Client talks to the iGrill server on the local network.
type Client struct {
	baseUrl    *url.URL
	httpClient *http.Client
}

// NewClient binds to http://{serverAddress}:{port}. A zero timeout leaves the
// request bounded only by ctx and the transport defaults.
func NewClient(serverAddress string, port int, timeout time.Duration) (*Client, error) {
	if len(serverAddress) == 0 {
		return nil, errors.New("igrill server address is empty")
	}
	if port < 1 || port > 65535 {
		return nil, errors.Errorf("igrill server port %d out of range", port)
	}

	return NewClientFromUrl("http://"+net.JoinHostPort(serverAddress, strconv.Itoa(port)), timeout)
}

func NewClientFromUrl(rawUrl string, timeout time.Duration) (*Client, error) {
	baseUrl, err := url.Parse(rawUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse igrill server url %s", rawUrl)
	}
	if len(baseUrl.Host) == 0 {
		return nil, errors.Errorf("igrill server url %s has no host", rawUrl)
	}

	return &Client{
		baseUrl:    baseUrl,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) ReadingsUrl() string {
	return c.baseUrl.JoinPath(readingsPath).String()
}

// GetReadings returns an error wrapping ErrServerUnreachable when the
// connection is refused and ErrProbeUnavailable on any other failure.
func (c *Client) GetReadings(ctx context.Context) (readings Readings, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReadingsUrl(), nil)
	if err != nil {
		err = errors.Wrap(ErrProbeUnavailable, err.Error())
		return
	}
	req.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(req)
	if err != nil {
		err = classifyTransportError(err)
		return
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		err = errors.Wrapf(ErrProbeUnavailable, "GET %s answered %d", c.ReadingsUrl(), response.StatusCode)
		return
	}

	err = json.NewDecoder(response.Body).Decode(&readings)
	if err != nil {
		err = errors.Wrapf(ErrProbeUnavailable, "decoding readings failed: %v", err)
		return
	}

	return
}

func classifyTransportError(err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return errors.Wrap(ErrServerUnreachable, err.Error())
	}
	return errors.Wrap(ErrProbeUnavailable, err.Error())
}
