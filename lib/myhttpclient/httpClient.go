package myhttpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	timeout = 5 * time.Second
)

type httpResult struct {
	status  int
	payload []byte
}

type jsonHTTPClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[httpResult]
}

func newJSONHTTPClient(name string) *jsonHTTPClient {
	return &jsonHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		// Fail fast towards an unresponsive provider instead of stacking
		// up timed-out requests
		breaker: gobreaker.NewCircuitBreaker[httpResult](gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *jsonHTTPClient) Send(ctx context.Context, method string, url string, headers map[string]string, body []byte) (int, []byte, error) {
	result, err := c.breaker.Execute(func() (httpResult, error) {
		return c.send(ctx, method, url, headers, body)
	})
	if err != nil {
		return 0, []byte{}, err
	}

	return result.status, result.payload, nil
}

func (c *jsonHTTPClient) send(ctx context.Context, method string, url string, headers map[string]string, body []byte) (httpResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return httpResult{}, fmt.Errorf("error creating http request for %s %s: %s", method, url, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for name, value := range headers {
		httpReq.Header.Set(name, value)
	}

	log.Printf("HTTP request: %s %s", method, url)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return httpResult{}, fmt.Errorf("error sending %s %s: %s", method, url, err)
	}

	defer httpResp.Body.Close()

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return httpResult{}, fmt.Errorf("error reading response %s %s: %s", method, url, err)
	}

	log.Printf("HTTP resp: %d", httpResp.StatusCode)

	return httpResult{
		status:  httpResp.StatusCode,
		payload: respPayload,
	}, nil
}
