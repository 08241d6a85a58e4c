// Package elastic implements engine.Client over the official Elasticsearch client.
package elastic

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v9"

	"github.com/kailas-cloud/indexgate/internal/engine"
)

// TypeField holds the document type inside every stored document. The engine
// is typeless, so types are emulated with a filter on this field.
const TypeField = "doc_type"

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addresses       []string
	Username        string
	Password        string
	APIKey          string
	InsecureSkipTLS bool
	// Refresh is passed to document writes ("", "true", "false" or "wait_for").
	Refresh string
}

// Client implements engine.Client.
type Client struct {
	es      *elasticsearch.Client
	refresh string
}

var _ engine.Client = (*Client)(nil)

// New creates a client. It does not contact the cluster; use Ping for that.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch: no addresses configured")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: buildTransport(cfg.InsecureSkipTLS),
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	return &Client{es: es, refresh: cfg.Refresh}, nil
}

func buildTransport(insecure bool) http.RoundTripper {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local clusters only
	}
	return t
}

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return engine.NewTransportError(engine.OpPing, "", err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpPing, "", res)
	}
	return nil
}
