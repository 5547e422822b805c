// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package httpclient builds the HTTP client used to reach the task queue.
package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/errors"
)

var (
	ErrFailedToLoadClientCertKey = errors.New("failed to load client certificate and key")
	ErrFailedToLoadRootCA        = errors.New("failed to load root ca file")
	errAppendRootCA              = errors.New("failed to append root ca to tls.Config")
)

// Security is the transport security a client was configured with.
type Security int

const (
	WithoutTLS Security = iota
	WithTLS
	WithMTLS
)

func (s Security) String() string {
	switch s {
	case WithTLS:
		return "with TLS"
	case WithMTLS:
		return "with mTLS"
	default:
		return "without TLS"
	}
}

type Config struct {
	Timeout      time.Duration `env:"TIMEOUT"         envDefault:"30m"`
	ClientCert   string        `env:"CLIENT_CERT"     envDefault:""`
	ClientKey    string        `env:"CLIENT_KEY"      envDefault:""`
	ServerCAFile string        `env:"SERVER_CA_CERTS" envDefault:""`
}

type Client interface {
	HTTPClient() *http.Client
	Secure() string
	Timeout() time.Duration
}

type client struct {
	httpClient *http.Client
	cfg        Config
	security   Security
}

var _ Client = (*client)(nil)

func NewClient(cfg Config) (Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	tlsConfig, security, err := loadTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	transport.TLSClientConfig = tlsConfig

	return &client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cfg:        cfg,
		security:   security,
	}, nil
}

func (c *client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *client) Secure() string {
	return c.security.String()
}

func (c *client) Timeout() time.Duration {
	return c.cfg.Timeout
}

func loadTLSConfig(cfg Config) (*tls.Config, Security, error) {
	if cfg.ServerCAFile == "" && cfg.ClientCert == "" && cfg.ClientKey == "" {
		return nil, WithoutTLS, nil
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	security := WithoutTLS

	if cfg.ServerCAFile != "" {
		rootCA, err := os.ReadFile(cfg.ServerCAFile)
		if err != nil {
			return nil, WithoutTLS, errors.Wrap(ErrFailedToLoadRootCA, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(rootCA) {
			return nil, WithoutTLS, errors.Wrap(ErrFailedToLoadRootCA, errAppendRootCA)
		}
		tlsConfig.RootCAs = pool
		security = WithTLS
	}

	if cfg.ClientCert != "" || cfg.ClientKey != "" {
		certificate, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, WithoutTLS, errors.Wrap(ErrFailedToLoadClientCertKey, err)
		}
		tlsConfig.Certificates = []tls.Certificate{certificate}
		security = WithMTLS
	}

	return tlsConfig, security, nil
}
