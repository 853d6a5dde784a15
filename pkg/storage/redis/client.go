/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package redis wraps the go-redis universal client with the connection
// defaults used by the status list service.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 15 * time.Second
)

type clientOpts struct {
	masterName    string
	password      string
	tlsConfig     *tls.Config
	timeout       time.Duration
	traceProvider trace.TracerProvider
}

// ClientOpt configures the client.
type ClientOpt func(opts *clientOpts)

// WithMasterName sets the sentinel master name.
func WithMasterName(masterName string) ClientOpt {
	return func(opts *clientOpts) {
		opts.masterName = masterName
	}
}

// WithPassword sets the password.
func WithPassword(password string) ClientOpt {
	return func(opts *clientOpts) {
		opts.password = password
	}
}

// WithTLSConfig sets the TLS config.
func WithTLSConfig(tlsConfig *tls.Config) ClientOpt {
	return func(opts *clientOpts) {
		opts.tlsConfig = tlsConfig
	}
}

// WithTimeout sets the dial/read/write timeout.
func WithTimeout(timeout time.Duration) ClientOpt {
	return func(opts *clientOpts) {
		opts.timeout = timeout
	}
}

// WithTraceProvider instruments client commands with the given provider.
func WithTraceProvider(traceProvider trace.TracerProvider) ClientOpt {
	return func(opts *clientOpts) {
		opts.traceProvider = traceProvider
	}
}

// Client is a configured universal Redis client.
type Client struct {
	client  redis.UniversalClient
	timeout time.Duration
}

// New returns a new Redis client. The type of the underlying client depends
// on the following conditions:
//
// 1. If the MasterName option is specified, a sentinel-backed FailoverClient is returned.
// 2. If the number of Addrs is two or more, a ClusterClient is returned.
// 3. Otherwise, a single-node Client is returned.
func New(addrs []string, opts ...ClientOpt) (*Client, error) {
	opt := &clientOpts{
		timeout: defaultTimeout,
	}

	for _, fn := range opts {
		fn(opt)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		MasterName:   opt.masterName,
		Password:     opt.password,
		TLSConfig:    opt.tlsConfig,
		DialTimeout:  opt.timeout,
		ReadTimeout:  opt.timeout,
		WriteTimeout: opt.timeout,
	})

	if opt.traceProvider != nil {
		if err := redisotel.InstrumentTracing(client,
			redisotel.WithTracerProvider(opt.traceProvider)); err != nil {
			return nil, fmt.Errorf("instrument with tracing: %w", err)
		}
	}

	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), opt.timeout)
	defer cancel()

	if err := client.Ping(ctxWithTimeout).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		client:  client,
		timeout: opt.timeout,
	}, nil
}

// API returns the underlying client.
func (c *Client) API() redis.UniversalClient {
	return c.client
}

// ContextWithTimeout returns a context bounded by the client timeout.
func (c *Client) ContextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// Close closes the client.
func (c *Client) Close() error {
	return c.client.Close()
}
