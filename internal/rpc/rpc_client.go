package rpc

import (
	"context"
	"fmt"
	"net/http"

	"jilai-deployer/internal/logger"
)

// httpClient HTTP客户端实现
type httpClient struct {
	config    *HTTPConfig
	client    *http.Client
	transport *http.Transport
}

/**
 * Create new HTTP client for the deployer status API
 * @param {*HTTPConfig} config - HTTP client configuration, nil for DefaultHTTPConfig
 * @returns {HTTPClient} HTTP client interface
 * @example
 * client := NewHTTPClient(nil)
 * defer client.Close()
 * resp, err := client.Get("/deployer/api/v1/runs", nil)
 */
func NewHTTPClient(config *HTTPConfig) HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	transport := &http.Transport{}
	return &httpClient{
		config:    config,
		transport: transport,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

/**
 * Send GET request
 * @param {string} path - API endpoint path
 * @param {map[string]interface{}} params - Query parameters
 * @returns {*HTTPResponse} Response; non-2xx status is reported in Error, not as err
 * @returns {error} Error if the request cannot be sent
 */
func (c *httpClient) Get(path string, params map[string]interface{}) (*HTTPResponse, error) {
	url, err := buildURL(c.config.BaseURL, path, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	return c.do(http.MethodGet, url, nil)
}

// Post 发送POST请求, data 序列化为 JSON
func (c *httpClient) Post(path string, data interface{}) (*HTTPResponse, error) {
	url, err := buildURL(c.config.BaseURL, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}
	return c.do(http.MethodPost, url, data)
}

func (c *httpClient) do(method, url string, data interface{}) (*HTTPResponse, error) {
	body, err := serializeData(data)
	if err != nil {
		return nil, err
	}

	logger.Debugf("Sending %s request to %s", method, url)

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return deserializeResponse(resp)
}

// Close 关闭空闲连接
func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	c.transport.CloseIdleConnections()
	return nil
}
