package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
	SetHeader(key, value string)
}

type OtodlHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewOtodlHTTPClient(cfg HTTPClientConfig) *OtodlHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
		MaxConnsPerHost:     0,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &OtodlHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

func (d *OtodlHTTPClient) SetHeader(key, value string) {
	d.config.Headers[key] = value
}

func (d *OtodlHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}
	return d.client.Do(req)
}
