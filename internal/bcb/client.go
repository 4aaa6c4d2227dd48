// Package bcb fetches market expectations and historical rate series from the
// Banco Central do Brasil open-data APIs (Olinda and SGS).
package bcb

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultOlindaURL = "https://olinda.bcb.gov.br"
	DefaultSGSURL    = "https://api.bcb.gov.br"
)

// SGS series codes of the dashboard indicators.
const (
	SelicCode = 432   // accumulated Selic rate, % p.a.
	IPCACode  = 13522 // IPCA accumulated over 12 months, % p.a.
	CDICode   = 4389  // accumulated CDI rate, % p.a.
)

// Client queries the BCB APIs.
type Client struct {
	olinda *resty.Client
	sgs    *resty.Client
	log    zerolog.Logger
}

// NewClient creates a BCB client. Empty URLs fall back to the public hosts.
func NewClient(olindaURL, sgsURL, proxyURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if olindaURL == "" {
		olindaURL = DefaultOlindaURL
	}
	if sgsURL == "" {
		sgsURL = DefaultSGSURL
	}
	return &Client{
		olinda: newRestClient(olindaURL, proxyURL, timeout),
		sgs:    newRestClient(sgsURL, proxyURL, timeout),
		log:    log.With().Str("client", "bcb").Logger(),
	}
}

func newRestClient(baseURL, proxyURL string, timeout time.Duration) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}
