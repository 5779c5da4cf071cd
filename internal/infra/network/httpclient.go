package network

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"time"
)

// ClientOptions tunes the outbound HTTP client.
type ClientOptions struct {
	ConnectTimeout      time.Duration
	ResponseTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// RootCAs replaces the system roots when set.
	RootCAs *x509.CertPool

	// DisableHostnameVerification keeps certificate chain verification but
	// accepts a certificate issued for a different host name.
	DisableHostnameVerification bool
}

func NewHTTPClient(o ClientOptions) *http.Client {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.ResponseTimeout <= 0 {
		o.ResponseTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: o.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          o.MaxIdleConns,
		MaxIdleConnsPerHost:   o.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   o.ConnectTimeout,
		ResponseHeaderTimeout: o.ResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       tlsConfig(o),
	}
	return &http.Client{Transport: tr, Timeout: o.ConnectTimeout + o.ResponseTimeout}
}

func tlsConfig(o ClientOptions) *tls.Config {
	cfg := &tls.Config{RootCAs: o.RootCAs, MinVersion: tls.VersionTLS12}
	if o.DisableHostnameVerification {
		// The default verifier checks chain and name together; replace it
		// with a chain-only check.
		cfg.InsecureSkipVerify = true //nolint:gosec // chain still verified in VerifyConnection
		cfg.VerifyConnection = verifyChainOnly(o.RootCAs)
	}
	return cfg
}

func verifyChainOnly(roots *x509.CertPool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("tls: server presented no certificate")
		}
		opts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, c := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(c)
		}
		_, err := cs.PeerCertificates[0].Verify(opts)
		return err
	}
}
