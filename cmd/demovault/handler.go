package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vfraga/wso2-custom-secret-vault/internal/api/rest"
	"github.com/vfraga/wso2-custom-secret-vault/internal/config"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/health"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/http/middleware"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/log"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/metrics"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/netutil"
	"github.com/vfraga/wso2-custom-secret-vault/internal/infra/version"
	"github.com/vfraga/wso2-custom-secret-vault/internal/vault"
)

func newHandler(cfg config.Config, logger log.Logger, registry *prometheus.Registry, store vault.Store, probe *health.Probe) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(rest.SecretsPath, rest.New(store, logger).Handler())
	mux.HandleFunc("/healthz", probe.Healthz)
	mux.HandleFunc("/readyz", probe.Readyz)
	mux.HandleFunc("/version", version.Handler)

	// admin endpoints (metrics, pprof) behind IP allowlist gate
	adminCIDRs := netutil.MustParseCIDRs(cfg.Server.AdminAllowCIDRs)
	mux.Handle("/metrics", middleware.AdminGate(adminCIDRs, metrics.Handler(registry)))
	if cfg.Server.Pprof {
		mux.Handle("/debug/pprof/", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Index)))
		mux.Handle("/debug/pprof/cmdline", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Cmdline)))
		mux.Handle("/debug/pprof/profile", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Profile)))
		mux.Handle("/debug/pprof/symbol", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Symbol)))
		mux.Handle("/debug/pprof/trace", middleware.AdminGate(adminCIDRs, http.HandlerFunc(pprof.Trace)))
	}

	return middleware.RequestID(middleware.Logger(logger)(mux))
}
