package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DispatchSuccess = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ejr_dispatch_success_total", Help: "Successful peer API calls"},
		[]string{"method"},
	)
	DispatchFail = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ejr_dispatch_fail_total", Help: "Failed peer API call attempts"},
		[]string{"method", "reason"},
	)
	PeerRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ejr_peer_probe_rejected_total", Help: "Peers rejected by the reachability probe"},
	)
	ChainHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "ejr_chain_height", Help: "Last observed chain height"},
	)
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ejr_rpc_requests_total", Help: "JSON-RPC requests by method"},
		[]string{"method"},
	)
	WSConnected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ejr_ws_connected_total", Help: "Total height stream connections"},
	)
	WSError = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ejr_ws_errors_total", Help: "Height stream errors"},
	)
)

func Init() {
	prometheus.MustRegister(DispatchSuccess, DispatchFail, PeerRejected, ChainHeight)
	prometheus.MustRegister(RPCRequests, WSConnected, WSError)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
