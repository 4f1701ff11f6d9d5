// Package http implements the HTTP handlers of the optionrank web service.
// Handlers stay thin: they decode and validate the request, call a service
// and render the response.
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/v1/chains                      stored snapshots
//	POST /api/v1/chains/score                rank an inline snapshot
//	PUT  /api/v1/chains/{symbol}             store a snapshot
//	GET  /api/v1/chains/{symbol}/score       rank a stored snapshot
//	GET  /api/v1/chains/{symbol}/export      download the ranking as CSV or XLSX
//	GET  /metrics                            Prometheus exposition
//
// The direction query parameter selects one strategy direction; empty or
// "all" ranks the chain in every direction.
//
// # Units
//
// Volatilities, returns, probabilities and spreads are percentages in every
// request and response (30.0 means 30%). The engine works in fractions; the
// conversion happens here, in dto.go.
//
// # Error Handling
//
// Failures are RFC 7807 problem documents written by
// internal/errors.ErrorHandler:
//
//	{
//	    "type": "/errors/chain/not-found",
//	    "title": "Option Chain Not Found",
//	    "status": 404,
//	    "detail": "option chain for XYZ not found",
//	    "instance": "/api/v1/chains/XYZ/score",
//	    "trace_id": "..."
//	}
package http
