// Package server exposes the result cache over HTTP.
//
// POST /analyze accepts a multipart form with a document in "file" and a job
// description in "jd", and returns the match analysis as JSON. Repeated
// submissions of the same document and job description are answered from the
// cache. Other routes:
//
//	DELETE /cache/{key}   drop one cached entry
//	GET    /healthz       liveness
//	GET    /readyz        readiness
//	GET    /health        detailed health
//	GET    /metrics       Prometheus scrape, when configured
package server
