// Package fetch resolves image byte sizes over HTTP for dataset enrichment.
//
// The Resolver issues HEAD requests and reads only the Content-Length
// header; image bodies are never downloaded. Requests run concurrently with
// a bounded worker count and an optional shared rate limit, and results come
// back in input order regardless of completion order.
//
// Every reference yields exactly one sample. A transport failure maps to the
// failed-fetch sentinel rather than an error: enrichment is best-effort and
// a dead image host must not abort the analysis.
package fetch
