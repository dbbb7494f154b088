// Package metrics aggregates per-request observations of a load batch.
//
//	collector := metrics.NewCollector()
//	collector.RecordRequest(latency, err, &metrics.RequestMetadata{
//		Endpoint:   "account-by-id",
//		StatusCode: 200,
//	})
//	stats := collector.Stats(elapsed)
//
// [Stats] carries success and failure counts, the request rate over the
// supplied elapsed time, min/mean/max latency, a status code breakdown and
// the first few failures verbatim. Latencies go through an HDR histogram.
//
// RecordRequest is safe to call from multiple goroutines.
package metrics
