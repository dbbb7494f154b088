// Package runner issues a fixed-size batch of requests and times it.
//
// With the default single worker, each request waits for the previous
// response, so the result measures serialized round-trip throughput:
//
//	r := runner.New(runner.Options{
//		TotalRequests: 1000,
//		Requester:     req,
//	})
//	res := r.Run(ctx)
//	fmt.Printf("%d requests in %s (%.1f req/s)\n", res.Total, res.Duration, res.RequestsPerSec())
//
// Concurrency > 1 runs a worker pool fed by a single pacing scheduler. The
// pool is joined before the elapsed time is taken, and one failing request
// never stops its siblings.
//
// Requesters compose through middleware such as [WithLogging].
package runner
