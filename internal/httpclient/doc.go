// Package httpclient builds the HTTP requests ledgerprobe sends and the client
// that sends them.
//
// A [RequestBuilder] is created once per endpoint and then asked for a fresh
// request on every iteration:
//
//	builder, err := httpclient.NewRequestBuilder(http.MethodPost, base+"/account-by-id", body,
//		httpclient.WithTracePropagation(true))
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx)
//
// [NewClient] returns an [http.Client] with a per-request timeout and a pooled
// transport so repeated calls against one host reuse connections.
package httpclient
