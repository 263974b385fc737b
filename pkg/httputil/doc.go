// Package httputil provides retry helpers for outgoing HTTP calls.
//
// The only outgoing calls cloudsketch makes go to the query planner, the
// upstream service that turns a free-text request into a graph document.
// Those calls are slow and occasionally flaky, so transient failures are
// retried with exponential backoff:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.StatusError(resp)
//	})
//
// Only errors wrapped with [Retryable] are retried. [StatusError] wraps 429
// and 5xx responses; other failures return immediately.
package httputil
