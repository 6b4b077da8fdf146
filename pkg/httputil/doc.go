// Package httputil provides the HTTP plumbing shared by backend clients.
//
// # Retry
//
// [Policy.Do] re-runs an operation with exponential backoff. Only errors
// wrapped in [RetryableError] are retried, so callers decide which
// failures are transient (network errors and 5xx responses for the
// departments client):
//
//	err := httputil.DefaultPolicy.Do(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//	err = httputil.Cause(err)
//
// # Instrumented Client
//
// [NewHTTPClient] returns an *http.Client whose transport reports every
// request to the registered [observability.HTTPHooks].
//
// Defaults: 3 attempts, 1 second initial delay, 10 second request timeout.
package httputil
