// Package retry provides fixed-interval retry logic for transient
// network failures.
//
// Page fetches are paced by a minimum spacing between requests, and the
// retry pause deliberately matches that spacing: retrying faster than
// the site allows new requests would only burn the retry budget. There
// is no backoff curve and no jitter.
//
// Features:
//   - Fixed delay between attempts
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the failure taxonomy in pkg/errors
//
// Basic usage:
//
//	cfg := &retry.Config{
//	    MaxRetries: 3,
//	    Delay:      2 * time.Second,
//	    RetryIf:    retry.DefaultRetryIf,
//	    Context:    ctx,
//	    Logger:     logger.GetLogger(),
//	}
//	err := retry.Do(func() error {
//	    return client.FetchSomething(ctx)
//	}, cfg)
//
// Fatal conditions (an anti-automation block, context cancellation) are
// never retried; see errors.IsRetryable.
package retry
