// Package retry runs an operation again after a failure, waiting a fixed
// delay between attempts.
//
// Page fetches use it with MaxAttempts set to one plus the configured retry
// count:
//
//	page, err := retry.DoWithResult(func() (*graph.Page, error) {
//		return client.Page(ctx, req)
//	}, &retry.Config{
//		MaxAttempts: cfg.Retry.MaxRetries + 1,
//		Backoff:     &retry.ConstantBackoff{Delay: cfg.Retry.RetryDelay},
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//		Logger:      log,
//	})
//
// Errors that carry a result code (anything with a ResultCode method) are
// retried only when that code is retryable, so an invalid token or an
// exhausted quota fails on the first attempt.
package retry
