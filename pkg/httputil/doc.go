// Package httputil provides a file-based cache and a retry helper.
//
// # Overview
//
//   - [Cache]: file-based caching of JSON-marshalable values
//   - [Retry]: retry with exponential backoff
//
// # Caching
//
// [Cache] stores each entry as a JSON file in a directory, with a TTL
// chosen by the caller (0 means entries never expire). The "pack"
// command uses it to cache decoded artwork bounds.
//
// Usage:
//
//	cache, err := httputil.NewCache(dir, 24*time.Hour)
//	var data T
//	ok, err := cache.Get("artwork:key", &data) // check cache
//	if !ok {
//	    data = compute()
//	    cache.Set("artwork:key", data) // store for later
//	}
//
// Use [Cache.Namespace] to keep keys of different sources apart.
//
// # Retry
//
// [Retry] calls fn until it succeeds, returns an error that is not a
// [RetryableError], or runs out of attempts. The delay doubles after
// each failed attempt; there is no jitter and no HTTP-specific handling:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    if err := write(); err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    return nil
//	})
//
// [RetryWithBackoff] is Retry with 3 attempts and a 1 second initial delay.
//
// # Defaults
//
//   - Cache directory when NewCache is given "": ~/.cache/printqueue/
//   - TTL: none; every caller passes its own
package httputil
