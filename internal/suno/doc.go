// Package suno talks to the Suno studio API: listing a library's
// clips, probing page boundaries, and downloading audio and cover
// assets.
//
// The package handles three concerns:
//
//  1. Fetching and strictly parsing feed pages (Client)
//  2. Discovering the library span and writing out a chronological
//     song stream (Enumerator)
//  3. Classifying every failure into a small error taxonomy that the
//     retry policy and orchestrator act on
//
// # Fetching Pages
//
// Use the Client to retrieve one listing page:
//
//	client := suno.NewClient(httpClient, "", logger)
//	songs, err := client.FetchPage(ctx, 1)
//	if errors.Is(err, suno.ErrAuth) {
//	    log.Fatal("token rejected")
//	}
//
// # Enumerating a Library
//
// The Enumerator turns the newest-first, paginated feed into a single
// oldest-first stream:
//
//	enum := suno.NewEnumerator(client, retry.DefaultPolicy(), logger)
//	last, err := enum.FindLastPage(ctx)
//	// ...
//	count, err := enum.StreamPages(ctx, last, songCh)
//
// # Error Taxonomy
//
// Every failure wraps one of ErrAuth, ErrRateLimited, ErrTransient or
// ErrUnexpected. Auth errors abort a run immediately (the token is
// equally dead for every later call); rate limits and transient
// faults are retried with backoff; unexpected responses fail fast so
// schema drift is noticed rather than papered over.
package suno
