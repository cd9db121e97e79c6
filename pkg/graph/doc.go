// Package graph is a small client for the Facebook Graph API.
//
// It covers the handful of calls the exporter needs: the /me edges, single
// object lookups, album photo listings, the permission check and FQL.
// Every URL built by a Client carries the access token, so callers never
// handle it directly.
//
//	client := graph.NewClient(cfg.Graph.BaseURL, token, cfg.Graph.Timeout, log)
//
//	var page graph.Page
//	if err := client.GetJSON(ctx, client.EdgeURL("feed", nil), &page); err != nil {
//	    var gErr *errors.Error
//	    if stderrors.As(err, &gErr) && gErr.Type == errors.ErrorTypeAuth {
//	        // token rejected
//	    }
//	}
//
// Fetch returns the status and body without judging them, for calls such as
// the permission check where an error body still has to be read.
package graph
