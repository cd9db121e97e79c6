// Package exporter pulls a user's history out of the Graph API and turns it
// into normalised posts.
//
// GetData validates the token, then walks each configured /me endpoint
// backwards through the crawl window. Feed items are classified into a
// Kind, sometimes with a follow-up object lookup; the other endpoints map
// to one fixed Kind each. The matching parser builds a models.Post,
// downloading photos and following tag lists as needed, and every page is
// merged into a first-writer-wins Store as soon as it is parsed.
//
// Execution is single threaded: one request in flight, endpoints in order.
package exporter
