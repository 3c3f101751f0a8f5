// Package couchkit provides a Go client for CouchDB-compatible document
// databases over HTTP.
//
// It covers document CRUD with optimistic-concurrency revisions, bulk
// operations, attachments, design documents and views, replication, and both
// the one-shot and the continuous change notification feed.
//
// # Quick Start
//
//	client, err := couchkit.New(
//	    couchkit.WithHost("127.0.0.1"),
//	    couchkit.WithDatabase("inventory"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	type Item struct {
//	    couchkit.Document
//	    Name  string `json:"name"`
//	    Count int    `json:"count"`
//	}
//
//	res, err := client.Save(ctx, &Item{Name: "bolt", Count: 40})
//	// res.ID and res.Rev identify the stored revision.
//
// # Revisions
//
// Every successful write returns a new revision token. Updates and deletes
// must present the revision the writer observed; a stale one fails with a
// conflict the application resolves by re-fetching and retrying:
//
//	var item Item
//	err = client.Find(ctx, res.ID, &item)
//	item.Count = 39
//	_, err = client.Update(ctx, &item)
//	if couchkit.IsConflict(err) {
//	    // someone else wrote first: re-fetch, reapply, retry
//	}
//
// Saving a document without an id assigns a client-generated UUID, avoiding
// a server round trip for id allocation.
//
// # Changes Feed
//
// The continuous feed streams one JSON record per line over a long-lived
// connection, consumed through a pull iterator:
//
//	feed := client.Changes(couchkit.WithHeartbeat(30 * time.Second))
//	if err := feed.Continuous(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer feed.Stop()
//	for feed.Next() {
//	    row := feed.Row()
//	    fmt.Println(row.Seq, row.ID)
//	}
//	if err := feed.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// Errors are typed and can be checked with errors.Is or the predicate
// helpers:
//
//	if couchkit.IsNotFound(err) {
//	    // document does not exist
//	}
//	if couchkit.IsConflict(err) {
//	    // revision is stale
//	}
//
// The client never retries a failed request and never caches a response; it
// is a thin, synchronous-per-call transport. The one long-lived exception is
// the continuous changes feed.
//
// # Thread Safety
//
// The Client is safe for concurrent use from multiple goroutines. A Changes
// session is single-consumer: pull rows from one goroutine, though Stop may
// be called from another.
package couchkit
