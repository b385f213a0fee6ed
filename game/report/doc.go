// Package report archives the end-of-run statistics of simulation sessions.
//
// A Report is written once, when its session is deleted or expires. Two
// Store backends are provided:
//   - FileStore keeps one JSON document per report in a directory
//   - MongoStore keeps them in a MongoDB collection
//
// Usage:
//
//	store, err := report.NewFileStore("reports")
//	if err != nil {
//		log.Fatal(err)
//	}
//	r := report.New(sessionID, "classic", startedAt, ticks, active, collector.Report())
//	err = store.Save(ctx, r)
package report
