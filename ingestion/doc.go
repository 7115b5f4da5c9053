// Package ingestion runs the knowledge-base ingestion pipeline.
//
// A Pipeline run goes through four stages:
//   - load: read every qualifying file under the source directory
//   - split: cut documents into bounded chunks
//   - embed: compute one vector per chunk; single-chunk failures degrade to
//     zero vectors instead of failing the run
//   - persist: write rows into a staging collection and promote it over the
//     target, so the previous contents survive any failure
//
// Fatal failures come back as *StageError wrapping ErrTransportFatal or
// ErrPersistenceFatal. The transport is fatal only when its host cannot be
// reached at all. An empty source returns ErrNothingToIngest, which callers
// should treat as a clean stop.
//
// After a successful run the pipeline can issue a few smoke queries against
// the new collection. Their failures are logged and never change the result.
package ingestion
