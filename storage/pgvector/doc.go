// Package pgvector implements storage.VectorStore on PostgreSQL with the
// pgvector extension.
//
// All collections share one kb_rows table keyed by (collection, id), and a
// kb_collections registry owns the names. Collection names are therefore
// always bound parameters, never SQL identifiers. Promote deletes the
// target's registry entry and renames the staging entry in one
// transaction; foreign key cascades carry the rows along.
//
// The schema is created on Open when missing.
//
//	store, err := pgvector.Open(ctx, "postgres://kb:kb@localhost:5432/kb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
package pgvector
