// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the vector store abstraction for kbingest.
//
// A VectorStore holds named collections of rows, each row carrying chunk
// text, its metadata and its embedding. Backends live in subpackages:
//
//   - badger: embedded BadgerDB store, also used in-memory by tests
//   - pgvector: PostgreSQL with the pgvector extension
//
// # Full Replace
//
// Ingestion never edits a live collection. New rows go into a staging
// collection which is then promoted over the target in one step:
//
//	staging, err := store.CreateCollection(ctx, "kb.staging")
//	if err != nil {
//	    return err
//	}
//	if err := staging.Insert(ctx, rows); err != nil {
//	    store.DeleteCollection(ctx, "kb.staging")
//	    return err
//	}
//	return store.Promote(ctx, "kb.staging", "kb")
//
// If anything fails before Promote, the target keeps its previous rows.
//
// # Serialization
//
// Rows are encoded with mus-go primitives by MarshalRow and UnmarshalRow
// for backends that store opaque values.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
