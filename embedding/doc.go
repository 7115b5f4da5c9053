// Package embedding turns text into fixed-dimension vectors through an
// ai.Transport, absorbing per-text failures.
//
// Every text is cleaned and capped before it is sent. A Client then makes
// up to MaxAttempts tries per text:
//
//   - a 5xx answer halves the text and retries at once without using up a
//     try, until MaxHalvings is reached or the text would drop below
//     MinHalvingLength;
//   - any other failure uses up a try and waits a fixed backoff;
//   - when the tries run out the text degrades to an all-zero vector of the
//     configured dimension.
//
// EmbedBatch spreads texts over an ants worker pool and always returns one
// Result per input, in input order. Only cancellation of the context is
// returned as an error.
//
// Client also satisfies langchaingo's embeddings.Embedder, so it can be
// handed to langchaingo vector stores and chains directly.
package embedding
