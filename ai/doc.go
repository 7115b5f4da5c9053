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


// Package ai provides abstractions for the remote embedding services used
// by kbingest.
//
// The package defines the Transport interface, a single-attempt embedding
// call, together with its configuration and error vocabulary. Higher
// layers (see package embedding) add truncation, retry, input halving and
// zero-vector degradation on top of any Transport.
//
// # Implementation Packages
//
//   - ai/ollama: the native Ollama /api/embeddings endpoint
//   - ai/openai: OpenAI-compatible APIs via langchaingo
//   - ai/mock: a deterministic, scriptable transport for tests
//
// Production constructors return concrete types; every transport also
// satisfies ai.Transport and, where the service supports it, ai.Pinger.
//
// # Errors
//
// Transports report HTTP failures as *StatusError so callers can tell a
// 5xx (often an input the model could not handle) from other failures,
// and wrap connection failures in ErrUnreachable.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("nomic-embed-text:latest"))
//	transport, err := ollama.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := transport.Embed(ctx, "什么时候发货")
package ai
