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


// Package openai provides an ai.Transport for OpenAI-compatible embedding APIs.
//
// Requests go through the langchaingo OpenAI client, so any service that
// speaks the /v1/embeddings protocol works: OpenAI itself, vLLM, LocalAI,
// or Ollama's compatibility endpoint.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI))
//	// OPENAI_API_KEY is read from the environment by the preset
//
//	transport, err := openai.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := transport.Embed(ctx, "iPhone 17 Pro Max多少钱")
package openai
