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


// Package ai provides the embedding abstraction used by answerdesk.
//
// The embedding model is opaque: only its output contract matters. An
// Embedder maps text to a fixed-dimension float32 vector, in single and batch
// modes, and reports that dimension. Any implementation satisfying the
// interface is substitutable.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles, including a static embedder that returns
//     hand-chosen vectors
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder INTERFACE
// to prevent accidental coupling to a concrete implementation. Test utility
// constructors (mock.NewMockEmbedder, mock.NewStaticEmbedder) return CONCRETE
// types so tests can inject behavior and assert on call counts.
//
// # Unit-length output
//
// When an embedder implements UnitNormalizer and reports true, cosine
// similarity equals the dot product. Callers may use that shortcut only after
// checking IsUnitLength; it is never assumed.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("embeddinggemma"))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := embedder.EmbedText(ctx, "VPN setup")
package ai
