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


// Package storage defines the embedding cache used to avoid re-embedding
// an unchanged knowledge source on every start.
//
// # Keys
//
// Entries are addressed by core.Key, a BLAKE2b digest of the embedding
// model name and the normalized question text:
//
//	key := core.KeyFromContent(model, normalizedQuestion)
//
// # Values
//
// Vectors are encoded with mus-go as a varint length followed by fixed-width
// float32 values. See MarshalVector and UnmarshalVector.
//
// # Implementations
//
// The badger subpackage provides a BadgerDB implementation that can run on
// disk or fully in memory for tests.
package storage
