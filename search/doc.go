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


// Package search ranks corpus vectors against a query vector.
//
// Similarity is cosine similarity computed in float64. A vector with zero
// norm scores 0 against everything. Results are filtered by an inclusive
// threshold, sorted best first with ties kept in corpus order, and
// truncated to the requested top-K.
//
// When every vector is known to have unit length, WithUnitVectors switches
// scoring to a plain dot product.
package search
