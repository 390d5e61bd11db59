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


package knowledge

import "errors"

var (
	// ErrLoad is returned when the knowledge source cannot be read.
	ErrLoad = errors.New("knowledge source load failed")

	// ErrMissingColumn is returned when the question or answer column is absent.
	ErrMissingColumn = errors.New("knowledge source missing required column")

	// ErrEmpty is returned when the knowledge source yields no entries.
	ErrEmpty = errors.New("knowledge source has no entries")

	// ErrUnsupportedFormat is returned for file extensions other than .xlsx and .csv.
	ErrUnsupportedFormat = errors.New("unsupported knowledge source format")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
