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


package questionlog

import "errors"

var (
	// ErrLocked indicates the durable log is held exclusively by another
	// process, typically a spreadsheet application.
	ErrLocked = errors.New("question log is locked")

	// ErrMerge wraps failures of MergePending. The overflow file is left
	// untouched when it is returned.
	ErrMerge = errors.New("merging pending questions failed")

	// ErrSpill indicates a question could not be written to the overflow
	// file after the durable log stayed unavailable.
	ErrSpill = errors.New("writing overflow file failed")

	// ErrStoreRequired is returned when a store is not provided.
	ErrStoreRequired = errors.New("store required")

	// ErrOverflowPathRequired is returned when no overflow path is set and
	// none can be derived from the store.
	ErrOverflowPathRequired = errors.New("overflow path required")

	// ErrInvalidRetryPolicy is returned for non-positive retry budgets or
	// negative delays.
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")
)
