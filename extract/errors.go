// Copyright 2025 Poiesic LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import "errors"

var (
	// ErrChatModelRequired is returned when an Extractor is constructed
	// without a chat model.
	ErrChatModelRequired = errors.New("chat model is required")

	// ErrRetrievalRequired is returned when a grounded extraction is
	// requested but no retriever or index was configured.
	ErrRetrievalRequired = errors.New("grounded extraction requires a retriever and an index")
)
