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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidSignals indicates an extracted payload failed schema validation.
	ErrInvalidSignals = errors.New("invalid company signals")

	// ErrEmptyCompany indicates the required company field is empty.
	ErrEmptyCompany = errors.New("company must be a non-empty string")

	// ErrEmptyTopic indicates a topics entry is an empty string.
	ErrEmptyTopic = errors.New("topics must not contain empty strings")

	// ErrUnknownZone indicates a zone name could not be parsed.
	ErrUnknownZone = errors.New("unknown redaction zone")
)
