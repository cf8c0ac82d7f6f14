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

import (
	"fmt"
	"strings"
)

// SignalsErrors collects the field-level problems of a CompanySignals
// payload. An empty slice means the payload satisfies the schema.
//
// Validation rules:
//   - Company must be non-empty after whitespace trimming (required field)
//   - Topics entries must be non-empty strings
//   - Citations entries must be non-empty strings
func SignalsErrors(sig *CompanySignals) []string {
	if sig == nil {
		return []string{"signals: payload is nil"}
	}

	var fields []string
	if strings.TrimSpace(sig.Company) == "" {
		fields = append(fields, "company: "+ErrEmptyCompany.Error())
	}
	for i, topic := range sig.Topics {
		if strings.TrimSpace(topic) == "" {
			fields = append(fields, fmt.Sprintf("topics[%d]: %s", i, ErrEmptyTopic.Error()))
		}
	}
	for i, cite := range sig.Citations {
		if strings.TrimSpace(cite) == "" {
			fields = append(fields, fmt.Sprintf("citations[%d]: citation token is empty", i))
		}
	}
	return fields
}

// ValidateSignals validates a CompanySignals payload according to the
// extraction schema. The returned error wraps ErrInvalidSignals and lists
// every failing field.
func ValidateSignals(sig *CompanySignals) error {
	fields := SignalsErrors(sig)
	if len(fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSignals, strings.Join(fields, "; "))
}

// ParseZone maps a zone name to its Zone value. Names are matched
// case-insensitively.
func ParseZone(name string) (Zone, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "green":
		return ZoneGreen, nil
	case "amber":
		return ZoneAmber, nil
	case "red":
		return ZoneRed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownZone, name)
}
