// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"strings"
	"time"
)

// ISODate is the canonical persisted date layout. All dates are normalized
// to it at write time so ordering never needs locale-aware parsing at read
// time.
const ISODate = "2006-01-02"

// legacy layouts that older captures and server payloads still use.
var legacyDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan. 2, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/2006",
	"01/02/2006",
}

// Today returns the current date in the canonical layout.
func Today() string {
	return time.Now().UTC().Format(ISODate)
}

// NormalizeDate converts a date string in any accepted layout to ISO 8601
// (YYYY-MM-DD). The empty string passes through unchanged.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(ISODate, s); err == nil {
		return t.Format(ISODate), nil
	}
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}
