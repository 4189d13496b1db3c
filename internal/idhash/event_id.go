// Package idhash derives deterministic identifiers for archived records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"event-radar/internal/textnorm"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(source_id|normalize(title)|normalize(venue)|normalize(city)|day)
// where day is the UTC calendar day or empty when the date is unknown.
// Returns hex-encoded hash (64 characters).
//
// The ID is stable across re-ingestion of the same record and is used only
// as an archive key; duplicate matching never consults it.
func ComputeEventID(sourceID, title, venueName, city string, start *time.Time) string {
	day := ""
	if start != nil {
		day = start.UTC().Format("2006-01-02")
	}

	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		sourceID,
		textnorm.Normalize(title),
		textnorm.Normalize(venueName),
		textnorm.Normalize(city),
		day,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
