package inspection

import (
	"fmt"
	"time"
)

// ObjectKey builds the storage key for an inspection photo:
// sites/{site}/{YYYYmmdd_HHMMSS}_{id8}{ext}, or uploads/... without a site.
func ObjectKey(siteID, id, ext string, at time.Time) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s_%s%s", at.UTC().Format("20060102_150405"), short, ext)
	if siteID == "" {
		return "uploads/" + name
	}
	return fmt.Sprintf("sites/%s/%s", siteID, name)
}
