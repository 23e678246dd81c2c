package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TTLs per key family.
const (
	SearchTTL   = 30 * time.Minute
	ContactsTTL = 24 * time.Hour
	ContentTTL  = time.Hour
	BatchTTL    = 30 * time.Minute
)

const batchHashLen = 32

// SearchKey identifies a cached search results page.
func SearchKey(query string, page int) string {
	return "search:" + query + ":" + strconv.Itoa(page)
}

// ContactsKey identifies cached extracted contacts for a URL.
func ContactsKey(url string) string {
	return "contacts:" + url
}

// ContentKey identifies cached raw HTML for a URL.
func ContentKey(url string) string {
	return "content:" + url
}

// BatchKey identifies a custom scrape batch. URL order does not matter.
func BatchKey(urls []string, businessType, location string) string {
	sorted := append([]string(nil), urls...)
	sort.Strings(sorted)
	raw := strings.Join(sorted, ",") + "|" + businessType + "|" + location
	sum := sha256.Sum256([]byte(raw))
	return "custom-batch:" + hex.EncodeToString(sum[:])[:batchHashLen]
}
