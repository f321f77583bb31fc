package blob

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Attachment keys are namespaced by their owner so one owner cannot
// enumerate or fetch another's blobs:
//
//	att/u42/1717171717000000000/report.pdf       (account 42)
//	att/l<list-uuid>/1717171717000000000/pic.png (anonymous list)
//
// The filename is the final segment and may itself contain slashes stripped
// at upload time.

// UserNamespace returns the key namespace for an account.
func UserNamespace(userID int64) string {
	return "u" + strconv.FormatInt(userID, 10)
}

// ListNamespace returns the key namespace for an anonymous list.
func ListNamespace(listID string) string {
	return "l" + listID
}

// NewKey builds an attachment key under the given namespace.
func NewKey(namespace, filename string, now time.Time) string {
	return fmt.Sprintf("att/%s/%d/%s", namespace, now.UnixNano(), filename)
}

// InNamespace reports whether key belongs to the given namespace.
func InNamespace(key, namespace string) bool {
	return strings.HasPrefix(key, "att/"+namespace+"/")
}

// Filename recovers the original filename from a key, or "" if the key does
// not have the expected shape.
func Filename(key string) string {
	parts := strings.SplitN(key, "/", 4)
	if len(parts) != 4 || parts[0] != "att" {
		return ""
	}
	return parts[3]
}
