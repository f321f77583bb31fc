package model

// Attachment describes a stored file as returned to the uploader. The key is
// the blob store key; clients pass it back verbatim to download.
type Attachment struct {
	Key      string `json:"key"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}
