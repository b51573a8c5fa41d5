package domain

import (
	"time"
)

// FileRecord stores metadata about a shared file. The bytes live in the object store
// under FilePath; ID is the public handle embedded in share links.
type FileRecord struct {
	ID        string    `bson:"_id" json:"id"`
	FilePath  string    `bson:"filePath" json:"-"` // Object store key, internal use only
	FileName  string    `bson:"fileName" json:"name"`
	FileSize  int64     `bson:"fileSize" json:"size"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Download is what a live handle resolves to. It never carries the storage path.
type Download struct {
	URL       string    `json:"url"`
	FileName  string    `json:"name"`
	FileSize  int64     `json:"size"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DeleteResult reports the outcome of an idempotent delete.
type DeleteResult int

const (
	Deleted DeleteResult = iota + 1
	AlreadyAbsent
)

func (r DeleteResult) String() string {
	switch r {
	case Deleted:
		return "deleted"
	case AlreadyAbsent:
		return "already_absent"
	default:
		return "unknown"
	}
}
