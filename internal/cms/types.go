// Package cms defines the entity records managed through the console
// and the per-entity descriptors that drive the generic CRUD screens.
// The upstream API is the authoritative source for all of it; these
// types only shape requests and transient screen state.
package cms

// Role names embedded in upstream bearer tokens.
const (
	RoleAdmin  = "admin"
	RoleHR     = "hr"
	RoleUser   = "user"
	RoleNoAuth = "no_authentication"
)

// Post status lifecycle.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusPublished = "published"
)

// Translation is a per-language localized copy of an entity's text
// fields. Taxonomies leave Body empty.
type Translation struct {
	Language string `json:"language"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
}

// Post is a content entry.
type Post struct {
	ID              string        `json:"id"`
	Status          string        `json:"status"`
	FeaturedMediaID string        `json:"featured_media_id,omitempty"`
	CategoryIDs     []string      `json:"category_ids,omitempty"`
	TagIDs          []string      `json:"tag_ids,omitempty"`
	GalleryMediaIDs []string      `json:"gallery_media_ids,omitempty"`
	Translations    []Translation `json:"translations"`
}

// Category groups posts.
type Category struct {
	ID           string        `json:"id"`
	Translations []Translation `json:"translations"`
}

// Tag labels posts.
type Tag struct {
	ID           string        `json:"id"`
	Translations []Translation `json:"translations"`
}

// User is an operator account managed through the admin screens.
type User struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	AvatarMediaID string   `json:"avatar_media_id,omitempty"`
}

// Media is an uploaded file.
type Media struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	FilePath string `json:"file_path"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Setting is one site-wide key/value pair.
type Setting struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
