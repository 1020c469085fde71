package cms

// Upstream endpoints outside the per-entity CRUD surface. These are
// external-collaborator contracts; the console only knows their paths
// and top-level response keys.
const (
	LoginPath            = "/api/auth/login"
	SignUpPath           = "/api/auth/sign-up"
	ChangePasswordPath   = "/api/auth/change-password"
	ResetPasswordPath    = "/api/auth/reset-password"
	VerifyResetTokenPath = "/api/auth/verify-reset-token"
	RolesPath            = "/api/roles"
	PublicPostsPath      = "/api/frontend/posts"
	RandomMediaPath      = "/api/frontend/random-media"
)

// Descriptor tells the generic controllers and the route table
// everything entity-specific: where the collection lives, which
// top-level key wraps responses, which roles may manage it, and how its
// form is shaped. One descriptor replaces what used to be a full set of
// hand-written list/add/edit screens per entity.
type Descriptor struct {
	// Name is the singular entity name used in routes and messages.
	Name string
	// Plural is the collection name used in list routes.
	Plural string
	// CollectionPath is the upstream collection endpoint.
	CollectionPath string
	// CollectionKey and ItemKey are the top-level response body keys.
	CollectionKey string
	ItemKey       string
	// RequiredRoles gates every screen of this entity. Empty means any
	// authenticated operator.
	RequiredRoles []string
	// Translatable entities carry one translation per configured language.
	Translatable bool
	// PrimaryField is the text field required on every translation (or on
	// the record itself for non-translatable entities).
	PrimaryField string
	// Fields are the scalar form fields beyond translations.
	Fields []string
	// Associations are multi-select id-set fields, toggled locally and
	// persisted only on submit.
	Associations []string
	// RelatedIDField names a media reference resolved to a display URL on
	// the edit screen via a second, best-effort fetch.
	RelatedIDField string
	// HasPassword marks entities whose add screen collects a password
	// pair (users).
	HasPassword bool
	// HasUpload marks entities created from a multipart file upload (media).
	HasUpload bool
	// ListOnly entities have no add/edit/delete screens (settings are
	// edited upstream).
	ListOnly bool
}

// ItemPath returns the upstream endpoint for a single record.
func (d Descriptor) ItemPath(id string) string {
	return d.CollectionPath + "/" + id
}

// Registry returns the descriptors for every managed entity, in the
// order the admin navigation lists them.
func Registry() []Descriptor {
	return []Descriptor{
		{
			Name:           "post",
			Plural:         "posts",
			CollectionPath: "/api/posts",
			CollectionKey:  "posts",
			ItemKey:        "post",
			RequiredRoles:  []string{RoleAdmin, RoleUser},
			Translatable:   true,
			PrimaryField:   "title",
			Fields:         []string{"status"},
			Associations:   []string{"category_ids", "tag_ids", "gallery_media_ids"},
			RelatedIDField: "featured_media_id",
		},
		{
			Name:           "category",
			Plural:         "categories",
			CollectionPath: "/api/categories",
			CollectionKey:  "categories",
			ItemKey:        "category",
			RequiredRoles:  []string{RoleAdmin},
			Translatable:   true,
			PrimaryField:   "title",
		},
		{
			Name:           "tag",
			Plural:         "tags",
			CollectionPath: "/api/tags",
			CollectionKey:  "tags",
			ItemKey:        "tag",
			RequiredRoles:  []string{RoleAdmin},
			Translatable:   true,
			PrimaryField:   "title",
		},
		{
			Name:           "media",
			Plural:         "media",
			CollectionPath: "/api/media",
			CollectionKey:  "media",
			ItemKey:        "media",
			RequiredRoles:  []string{RoleAdmin, RoleUser},
			PrimaryField:   "title",
			Fields:         []string{"title"},
			HasUpload:      true,
		},
		{
			Name:           "user",
			Plural:         "user",
			CollectionPath: "/api/users",
			CollectionKey:  "users",
			ItemKey:        "user",
			RequiredRoles:  []string{RoleAdmin, RoleHR},
			PrimaryField:   "email",
			Fields:         []string{"email"},
			Associations:   []string{"roles"},
			RelatedIDField: "avatar_media_id",
			HasPassword:    true,
		},
		{
			Name:           "setting",
			Plural:         "settings",
			CollectionPath: "/api/settings",
			CollectionKey:  "settings",
			ItemKey:        "setting",
			RequiredRoles:  []string{RoleAdmin},
			ListOnly:       true,
		},
	}
}

// Lookup finds a descriptor by singular name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Registry() {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
