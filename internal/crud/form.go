package crud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/gateway"
	"pressdesk.org/internal/obs"
)

// ValidationError is a client-side pre-network failure: required fields
// missing or the password pair not matching. No request is issued.
type ValidationError struct {
	Missing  []string
	Mismatch bool
}

func (e *ValidationError) Error() string {
	if e.Mismatch {
		return "passwords do not match"
	}
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// Form is the generic add/edit controller. Translation slots are built
// in the configured language order and never reordered, so field edits
// apply by index. All mutation methods touch local state only;
// persistence happens exclusively in Submit.
type Form struct {
	desc      cms.Descriptor
	api       *gateway.Client
	notify    Notifier
	token     string
	languages []string

	id string // empty until Load; empty id means the add screen

	// Fields holds the scalar editable fields by name.
	Fields map[string]string
	// Translations is index-stable: slot i is languages[i].
	Translations []cms.Translation
	// Associations are multi-select id sets keyed by field name.
	Associations map[string]map[string]struct{}
	// Password pair for user-add screens. Never echoed back on re-render.
	Password        string
	PasswordConfirm string
	// RelatedURL is the resolved display URL for the referenced media,
	// filled best-effort during Load.
	RelatedURL string
}

// NewForm builds an empty form for the add screen or, after Load, the
// edit screen. languages fixes the translation slot order.
func NewForm(desc cms.Descriptor, api *gateway.Client, notify Notifier, token string, languages []string) *Form {
	if notify == nil {
		notify = NopNotifier{}
	}
	f := &Form{
		desc:         desc,
		api:          api,
		notify:       notify,
		token:        token,
		languages:    languages,
		Fields:       make(map[string]string),
		Associations: make(map[string]map[string]struct{}),
	}
	if desc.Translatable {
		f.Translations = make([]cms.Translation, 0, len(languages))
		for _, lang := range languages {
			f.Translations = append(f.Translations, cms.Translation{Language: lang})
		}
	}
	return f
}

// IsNew reports whether the form targets the add screen.
func (f *Form) IsNew() bool { return f.id == "" }

// ID returns the entity id once the form is bound to an existing record.
func (f *Form) ID() string { return f.id }

// Load fetches the entity and binds its editable fields. When the
// record references related media, a second sequential fetch resolves a
// display URL; that fetch is best-effort — its failure is logged and
// the rest of the form still renders.
func (f *Form) Load(ctx context.Context, id string) error {
	raw, err := f.api.Get(ctx, f.desc.ItemPath(id), gateway.WithBearer(f.token))
	if err != nil {
		return err
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("crud: decode %s: %w", f.desc.Name, err)
	}
	body, ok := envelope[f.desc.ItemKey]
	if !ok {
		return fmt.Errorf("crud: response missing %q", f.desc.ItemKey)
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return fmt.Errorf("crud: decode %s: %w", f.desc.Name, err)
	}
	f.id = id
	f.bind(rec)

	if f.desc.RelatedIDField != "" {
		if mediaID := rec.Str(f.desc.RelatedIDField); mediaID != "" {
			f.resolveRelated(ctx, mediaID)
		}
	}
	return nil
}

func (f *Form) bind(rec Record) {
	if f.desc.Translatable {
		entries, _ := rec["translations"].([]any)
		for _, entry := range entries {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			lang, _ := m["language"].(string)
			for i := range f.Translations {
				if f.Translations[i].Language != lang {
					continue
				}
				f.Translations[i].Title, _ = m["title"].(string)
				f.Translations[i].Body, _ = m["body"].(string)
			}
		}
	}
	for _, name := range f.desc.Fields {
		if v, ok := rec[name].(string); ok {
			f.Fields[name] = v
		}
	}
	for _, name := range f.desc.Associations {
		entries, ok := rec[name].([]any)
		if !ok {
			continue
		}
		set := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			if s, ok := entry.(string); ok {
				set[s] = struct{}{}
			}
		}
		f.Associations[name] = set
	}
}

func (f *Form) resolveRelated(ctx context.Context, mediaID string) {
	media, _ := cms.Lookup("media")
	raw, err := f.api.Get(ctx, media.ItemPath(mediaID), gateway.WithBearer(f.token))
	if err != nil {
		_ = obs.LogEvent(ctx, "crud.related_fetch_failed", map[string]any{
			"entity":   f.desc.Name,
			"media_id": mediaID,
			"error":    err.Error(),
		})
		return
	}
	var envelope struct {
		Media struct {
			FilePath string `json:"file_path"`
		} `json:"media"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	f.RelatedURL = envelope.Media.FilePath
}

// SetTranslation updates one translation slot by index. Out-of-range
// indexes are ignored rather than reordering the slots.
func (f *Form) SetTranslation(i int, title, body string) {
	if i < 0 || i >= len(f.Translations) {
		return
	}
	f.Translations[i].Title = title
	f.Translations[i].Body = body
}

// SetField updates a scalar field.
func (f *Form) SetField(name, value string) {
	f.Fields[name] = value
}

// Toggle flips one id in a multi-select association set. Local state
// only; nothing is persisted until Submit.
func (f *Form) Toggle(field, id string) {
	set := f.Associations[field]
	if set == nil {
		set = make(map[string]struct{})
		f.Associations[field] = set
	}
	if _, ok := set[id]; ok {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
}

// SetAssociation replaces an association set wholesale, as posted by a
// multi-select form control.
func (f *Form) SetAssociation(field string, ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	f.Associations[field] = set
}

// Validate checks the form before any network call: every configured
// language's primary text field must be non-empty, and the user-add
// password pair must be present and matching.
func (f *Form) Validate() error {
	var missing []string
	if f.desc.Translatable {
		for _, tr := range f.Translations {
			if strings.TrimSpace(tr.Title) == "" {
				missing = append(missing, fmt.Sprintf("%s (%s)", f.desc.PrimaryField, tr.Language))
			}
		}
	} else if f.desc.PrimaryField != "" && strings.TrimSpace(f.Fields[f.desc.PrimaryField]) == "" {
		missing = append(missing, f.desc.PrimaryField)
	}
	if f.desc.HasPassword && f.IsNew() {
		switch {
		case f.Password == "" || f.PasswordConfirm == "":
			missing = append(missing, "password")
		case f.Password != f.PasswordConfirm:
			return &ValidationError{Mismatch: true}
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Submit validates and sends the form upstream: POST for a new record,
// PUT when editing. A validation failure short-circuits with a warning
// toast and no network call. On upstream failure the local state is
// left untouched so the operator can retry.
func (f *Form) Submit(ctx context.Context) error {
	if err := f.Validate(); err != nil {
		f.notify.Warn(err.Error())
		return err
	}
	payload := f.payload()
	var err error
	if f.IsNew() {
		_, err = f.api.Post(ctx, f.desc.CollectionPath,
			gateway.WithBearer(f.token), gateway.WithJSONBody(payload))
	} else {
		_, err = f.api.Put(ctx, f.desc.ItemPath(f.id),
			gateway.WithBearer(f.token), gateway.WithJSONBody(payload))
	}
	if err != nil {
		f.notify.Error(userMessage(err, "save failed"))
		return err
	}
	f.notify.Success(f.desc.Name + " saved")
	return nil
}

// SubmitUpload creates a media record from a multipart file upload plus
// the scalar form fields. Only valid on the add screen of upload-backed
// entities.
func (f *Form) SubmitUpload(ctx context.Context, filename string, file io.Reader) error {
	if err := f.Validate(); err != nil {
		f.notify.Warn(err.Error())
		return err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("crud: build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("crud: build upload: %w", err)
	}
	for name, value := range f.Fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("crud: build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("crud: build upload: %w", err)
	}

	_, err = f.api.Do(ctx, http.MethodPost, f.desc.CollectionPath,
		gateway.WithBearer(f.token),
		gateway.WithRawBody(mw.FormDataContentType(), &buf))
	if err != nil {
		f.notify.Error(userMessage(err, "upload failed"))
		return err
	}
	f.notify.Success(f.desc.Name + " uploaded")
	return nil
}

func (f *Form) payload() map[string]any {
	out := make(map[string]any, len(f.Fields)+len(f.Associations)+2)
	for name, value := range f.Fields {
		out[name] = value
	}
	for field, set := range f.Associations {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[field] = ids
	}
	if f.desc.Translatable {
		out["translations"] = f.Translations
	}
	if f.desc.HasPassword && f.IsNew() {
		out["password"] = f.Password
	}
	return out
}
