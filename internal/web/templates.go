package web

import (
	"html/template"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/crud"
	"pressdesk.org/internal/token"
)

// viewData carries everything a page template can reference. One struct
// for all pages keeps the render call sites uniform.
type viewData struct {
	Title     string
	Flashes   []flash
	Claims    *token.Claims
	Lang      string
	Languages []string
	Nav       []cms.Descriptor

	Desc  cms.Descriptor
	Items []crud.Record
	Form  *crud.Form
	Roles []string
	ID    string

	Posts    []crud.Record
	MediaURL string
	Token    string
}

// Has reports whether the form's association set contains id.
func (d *viewData) Has(field, id string) bool {
	if d.Form == nil {
		return false
	}
	_, ok := d.Form.Associations[field][id]
	return ok
}

// Display picks the row text for a list entry: the session language's
// translation title when the entity is translatable (first slot as
// fallback), otherwise the descriptor's primary field.
func (d *viewData) Display(rec crud.Record) string {
	if !d.Desc.Translatable {
		return rec.Str(d.Desc.PrimaryField)
	}
	entries, ok := rec["translations"].([]any)
	if !ok {
		return ""
	}
	var first string
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		if first == "" {
			first = title
		}
		if lang, _ := m["language"].(string); lang == d.Lang {
			return title
		}
	}
	return first
}

var pageTemplates = template.Must(template.New("pages").Parse(pagesHTML))

const pagesHTML = `
{{define "head"}}<!doctype html>
<html lang="{{.Lang}}"><head><meta charset="utf-8"><title>{{.Title}} · pressdesk</title></head><body>
{{range .Flashes}}<div class="toast toast-{{.Level}}" data-id="{{.ID}}">{{.Message}}</div>{{end}}
{{if .Claims}}<nav>
<a href="/dashboard">dashboard</a>
{{range .Nav}}<a href="/all-{{.Plural}}">{{.Plural}}</a>{{end}}
<form method="post" action="/language">{{range .Languages}}<button name="language" value="{{.}}">{{.}}</button>{{end}}</form>
<form method="post" action="/logout"><button>log out</button></form>
</nav>{{end}}
{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "home"}}{{template "head" .}}
<h1>pressdesk</h1>
{{if .MediaURL}}<img src="{{.MediaURL}}" alt="">{{end}}
<ul>{{range .Posts}}<li>{{$.Display .}}</li>{{end}}</ul>
<a href="/info">about</a> <a href="/login">admin</a>
{{template "foot" .}}{{end}}

{{define "info"}}{{template "head" .}}
<h1>About</h1>
<p>pressdesk is the admin console and public face of this site. All content is served from the CMS API.</p>
{{template "foot" .}}{{end}}

{{define "login"}}{{template "head" .}}
<h1>Log in</h1>
<form method="post" action="/login">
<input name="email" type="email" placeholder="email" required>
<input name="password" type="password" placeholder="password" required>
<button>log in</button>
</form>
<a href="/sign-up">sign up</a> <a href="/forgot-password">forgot password</a>
{{template "foot" .}}{{end}}

{{define "signup"}}{{template "head" .}}
<h1>Sign up</h1>
<form method="post" action="/sign-up">
<input name="email" type="email" placeholder="email" required>
<input name="password" type="password" placeholder="password" required>
<input name="password_confirmation" type="password" placeholder="repeat password" required>
<button>sign up</button>
</form>
{{template "foot" .}}{{end}}

{{define "forgot"}}{{template "head" .}}
<h1>Forgot password</h1>
<form method="post" action="/forgot-password">
<input name="email" type="email" placeholder="email" required>
<button>send reset link</button>
</form>
{{template "foot" .}}{{end}}

{{define "reset"}}{{template "head" .}}
<h1>Reset password</h1>
<form method="post" action="/reset-password/{{.Token}}">
<input name="password" type="password" placeholder="new password" required>
<input name="password_confirmation" type="password" placeholder="repeat password" required>
<button>reset</button>
</form>
{{template "foot" .}}{{end}}

{{define "change-password"}}{{template "head" .}}
<h1>Change password</h1>
<form method="post" action="/change-password">
<input name="current_password" type="password" placeholder="current password" required>
<input name="password" type="password" placeholder="new password" required>
<button>change</button>
</form>
{{template "foot" .}}{{end}}

{{define "dashboard"}}{{template "head" .}}
<h1>Dashboard</h1>
{{with .Claims}}<p>signed in as {{.UserID}} ({{range .Roles}}{{.}} {{end}})</p>{{end}}
<a href="/change-password">change password</a>
{{template "foot" .}}{{end}}

{{define "list"}}{{template "head" .}}
<h1>{{.Desc.Plural}}</h1>
{{if not .Desc.ListOnly}}<a href="/add-{{.Desc.Name}}">add {{.Desc.Name}}</a>{{end}}
<table>
{{range .Items}}<tr>
<td>{{.ID}}</td><td>{{$.Display .}}</td>
{{if not $.Desc.ListOnly}}<td><a href="/edit-{{$.Desc.Name}}/{{.ID}}">edit</a>
<a href="/delete-{{$.Desc.Name}}/{{.ID}}">delete</a></td>{{end}}
</tr>{{end}}
</table>
{{template "foot" .}}{{end}}

{{define "form"}}{{template "head" .}}
<h1>{{if .Form.IsNew}}add{{else}}edit{{end}} {{.Desc.Name}}</h1>
<form method="post" {{if .Desc.HasUpload}}enctype="multipart/form-data"{{end}}>
{{range $i, $tr := .Form.Translations}}
<fieldset><legend>{{$tr.Language}}</legend>
<input name="title_{{$tr.Language}}" value="{{$tr.Title}}" placeholder="{{$.Desc.PrimaryField}} ({{$tr.Language}})">
<textarea name="body_{{$tr.Language}}">{{$tr.Body}}</textarea>
</fieldset>
{{end}}
{{range .Desc.Fields}}
{{if eq . "status"}}<select name="status">
<option value="draft" {{if eq (index $.Form.Fields .) "draft"}}selected{{end}}>draft</option>
<option value="pending" {{if eq (index $.Form.Fields .) "pending"}}selected{{end}}>pending</option>
<option value="published" {{if eq (index $.Form.Fields .) "published"}}selected{{end}}>published</option>
</select>{{else}}<input name="{{.}}" value="{{index $.Form.Fields .}}" placeholder="{{.}}">{{end}}
{{end}}
{{if .Roles}}<fieldset><legend>roles</legend>
{{range .Roles}}<label><input type="checkbox" name="roles" value="{{.}}" {{if $.Has "roles" .}}checked{{end}}>{{.}}</label>{{end}}
</fieldset>{{end}}
{{if and .Desc.HasPassword .Form.IsNew}}
<input name="password" type="password" placeholder="password">
<input name="password_confirmation" type="password" placeholder="repeat password">
{{end}}
{{if and .Desc.HasUpload .Form.IsNew}}<input name="file" type="file">{{end}}
{{if .Form.RelatedURL}}<img src="{{.Form.RelatedURL}}" alt="">{{end}}
<button>save</button>
</form>
{{template "foot" .}}{{end}}

{{define "confirm"}}{{template "head" .}}
<h1>Delete {{.Desc.Name}} {{.ID}}?</h1>
<p>This cannot be undone.</p>
<form method="post">
<input type="hidden" name="confirm" value="yes">
<button>delete</button> <a href="/all-{{.Desc.Plural}}">cancel</a>
</form>
{{template "foot" .}}{{end}}
`
