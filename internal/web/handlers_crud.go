package web

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/crud"
	"pressdesk.org/internal/gateway"
	"pressdesk.org/internal/obs"
)

// listHandler renders the entity list. The controller fetches on every
// entry; a fetch failure renders the empty state rather than an error
// page.
func (s *Server) listHandler(desc cms.Descriptor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := s.sessionID(r)
		rec, _ := s.sessions.Get(r.Context(), sid)
		list := crud.NewList(desc, s.api, s.notifier(sid), rec.Token)
		if err := list.Load(r.Context()); err != nil {
			_ = obs.LogEvent(r.Context(), "web.list_load_failed", map[string]any{
				"entity": desc.Name,
				"error":  err.Error(),
			})
		}
		data := s.viewFor(r, desc.Plural)
		data.Desc = desc
		data.Items = list.Items()
		s.render(w, r, "list", data)
	})
}

// formHandler serves both the add and edit screens; an {id} route var
// selects edit. POST binds the submitted fields onto a freshly loaded
// form, so a rejected save re-renders with the operator's input intact.
func (s *Server) formHandler(desc cms.Descriptor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := s.sessionID(r)
		rec, _ := s.sessions.Get(r.Context(), sid)
		id := mux.Vars(r)["id"]

		form := crud.NewForm(desc, s.api, s.notifier(sid), rec.Token, s.cfg.Languages)
		if id != "" {
			if err := form.Load(r.Context(), id); err != nil {
				s.flashes.push(sid, "error", apiMessage(err, "could not load "+desc.Name))
				http.Redirect(w, r, "/all-"+desc.Plural, http.StatusSeeOther)
				return
			}
		}

		if r.Method == http.MethodGet {
			s.renderForm(w, r, desc, form, id)
			return
		}

		if err := s.bindForm(r, desc, form); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var err error
		if desc.HasUpload && form.IsNew() {
			file, header, ferr := r.FormFile("file")
			if ferr != nil {
				s.flashes.push(sid, "warning", "a file is required")
				s.renderForm(w, r, desc, form, id)
				return
			}
			defer file.Close()
			err = form.SubmitUpload(r.Context(), header.Filename, file)
		} else {
			err = form.Submit(r.Context())
		}
		if err != nil {
			s.renderForm(w, r, desc, form, id)
			return
		}
		if id == "" {
			http.Redirect(w, r, "/all-"+desc.Plural, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/edit-"+desc.Name+"/"+id, http.StatusSeeOther)
	})
}

// deleteHandler shows a confirm page on GET and performs the delete only
// when the POST carries the explicit confirmation. Declining changes
// nothing.
func (s *Server) deleteHandler(desc cms.Descriptor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := s.sessionID(r)
		id := mux.Vars(r)["id"]

		if r.Method == http.MethodGet {
			data := s.viewFor(r, "Delete "+desc.Name)
			data.Desc = desc
			data.ID = id
			s.render(w, r, "confirm", data)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.FormValue("confirm") != "yes" {
			http.Redirect(w, r, "/all-"+desc.Plural, http.StatusSeeOther)
			return
		}
		rec, _ := s.sessions.Get(r.Context(), sid)
		list := crud.NewList(desc, s.api, s.notifier(sid), rec.Token)
		_ = list.Delete(r.Context(), id) // failure surfaces as a flash
		http.Redirect(w, r, "/all-"+desc.Plural, http.StatusSeeOther)
	})
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, desc cms.Descriptor, form *crud.Form, id string) {
	title := "Add " + desc.Name
	if id != "" {
		title = "Edit " + desc.Name
	}
	data := s.viewFor(r, title)
	data.Desc = desc
	data.Form = form
	data.ID = id
	if desc.Name == "user" {
		data.Roles = s.fetchRoles(r)
	}
	s.render(w, r, "form", data)
}

// bindForm copies the posted fields onto the form controller. Uploads
// arrive as multipart; everything else as urlencoded.
func (s *Server) bindForm(r *http.Request, desc cms.Descriptor, form *crud.Form) error {
	var err error
	if desc.HasUpload {
		err = r.ParseMultipartForm(maxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return err
	}
	for i, lang := range s.cfg.Languages {
		title := r.FormValue("title_" + lang)
		body := r.FormValue("body_" + lang)
		form.SetTranslation(i, title, body)
	}
	for _, name := range desc.Fields {
		form.SetField(name, r.FormValue(name))
	}
	for _, name := range desc.Associations {
		form.SetAssociation(name, r.Form[name])
	}
	if desc.HasPassword {
		form.Password = r.FormValue("password")
		form.PasswordConfirm = r.FormValue("password_confirmation")
	}
	return nil
}

// fetchRoles loads the assignable role names for the user form. The
// screen degrades to an empty list when the endpoint is unavailable.
func (s *Server) fetchRoles(r *http.Request) []string {
	sid := s.sessionID(r)
	rec, _ := s.sessions.Get(r.Context(), sid)
	raw, err := s.api.Get(r.Context(), cms.RolesPath, gateway.WithBearer(rec.Token))
	if err != nil {
		_ = obs.LogEvent(r.Context(), "web.roles_fetch_failed", map[string]any{"error": err.Error()})
		return nil
	}
	var envelope struct {
		Roles []string `json:"roles"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	return envelope.Roles
}
