package web

import (
	"net/http"
	"net/url"

	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/models"
)

func (s *Server) categoryPages() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leads/categories/{$}", s.categoryList)
	mux.HandleFunc("GET /leads/categories/create/{$}", s.categoryCreate)
	mux.HandleFunc("POST /leads/categories/create/{$}", s.categoryCreate)
	mux.HandleFunc("GET /leads/categories/{id}/{$}", s.categoryDetail)
	mux.HandleFunc("GET /leads/categories/{id}/update/{$}", s.categoryUpdate)
	mux.HandleFunc("POST /leads/categories/{id}/update/{$}", s.categoryUpdate)
	mux.HandleFunc("GET /leads/categories/{id}/delete/{$}", s.categoryDelete)
	mux.HandleFunc("POST /leads/categories/{id}/delete/{$}", s.categoryDelete)
	return mux
}

func (s *Server) categoryList(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	list, err := s.services.Categories.List(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "category_list", view{Title: "Categories", Data: list})
}

type categoryDetailPage struct {
	Category *models.Category
	Leads    []leadRow
}

func (s *Server) categoryDetail(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	detail, err := s.services.Categories.Get(r.Context(), id, categoryID)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	l, err := s.loadLookups(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "category_detail", view{
		Title: detail.Category.Name,
		Data:  categoryDetailPage{Category: detail.Category, Leads: l.rows(detail.Leads)},
	})
}

type categoryFormPage struct {
	Category *models.Category
	Action   string
}

func (s *Server) categoryCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	page := categoryFormPage{Action: "/leads/categories/create/"}

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "category_form", view{Title: "Create category", Form: newForm(nil, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	_, err = s.services.Categories.Create(r.Context(), id, crm.CategoryInput{Name: r.PostForm.Get("name")})
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "category_form", view{Title: "Create category", Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/leads/categories/", http.StatusSeeOther)
}

func (s *Server) categoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	detail, err := s.services.Categories.Get(r.Context(), id, categoryID)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	page := categoryFormPage{Category: detail.Category, Action: "/leads/categories/" + categoryID.String() + "/update/"}
	title := "Update " + detail.Category.Name

	if r.Method != http.MethodPost {
		values := url.Values{"name": {detail.Category.Name}}
		s.render(w, r, http.StatusOK, "category_form", view{Title: title, Form: newForm(values, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	_, err = s.services.Categories.Update(r.Context(), id, categoryID, crm.CategoryInput{Name: r.PostForm.Get("name")})
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "category_form", view{Title: title, Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/leads/categories/"+categoryID.String()+"/", http.StatusSeeOther)
}

func (s *Server) categoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		if err := s.services.Categories.Delete(r.Context(), id, categoryID); err != nil {
			s.htmlError(w, r, err)
			return
		}
		http.Redirect(w, r, "/leads/categories/", http.StatusSeeOther)
		return
	}

	detail, err := s.services.Categories.Get(r.Context(), id, categoryID)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "confirm_delete", view{
		Title: "Delete " + detail.Category.Name,
		Data: confirmDeletePage{
			Object:    detail.Category.Name,
			Action:    "/leads/categories/" + categoryID.String() + "/delete/",
			CancelURL: "/leads/categories/" + categoryID.String() + "/",
		},
	})
}
