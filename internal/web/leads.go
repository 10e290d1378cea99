package web

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/models"
)

func (s *Server) leadPages() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leads/{$}", s.leadList)
	mux.HandleFunc("GET /leads/create/{$}", s.leadCreate)
	mux.HandleFunc("POST /leads/create/{$}", s.leadCreate)
	mux.HandleFunc("GET /leads/{id}/{$}", s.leadDetail)
	mux.HandleFunc("GET /leads/{id}/update/{$}", s.leadUpdate)
	mux.HandleFunc("POST /leads/{id}/update/{$}", s.leadUpdate)
	mux.HandleFunc("GET /leads/{id}/delete/{$}", s.leadDelete)
	mux.HandleFunc("POST /leads/{id}/delete/{$}", s.leadDelete)
	mux.HandleFunc("GET /leads/{id}/assign_agent/{$}", s.leadAssignAgent)
	mux.HandleFunc("POST /leads/{id}/assign_agent/{$}", s.leadAssignAgent)
	mux.HandleFunc("GET /leads/{id}/category/{$}", s.leadCategory)
	mux.HandleFunc("POST /leads/{id}/category/{$}", s.leadCategory)
	return mux
}

// leadRow is a lead with the names of its category and agent resolved.
type leadRow struct {
	*models.Lead
	Category string
	Agent    string
}

// lookups holds the categories and agents a requester can pick from.
type lookups struct {
	Categories []crm.CategorySummary
	Agents     []*models.AgentWithUser

	categoryNames map[uuid.UUID]string
	agentNames    map[uuid.UUID]string
}

func (s *Server) loadLookups(ctx context.Context, id access.Identity) (*lookups, error) {
	categories, err := s.services.Categories.List(ctx, id)
	if err != nil {
		return nil, err
	}

	l := &lookups{
		Categories:    categories.Categories,
		categoryNames: make(map[uuid.UUID]string, len(categories.Categories)),
		agentNames:    make(map[uuid.UUID]string),
	}
	for _, c := range categories.Categories {
		l.categoryNames[c.CategoryID] = c.Name
	}

	// Agents cannot list the organisation's agents
	if id.IsOrganisor() {
		l.Agents, err = s.services.Agents.List(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, a := range l.Agents {
			l.agentNames[a.AgentID] = a.User.FullName()
		}
	}

	return l, nil
}

func (l *lookups) rows(leads []*models.Lead) []leadRow {
	rows := make([]leadRow, 0, len(leads))
	for _, lead := range leads {
		row := leadRow{Lead: lead}
		if lead.CategoryID != nil {
			row.Category = l.categoryNames[*lead.CategoryID]
		}
		if lead.AgentID != nil {
			row.Agent = l.agentNames[*lead.AgentID]
		}
		rows = append(rows, row)
	}
	return rows
}

type leadListPage struct {
	Assigned   []leadRow
	Unassigned []leadRow
}

func (s *Server) leadList(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	list, err := s.services.Leads.List(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	l, err := s.loadLookups(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "lead_list", view{
		Title: "Leads",
		Data: leadListPage{
			Assigned:   l.rows(list.Assigned),
			Unassigned: l.rows(list.Unassigned),
		},
	})
}

func (s *Server) leadDetail(w http.ResponseWriter, r *http.Request) {
	row, _, err := s.loadLead(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "lead_detail", view{
		Title: row.FullName(),
		Data:  row,
	})
}

// loadLead resolves the {id} lead in the requester's scope along with the lookups.
func (s *Server) loadLead(r *http.Request) (leadRow, *lookups, error) {
	id, err := identity(r)
	if err != nil {
		return leadRow{}, nil, err
	}

	leadID, err := pathID(r)
	if err != nil {
		return leadRow{}, nil, err
	}

	lead, err := s.services.Leads.Get(r.Context(), id, leadID)
	if err != nil {
		return leadRow{}, nil, err
	}

	l, err := s.loadLookups(r.Context(), id)
	if err != nil {
		return leadRow{}, nil, err
	}

	return l.rows([]*models.Lead{lead})[0], l, nil
}

type leadFormPage struct {
	Lead    *leadRow
	Lookups *lookups
	Action  string
}

func (s *Server) leadCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	// Only organisors see the form
	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	l, err := s.loadLookups(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	page := leadFormPage{Lookups: l, Action: "/leads/create/"}

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "lead_form", view{Title: "Create lead", Form: newForm(nil, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	in, err := leadInputFromForm(r.PostForm)
	if err == nil {
		_, err = s.services.Leads.Create(r.Context(), id, in)
	}
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "lead_form", view{Title: "Create lead", Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/leads/", http.StatusSeeOther)
}

func (s *Server) leadUpdate(w http.ResponseWriter, r *http.Request) {
	row, l, err := s.loadLead(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	id, _ := identity(r)
	page := leadFormPage{Lead: &row, Lookups: l, Action: "/leads/" + row.LeadID.String() + "/update/"}
	title := "Update " + row.FullName()

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "lead_form", view{Title: title, Form: newForm(leadFormValues(crm.InputFromLead(row.Lead)), nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	in, err := leadInputFromForm(r.PostForm)
	if err == nil {
		_, err = s.services.Leads.Update(r.Context(), id, row.LeadID, in)
	}
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "lead_form", view{Title: title, Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/leads/"+row.LeadID.String()+"/", http.StatusSeeOther)
}

type confirmDeletePage struct {
	Object    string
	Action    string
	CancelURL string
}

func (s *Server) leadDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	leadID, err := pathID(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		if err := s.services.Leads.Delete(r.Context(), id, leadID); err != nil {
			s.htmlError(w, r, err)
			return
		}
		http.Redirect(w, r, "/leads/", http.StatusSeeOther)
		return
	}

	lead, err := s.services.Leads.Get(r.Context(), id, leadID)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "confirm_delete", view{
		Title: "Delete " + lead.FullName(),
		Data: confirmDeletePage{
			Object:    lead.FullName(),
			Action:    "/leads/" + leadID.String() + "/delete/",
			CancelURL: "/leads/" + leadID.String() + "/",
		},
	})
}

func (s *Server) leadAssignAgent(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	row, l, err := s.loadLead(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	page := leadFormPage{Lead: &row, Lookups: l, Action: "/leads/" + row.LeadID.String() + "/assign_agent/"}
	title := "Assign " + row.FullName()

	if r.Method != http.MethodPost {
		values := leadFormValues(crm.InputFromLead(row.Lead))
		s.render(w, r, http.StatusOK, "lead_assign", view{Title: title, Form: newForm(values, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	agentID, err := uuid.Parse(r.PostForm.Get("agent"))
	if err != nil {
		err = &crm.ValidationError{Fields: map[string]string{"agent": "select an agent"}}
	} else {
		_, err = s.services.Leads.AssignAgent(r.Context(), id, row.LeadID, agentID)
	}
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "lead_assign", view{Title: title, Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/leads/", http.StatusSeeOther)
}

func (s *Server) leadCategory(w http.ResponseWriter, r *http.Request) {
	row, l, err := s.loadLead(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	id, _ := identity(r)
	page := leadFormPage{Lead: &row, Lookups: l, Action: "/leads/" + row.LeadID.String() + "/category/"}
	title := "Update category of " + row.FullName()

	if r.Method != http.MethodPost {
		values := leadFormValues(crm.InputFromLead(row.Lead))
		s.render(w, r, http.StatusOK, "lead_category", view{Title: title, Form: newForm(values, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	verr := &crm.ValidationError{}
	categoryID := optionalID(r.PostForm, "category", verr)
	err = verr.Err()
	if err == nil {
		_, err = s.services.Leads.UpdateCategory(r.Context(), id, row.LeadID, categoryID)
	}
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "lead_category", view{Title: title, Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/leads/"+row.LeadID.String()+"/", http.StatusSeeOther)
}
