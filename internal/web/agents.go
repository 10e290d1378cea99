package web

import (
	"net/http"
	"net/url"

	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/models"
)

func (s *Server) agentPages() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agents/{$}", s.agentList)
	mux.HandleFunc("GET /agents/create/{$}", s.agentCreate)
	mux.HandleFunc("POST /agents/create/{$}", s.agentCreate)
	mux.HandleFunc("GET /agents/{id}/{$}", s.agentDetail)
	mux.HandleFunc("GET /agents/{id}/update/{$}", s.agentUpdate)
	mux.HandleFunc("POST /agents/{id}/update/{$}", s.agentUpdate)
	mux.HandleFunc("GET /agents/{id}/delete/{$}", s.agentDelete)
	mux.HandleFunc("POST /agents/{id}/delete/{$}", s.agentDelete)
	return mux
}

func (s *Server) agentList(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	agents, err := s.services.Agents.List(r.Context(), id)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "agent_list", view{Title: "Agents", Data: agents})
}

// loadAgent resolves the {id} agent for the organisor making the request.
func (s *Server) loadAgent(r *http.Request) (*models.AgentWithUser, error) {
	id, err := identity(r)
	if err != nil {
		return nil, err
	}

	// Agents get forbidden before the ID is looked at
	if !id.IsOrganisor() {
		return nil, crm.ErrForbidden
	}

	agentID, err := pathID(r)
	if err != nil {
		return nil, err
	}

	return s.services.Agents.Get(r.Context(), id, agentID)
}

func (s *Server) agentDetail(w http.ResponseWriter, r *http.Request) {
	agent, err := s.loadAgent(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "agent_detail", view{Title: agent.User.FullName(), Data: agent})
}

type agentFormPage struct {
	Agent  *models.AgentWithUser
	Action string
}

func (s *Server) agentCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if !id.IsOrganisor() {
		s.htmlError(w, r, crm.ErrForbidden)
		return
	}

	page := agentFormPage{Action: "/agents/create/"}

	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "agent_form", view{Title: "Create agent", Form: newForm(nil, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	_, err = s.services.Agents.Create(r.Context(), id, agentInputFromForm(r.PostForm))
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "agent_form", view{Title: "Create agent", Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/agents/", http.StatusSeeOther)
}

func (s *Server) agentUpdate(w http.ResponseWriter, r *http.Request) {
	agent, err := s.loadAgent(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	id, _ := identity(r)
	page := agentFormPage{Agent: agent, Action: "/agents/" + agent.AgentID.String() + "/update/"}
	title := "Update " + agent.User.FullName()

	if r.Method != http.MethodPost {
		values := url.Values{
			"email":      {agent.User.Email},
			"username":   {agent.User.Username},
			"first_name": {agent.User.FirstName},
			"last_name":  {agent.User.LastName},
		}
		s.render(w, r, http.StatusOK, "agent_form", view{Title: title, Form: newForm(values, nil), Data: page})
		return
	}

	if err := r.ParseForm(); err != nil {
		s.htmlError(w, r, err)
		return
	}

	_, err = s.services.Agents.Update(r.Context(), id, agent.AgentID, agentInputFromForm(r.PostForm))
	if status, _ := classify(err); status == http.StatusUnprocessableEntity {
		s.render(w, r, status, "agent_form", view{Title: title, Form: newForm(r.PostForm, err), Data: page})
		return
	}
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	http.Redirect(w, r, "/agents/"+agent.AgentID.String()+"/", http.StatusSeeOther)
}

func (s *Server) agentDelete(w http.ResponseWriter, r *http.Request) {
	agent, err := s.loadAgent(r)
	if err != nil {
		s.htmlError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		id, _ := identity(r)
		if err := s.services.Agents.Delete(r.Context(), id, agent.AgentID); err != nil {
			s.htmlError(w, r, err)
			return
		}
		http.Redirect(w, r, "/agents/", http.StatusSeeOther)
		return
	}

	s.render(w, r, http.StatusOK, "confirm_delete", view{
		Title: "Delete " + agent.User.FullName(),
		Data: confirmDeletePage{
			Object:    agent.User.FullName(),
			Action:    "/agents/" + agent.AgentID.String() + "/delete/",
			CancelURL: "/agents/" + agent.AgentID.String() + "/",
		},
	})
}
