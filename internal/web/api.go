package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wolfeidau/leadtrack/internal/crm"
	"github.com/wolfeidau/leadtrack/internal/models"
)

type leadResponse struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Age         int        `json:"age"`
	Description string     `json:"description"`
	PhoneNumber string     `json:"phone_number"`
	Email       string     `json:"email"`
	AgentID     *uuid.UUID `json:"agent_id"`
	CategoryID  *uuid.UUID `json:"category_id"`
	ConvertedAt *time.Time `json:"converted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newLeadResponse(lead *models.Lead) leadResponse {
	return leadResponse{
		ID:          lead.LeadID,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Age:         lead.Age,
		Description: lead.Description,
		PhoneNumber: lead.PhoneNumber,
		Email:       lead.Email,
		AgentID:     lead.AgentID,
		CategoryID:  lead.CategoryID,
		ConvertedAt: lead.ConvertedAt,
		CreatedAt:   lead.CreatedAt,
		UpdatedAt:   lead.UpdatedAt,
	}
}

func newLeadResponses(leads []*models.Lead) []leadResponse {
	resp := make([]leadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, newLeadResponse(lead))
	}
	return resp
}

type leadListResponse struct {
	Leads      []leadResponse `json:"leads"`
	Assigned   []leadResponse `json:"assigned"`
	Unassigned []leadResponse `json:"unassigned,omitempty"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	LeadCount *int      `json:"lead_count,omitempty"`
}

func newCategoryResponse(category *models.Category) categoryResponse {
	return categoryResponse{ID: category.CategoryID, Name: category.Name}
}

type categoryListResponse struct {
	Categories         []categoryResponse `json:"categories"`
	UncategorisedCount int                `json:"uncategorised_count"`
	UnassignedCount    *int               `json:"unassigned_count,omitempty"`
}

type categoryDetailResponse struct {
	Category categoryResponse `json:"category"`
	Leads    []leadResponse   `json:"leads"`
}

type agentResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

func newAgentResponse(agent *models.AgentWithUser) agentResponse {
	return agentResponse{
		ID:        agent.AgentID,
		UserID:    agent.User.UserID,
		Username:  agent.User.Username,
		Email:     agent.User.Email,
		FirstName: agent.User.FirstName,
		LastName:  agent.User.LastName,
		CreatedAt: agent.CreatedAt,
	}
}

type assignAgentRequest struct {
	AgentID uuid.UUID `json:"agent_id"`
}

type leadCategoryRequest struct {
	CategoryID *uuid.UUID `json:"category_id"`
}

func (s *Server) apiLeadList(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	list, err := s.services.Leads.List(r.Context(), id)
	if err != nil {
		apiError(w, r, err)
		return
	}

	resp := leadListResponse{
		Leads:    newLeadResponses(list.Leads),
		Assigned: newLeadResponses(list.Assigned),
	}
	if id.IsOrganisor() {
		resp.Unassigned = newLeadResponses(list.Unassigned)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiLeadGet(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	leadID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	lead, err := s.services.Leads.Get(r.Context(), id, leadID)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newLeadResponse(lead))
}

func (s *Server) apiLeadCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var in crm.LeadInput
	if !decodeJSON(w, r, &in) {
		return
	}

	lead, err := s.services.Leads.Create(r.Context(), id, in)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newLeadResponse(lead))
}

func (s *Server) apiLeadUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	leadID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var in crm.LeadInput
	if !decodeJSON(w, r, &in) {
		return
	}

	lead, err := s.services.Leads.Update(r.Context(), id, leadID, in)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newLeadResponse(lead))
}

func (s *Server) apiLeadDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	leadID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	if err := s.services.Leads.Delete(r.Context(), id, leadID); err != nil {
		apiError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiLeadAssignAgent(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	leadID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var req assignAgentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := s.services.Leads.AssignAgent(r.Context(), id, leadID, req.AgentID)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newLeadResponse(lead))
}

func (s *Server) apiLeadCategory(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	leadID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var req leadCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := s.services.Leads.UpdateCategory(r.Context(), id, leadID, req.CategoryID)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newLeadResponse(lead))
}

func (s *Server) apiCategoryList(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	list, err := s.services.Categories.List(r.Context(), id)
	if err != nil {
		apiError(w, r, err)
		return
	}

	resp := categoryListResponse{
		Categories:         make([]categoryResponse, 0, len(list.Categories)),
		UncategorisedCount: list.UncategorisedCount,
	}
	for _, c := range list.Categories {
		cr := newCategoryResponse(c.Category)
		cr.LeadCount = &c.LeadCount
		resp.Categories = append(resp.Categories, cr)
	}
	if list.ShowUnassignedCount {
		resp.UnassignedCount = &list.UnassignedCount
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiCategoryGet(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	detail, err := s.services.Categories.Get(r.Context(), id, categoryID)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryDetailResponse{
		Category: newCategoryResponse(detail.Category),
		Leads:    newLeadResponses(detail.Leads),
	})
}

func (s *Server) apiCategoryCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var in crm.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	category, err := s.services.Categories.Create(r.Context(), id, in)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newCategoryResponse(category))
}

func (s *Server) apiCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var in crm.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	category, err := s.services.Categories.Update(r.Context(), id, categoryID, in)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newCategoryResponse(category))
}

func (s *Server) apiCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	categoryID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	if err := s.services.Categories.Delete(r.Context(), id, categoryID); err != nil {
		apiError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiAgentList(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	agents, err := s.services.Agents.List(r.Context(), id)
	if err != nil {
		apiError(w, r, err)
		return
	}

	resp := make([]agentResponse, 0, len(agents))
	for _, agent := range agents {
		resp = append(resp, newAgentResponse(agent))
	}

	writeJSON(w, http.StatusOK, map[string][]agentResponse{"agents": resp})
}

func (s *Server) apiAgentGet(w http.ResponseWriter, r *http.Request) {
	agent, err := s.loadAgent(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAgentResponse(agent))
}

func (s *Server) apiAgentCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var in crm.AgentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	agent, err := s.services.Agents.Create(r.Context(), id, in)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAgentResponse(agent))
}

func (s *Server) apiAgentUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	agentID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	var in crm.AgentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	agent, err := s.services.Agents.Update(r.Context(), id, agentID, in)
	if err != nil {
		apiError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAgentResponse(agent))
}

func (s *Server) apiAgentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	agentID, err := pathID(r)
	if err != nil {
		apiError(w, r, err)
		return
	}

	if err := s.services.Agents.Delete(r.Context(), id, agentID); err != nil {
		apiError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
