package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/crm"
)

// form carries submitted values and field errors back into a template.
type form struct {
	Values url.Values
	Errors map[string]string
}

func newForm(values url.Values, err error) *form {
	f := &form{Values: values}
	var verr *crm.ValidationError
	if errors.As(err, &verr) {
		f.Errors = verr.Fields
	}
	return f
}

func (f *form) Get(name string) string {
	return f.Values.Get(name)
}

func (f *form) Error(name string) string {
	return f.Errors[name]
}

// identity returns the requester set by the auth middleware.
func identity(r *http.Request) (access.Identity, error) {
	id, ok := access.IdentityFromContext(r.Context())
	if !ok {
		return access.Identity{}, crm.ErrUnauthorized
	}
	return id, nil
}

// pathID parses the {id} path value. Malformed IDs cannot name a record.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, crm.ErrNotFound
	}
	return id, nil
}

func leadInputFromForm(values url.Values) (crm.LeadInput, error) {
	verr := &crm.ValidationError{}

	in := crm.LeadInput{
		FirstName:   values.Get("first_name"),
		LastName:    values.Get("last_name"),
		Description: values.Get("description"),
		PhoneNumber: values.Get("phone_number"),
		Email:       values.Get("email"),
		AgentID:     optionalID(values, "agent", verr),
		CategoryID:  optionalID(values, "category", verr),
	}

	if age := strings.TrimSpace(values.Get("age")); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			verr.Add("age", "enter a whole number")
		}
		in.Age = n
	}

	return in, verr.Err()
}

func leadFormValues(in crm.LeadInput) url.Values {
	values := url.Values{
		"first_name":   {in.FirstName},
		"last_name":    {in.LastName},
		"age":          {strconv.Itoa(in.Age)},
		"description":  {in.Description},
		"phone_number": {in.PhoneNumber},
		"email":        {in.Email},
	}
	if in.AgentID != nil {
		values.Set("agent", in.AgentID.String())
	}
	if in.CategoryID != nil {
		values.Set("category", in.CategoryID.String())
	}
	return values
}

func agentInputFromForm(values url.Values) crm.AgentInput {
	return crm.AgentInput{
		Email:     values.Get("email"),
		Username:  values.Get("username"),
		FirstName: values.Get("first_name"),
		LastName:  values.Get("last_name"),
	}
}

// optionalID parses an optional ID field, where an empty value means none.
func optionalID(values url.Values, field string, verr *crm.ValidationError) *uuid.UUID {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		verr.Add(field, "select a valid choice")
		return nil
	}
	return &id
}
