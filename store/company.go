package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

// ContactRequest is a caller's message for the company team.
type ContactRequest struct {
	ID        string    `json:"contact_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CompanyStore backs the company information department.
type CompanyStore struct {
	mu       sync.RWMutex
	requests map[string]ContactRequest
	ctcSeq   int
}

// NewCompanyStore creates an empty contact request book.
func NewCompanyStore() *CompanyStore {
	return &CompanyStore{
		requests: make(map[string]ContactRequest),
		ctcSeq:   10000,
	}
}

// CreateContactRequest records a submitted contact request.
func (s *CompanyStore) CreateContactRequest(name, email, phone, subject, message string) ContactRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctcSeq++
	r := ContactRequest{
		ID:        fmt.Sprintf("CTC%05d", s.ctcSeq),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Subject:   subject,
		Message:   message,
		Status:    "submitted",
		CreatedAt: time.Now(),
	}
	s.requests[r.ID] = r
	return r
}

// ContactRequestByID looks up a submitted request.
func (s *CompanyStore) ContactRequestByID(id string) (ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[strings.ToUpper(id)]
	if !ok {
		return ContactRequest{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no contact request %s", strings.ToUpper(id)))
	}
	return r, nil
}
