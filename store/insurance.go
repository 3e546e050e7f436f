package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

// Policy is one active insurance contract.
type Policy struct {
	Number   string `json:"policy_number"`
	Type     string `json:"type"`
	Coverage string `json:"coverage"`
	Premium  int    `json:"premium"`
	NextDue  string `json:"next_due"`
	Status   string `json:"status"`
}

// Payment is one premium payment on record.
type Payment struct {
	PolicyNumber  string `json:"policy_number"`
	Date          string `json:"date"`
	Amount        int    `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

// Claim is one filed insurance claim.
type Claim struct {
	ID           string    `json:"claim_id"`
	PolicyNumber string    `json:"policy_number"`
	Type         string    `json:"claim_type"`
	IncidentDate string    `json:"incident_date"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	FiledAt      time.Time `json:"filed_at,omitempty"`
}

// InsurerContact is the insurer's contact card.
type InsurerContact struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	OfficeHours string `json:"office_hours"`
}

// InsuranceStore backs the insurance department, keyed by customer email.
type InsuranceStore struct {
	mu          sync.RWMutex
	customers   map[string]string // email -> name
	policies    map[string][]Policy
	payments    map[string][]Payment
	claims      map[string][]Claim
	policyTypes map[string]string
	claimSeq    int
}

// NewInsuranceStore seeds the demo customer base.
func NewInsuranceStore() *InsuranceStore {
	return &InsuranceStore{
		customers: map[string]string{
			"ali.raza@example.com":  "Ali Raza",
			"sara.khan@example.com": "Sara Khan",
		},
		policies: map[string][]Policy{
			"ali.raza@example.com": {
				{Number: "POL123456", Type: "Car Insurance", Coverage: "Comprehensive", Premium: 25000, NextDue: "2025-12-01", Status: "Active"},
				{Number: "POL789012", Type: "Travel Insurance", Coverage: "International", Premium: 15000, NextDue: "2025-09-15", Status: "Active"},
			},
			"sara.khan@example.com": {
				{Number: "POL654321", Type: "Health Insurance", Coverage: "Individual", Premium: 40000, NextDue: "2026-01-15", Status: "Active"},
				{Number: "POL321987", Type: "Life Insurance", Coverage: "Term Life", Premium: 50000, NextDue: "2026-05-01", Status: "Active"},
			},
		},
		payments: map[string][]Payment{
			"ali.raza@example.com": {
				{PolicyNumber: "POL123456", Date: "2025-06-01", Amount: 25000, Method: "Credit Card", TransactionID: "TXN1001"},
				{PolicyNumber: "POL123456", Date: "2024-06-01", Amount: 25000, Method: "Bank Transfer", TransactionID: "TXN0784"},
				{PolicyNumber: "POL789012", Date: "2025-09-01", Amount: 15000, Method: "Credit Card", TransactionID: "TXN1123"},
			},
			"sara.khan@example.com": {
				{PolicyNumber: "POL654321", Date: "2025-01-15", Amount: 40000, Method: "Debit Card", TransactionID: "TXN1025"},
				{PolicyNumber: "POL321987", Date: "2025-05-01", Amount: 50000, Method: "Credit Card", TransactionID: "TXN1189"},
			},
		},
		claims: map[string][]Claim{
			"ali.raza@example.com": {
				{ID: "CLM001", PolicyNumber: "POL123456", Type: "Accident Damage", IncidentDate: "2025-07-10", Description: "Minor bumper damage due to collision.", Status: "Under Review"},
				{ID: "CLM005", PolicyNumber: "POL789012", Type: "Lost Luggage", IncidentDate: "2025-09-05", Description: "Luggage lost during international travel.", Status: "Approved"},
			},
			"sara.khan@example.com": {
				{ID: "CLM002", PolicyNumber: "POL654321", Type: "Medical Reimbursement", IncidentDate: "2025-08-03", Description: "Hospitalization due to appendicitis.", Status: "Under Review"},
			},
		},
		policyTypes: map[string]string{
			"car insurance":    "Covers damages to your vehicle and liability in case of accidents. Includes comprehensive and third-party coverage.",
			"travel insurance": "Provides coverage for trip cancellations, medical emergencies, lost luggage, and other travel-related issues.",
			"health insurance": "Covers medical expenses including hospitalization, surgery, and prescriptions.",
			"life insurance":   "Provides financial protection to beneficiaries in the event of the policyholder's death.",
		},
		claimSeq: 1000,
	}
}

// ContactInfo returns the insurer's contact card.
func (s *InsuranceStore) ContactInfo() InsurerContact {
	return InsurerContact{
		Phone:       "+92-300-1234567",
		Email:       "support@securelife.com",
		Address:     "123 Insurance Avenue, Karachi, Pakistan",
		OfficeHours: "Mon-Fri: 9 AM - 6 PM, Sat: 10 AM - 2 PM",
	}
}

// CustomerName resolves a customer by email.
func (s *InsuranceStore) CustomerName(email string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.customers[strings.ToLower(email)]
	if !ok {
		return "", types.NewError(types.ErrNotFound,
			"no account found for that email address").WithField("email")
	}
	return name, nil
}

// PolicyTypeInfo describes a product line by name.
func (s *InsuranceStore) PolicyTypeInfo(policyType string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.policyTypes[strings.ToLower(strings.TrimSpace(policyType))]
	if !ok {
		return "", types.NewError(types.ErrNotFound,
			fmt.Sprintf("we don't offer a policy called %q", policyType)).WithField("policy_type")
	}
	return info, nil
}

// PoliciesByEmail lists a customer's contracts.
func (s *InsuranceStore) PoliciesByEmail(email string) ([]Policy, error) {
	if _, err := s.CustomerName(email); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Policy(nil), s.policies[strings.ToLower(email)]...), nil
}

// OwnsPolicy reports whether the customer holds the numbered policy.
func (s *InsuranceStore) OwnsPolicy(email, policyNumber string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.policies[strings.ToLower(email)] {
		if strings.EqualFold(p.Number, policyNumber) {
			return true
		}
	}
	return false
}

// PaymentsByEmail lists a customer's premium payments.
func (s *InsuranceStore) PaymentsByEmail(email string) ([]Payment, error) {
	if _, err := s.CustomerName(email); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Payment(nil), s.payments[strings.ToLower(email)]...), nil
}

// ClaimsByEmail lists a customer's filed claims.
func (s *InsuranceStore) ClaimsByEmail(email string) ([]Claim, error) {
	if _, err := s.CustomerName(email); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Claim(nil), s.claims[strings.ToLower(email)]...), nil
}

// FileClaim records a new claim against a policy the customer owns.
func (s *InsuranceStore) FileClaim(email, policyNumber, claimType, incidentDate, description string) (Claim, error) {
	if _, err := s.CustomerName(email); err != nil {
		return Claim{}, err
	}
	if !s.OwnsPolicy(email, policyNumber) {
		return Claim{}, types.NewError(types.ErrValidation,
			fmt.Sprintf("policy %s is not on your account", strings.ToUpper(policyNumber))).WithField("policy_number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimSeq++
	c := Claim{
		ID:           fmt.Sprintf("CLM%04d", s.claimSeq),
		PolicyNumber: strings.ToUpper(policyNumber),
		Type:         claimType,
		IncidentDate: incidentDate,
		Description:  description,
		Status:       "Under Review",
		FiledAt:      time.Now(),
	}
	key := strings.ToLower(email)
	s.claims[key] = append(s.claims[key], c)
	return c, nil
}
