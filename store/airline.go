package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

// Flight is one scheduled daily flight.
type Flight struct {
	Number      string `json:"flight_number"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
	Duration    string `json:"duration"`
	Fare        string `json:"fare"`
	Gate        string `json:"gate"`
	Terminal    string `json:"terminal"`
}

// FlightStatus is a point-in-time operational status.
type FlightStatus struct {
	Flight       Flight `json:"flight"`
	Status       string `json:"status"`
	DelayMinutes int    `json:"delay_minutes"`
}

// LoyaltyMember is one frequent-flyer account.
type LoyaltyMember struct {
	ID           string   `json:"id"`
	Tier         string   `json:"tier"`
	MilesBalance int      `json:"miles_balance"`
	ValidUntil   string   `json:"valid_until"`
	Benefits     []string `json:"benefits"`
}

// FlightBooking is a confirmed seat on a flight.
type FlightBooking struct {
	PNR          string    `json:"pnr"`
	FlightNumber string    `json:"flight_number"`
	Passenger    string    `json:"passenger"`
	Email        string    `json:"email"`
	Date         string    `json:"date"`
	Class        string    `json:"class"`
	Status       string    `json:"status"`
	BookedAt     time.Time `json:"booked_at"`
}

// AirlineInfo is the airline's contact card.
type AirlineInfo struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	OfficeHours string `json:"office_hours"`
	Website     string `json:"website"`
}

// AirlineStore backs the airline department.
type AirlineStore struct {
	mu       sync.RWMutex
	flights  []Flight
	loyalty  map[string]LoyaltyMember
	baggage  map[string]string
	bookings map[string]FlightBooking
	pnrSeq   int
}

// NewAirlineStore seeds the demo schedule, loyalty tiers and baggage rules.
func NewAirlineStore() *AirlineStore {
	s := &AirlineStore{
		flights: []Flight{
			{Number: "SB101", Origin: "KHI", Destination: "DXB", Departure: "08:00", Arrival: "10:00", Duration: "2h 00m", Fare: "PKR 45,000", Gate: "A12", Terminal: "T1"},
			{Number: "SB202", Origin: "KHI", Destination: "LHR", Departure: "14:30", Arrival: "19:30", Duration: "7h 00m", Fare: "PKR 145,000", Gate: "B3", Terminal: "T2"},
			{Number: "SB303", Origin: "LHE", Destination: "IST", Departure: "09:00", Arrival: "13:00", Duration: "4h 00m", Fare: "PKR 85,000", Gate: "C5", Terminal: "T1"},
			{Number: "SB404", Origin: "ISB", Destination: "JED", Departure: "06:00", Arrival: "09:30", Duration: "3h 30m", Fare: "PKR 70,000", Gate: "D9", Terminal: "T3"},
			{Number: "SB505", Origin: "DXB", Destination: "KHI", Departure: "22:00", Arrival: "00:30", Duration: "2h 30m", Fare: "PKR 48,000", Gate: "E2", Terminal: "T1"},
			{Number: "SB112", Origin: "KHI", Destination: "DXB", Departure: "18:00", Arrival: "20:00", Duration: "2h 00m", Fare: "PKR 52,000", Gate: "A7", Terminal: "T1"},
			{Number: "SB215", Origin: "LHE", Destination: "DXB", Departure: "11:15", Arrival: "13:45", Duration: "2h 30m", Fare: "PKR 55,000", Gate: "B8", Terminal: "T2"},
			{Number: "SB310", Origin: "ISB", Destination: "LHR", Departure: "10:00", Arrival: "15:30", Duration: "7h 30m", Fare: "PKR 150,000", Gate: "C1", Terminal: "T2"},
			{Number: "SB420", Origin: "KHI", Destination: "JED", Departure: "05:45", Arrival: "09:00", Duration: "3h 15m", Fare: "PKR 72,000", Gate: "D4", Terminal: "T3"},
			{Number: "SB515", Origin: "LHR", Destination: "KHI", Departure: "21:00", Arrival: "06:30", Duration: "7h 30m", Fare: "PKR 140,000", Gate: "F6", Terminal: "T2"},
			{Number: "SB606", Origin: "KHI", Destination: "DOH", Departure: "11:00", Arrival: "13:00", Duration: "2h 00m", Fare: "PKR 55,000", Gate: "A3", Terminal: "T1"},
			{Number: "SB707", Origin: "LHE", Destination: "DXB", Departure: "16:00", Arrival: "18:30", Duration: "2h 30m", Fare: "PKR 49,500", Gate: "B5", Terminal: "T2"},
			{Number: "SB808", Origin: "ISB", Destination: "KUL", Departure: "23:30", Arrival: "07:30", Duration: "6h 00m", Fare: "PKR 120,000", Gate: "C7", Terminal: "T1"},
			{Number: "SB909", Origin: "KHI", Destination: "ISB", Departure: "12:15", Arrival: "14:15", Duration: "2h 00m", Fare: "PKR 25,000", Gate: "D2", Terminal: "T1"},
			{Number: "SB010", Origin: "LHE", Destination: "KHI", Departure: "18:45", Arrival: "20:30", Duration: "1h 45m", Fare: "PKR 24,000", Gate: "E8", Terminal: "T1"},
		},
		loyalty: map[string]LoyaltyMember{
			"SB12345": {ID: "SB12345", Tier: "Silver", MilesBalance: 12450, ValidUntil: "2026-03-01", Benefits: []string{"Priority check-in", "Extra baggage allowance"}},
			"SB67890": {ID: "SB67890", Tier: "Gold", MilesBalance: 30200, ValidUntil: "2026-09-15", Benefits: []string{"Lounge access", "Free seat upgrades", "Priority boarding"}},
			"SB99999": {ID: "SB99999", Tier: "Platinum", MilesBalance: 78000, ValidUntil: "2027-01-10", Benefits: []string{"First-class upgrades", "Personal travel assistant", "Unlimited lounge access"}},
		},
		baggage: map[string]string{
			"economy":         "1 checked bag up to 23kg + 1 carry-on bag (7kg)",
			"premium economy": "2 checked bags up to 23kg each + 1 carry-on bag (7kg)",
			"business":        "2 checked bags up to 32kg each + 1 carry-on bag (10kg)",
			"first":           "3 checked bags up to 32kg each + 2 carry-on bags (12kg total)",
		},
		bookings: make(map[string]FlightBooking),
		pnrSeq:   10003,
	}
	for _, b := range []FlightBooking{
		{PNR: "BK10001", FlightNumber: "SB101", Passenger: "Ali Raza", Email: "ali.raza@example.com", Date: time.Now().Format("2006-01-02"), Class: "economy", Status: "confirmed", BookedAt: time.Now()},
		{PNR: "BK10002", FlightNumber: "SB202", Passenger: "Sara Khan", Email: "sara.khan@example.com", Date: time.Now().AddDate(0, 0, 1).Format("2006-01-02"), Class: "business", Status: "confirmed", BookedAt: time.Now()},
		{PNR: "BK10003", FlightNumber: "SB909", Passenger: "Zain Ahmed", Email: "zain.ahmed@example.com", Date: time.Now().Format("2006-01-02"), Class: "economy", Status: "confirmed", BookedAt: time.Now()},
	} {
		s.bookings[b.PNR] = b
	}
	return s
}

// Info returns the airline's contact card.
func (s *AirlineStore) Info() AirlineInfo {
	return AirlineInfo{
		Name:        "SkyBridge Airlines",
		Address:     "Terminal 2, International Airport, Karachi, Pakistan",
		Phone:       "+92 300 1234567",
		Email:       "support@skybridgeair.com",
		OfficeHours: "24/7 customer service",
		Website:     "https://www.skybridgeair.com",
	}
}

// Flights returns the full daily schedule.
func (s *AirlineStore) Flights() []Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Flight, len(s.flights))
	copy(out, s.flights)
	return out
}

// SearchFlights returns the daily schedule entries matching origin and
// destination, case-insensitively.
func (s *AirlineStore) SearchFlights(origin, destination string) []Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Flight
	for _, f := range s.flights {
		if strings.EqualFold(f.Origin, origin) && strings.EqualFold(f.Destination, destination) {
			out = append(out, f)
		}
	}
	return out
}

// FlightByNumber looks a flight up by its number.
func (s *AirlineStore) FlightByNumber(number string) (Flight, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.flights {
		if strings.EqualFold(f.Number, number) {
			return f, true
		}
	}
	return Flight{}, false
}

// Status reports flight status. The demo derives it from the flight number
// so repeated queries stay consistent within a call.
func (s *AirlineStore) Status(number string) (FlightStatus, error) {
	f, ok := s.FlightByNumber(number)
	if !ok {
		return FlightStatus{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no flight %s in today's schedule", strings.ToUpper(number)))
	}

	statuses := []string{"On Time", "Delayed", "Boarding", "On Time"}
	var sum int
	for _, c := range f.Number {
		sum += int(c)
	}
	st := FlightStatus{Flight: f, Status: statuses[sum%len(statuses)]}
	if st.Status == "Delayed" {
		st.DelayMinutes = 15 * (1 + sum%3)
	}
	return st, nil
}

// Loyalty looks up a frequent-flyer account.
func (s *AirlineStore) Loyalty(memberID string) (LoyaltyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.loyalty[strings.ToUpper(memberID)]
	if !ok {
		return LoyaltyMember{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no loyalty member %s", strings.ToUpper(memberID)))
	}
	return m, nil
}

// BaggagePolicy returns the allowance for a travel class.
func (s *AirlineStore) BaggagePolicy(class string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.baggage[strings.ToLower(strings.TrimSpace(class))]
	if !ok {
		return "", types.NewError(types.ErrNotFound,
			fmt.Sprintf("unknown travel class %q", class)).WithField("class")
	}
	return p, nil
}

// CancellationPolicy returns the fare cancellation terms.
func (s *AirlineStore) CancellationPolicy() string {
	return "Refundable fares can be cancelled up to 24 hours before departure with a 10% fee. " +
		"Non-refundable fares can only be rebooked for a change fee of PKR 10,000 plus fare difference."
}

// CreateBooking records a confirmed booking and assigns a PNR.
func (s *AirlineStore) CreateBooking(flightNumber, passenger, email, date, class string) (FlightBooking, error) {
	if _, ok := s.FlightByNumber(flightNumber); !ok {
		return FlightBooking{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no flight %s in today's schedule", strings.ToUpper(flightNumber)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pnrSeq++
	b := FlightBooking{
		PNR:          fmt.Sprintf("BK%05d", s.pnrSeq),
		FlightNumber: strings.ToUpper(flightNumber),
		Passenger:    passenger,
		Email:        email,
		Date:         date,
		Class:        class,
		Status:       "confirmed",
		BookedAt:     time.Now(),
	}
	s.bookings[b.PNR] = b
	return b, nil
}

// BookingByPNR looks up a booking.
func (s *AirlineStore) BookingByPNR(pnr string) (FlightBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[strings.ToUpper(pnr)]
	if !ok {
		return FlightBooking{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no booking under PNR %s", strings.ToUpper(pnr)))
	}
	return b, nil
}

// CancelBooking marks a booking cancelled.
func (s *AirlineStore) CancelBooking(pnr string) (FlightBooking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[strings.ToUpper(pnr)]
	if !ok {
		return FlightBooking{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no booking under PNR %s", strings.ToUpper(pnr)))
	}
	b.Status = "cancelled"
	s.bookings[b.PNR] = b
	return b, nil
}
