package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

// DomesticArea is coverage info for one domestic city code.
type DomesticArea struct {
	Zone    string `json:"zone"`
	SameDay bool   `json:"same_day"`
}

// InternationalArea is coverage info for one supported country.
type InternationalArea struct {
	TransitDays     int  `json:"transit_days"`
	CustomsRequired bool `json:"customs_required"`
}

// Quote is a priced shipping estimate.
type Quote struct {
	Total      int     `json:"total"`
	Base       int     `json:"base"`
	PerKG      int     `json:"per_kg"`
	Zone       string  `json:"zone,omitempty"`
	Multiplier float64 `json:"multiplier"`
	CODFee     int     `json:"cod_fee,omitempty"`
}

// CourierInfo is the courier company's contact card.
type CourierInfo struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	PickupHours string `json:"pickup_hours"`
	Website     string `json:"website"`
}

// CourierAgent is one pickup driver.
type CourierAgent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Area      string `json:"area"`
	Available bool   `json:"available"`
}

// Pickup is a scheduled parcel collection.
type Pickup struct {
	ID       string    `json:"booking_id"`
	Sender   string    `json:"sender_name"`
	Email    string    `json:"email"`
	Address  string    `json:"pickup_address"`
	AreaCode string    `json:"area_code"`
	WeightKG float64   `json:"weight_kg"`
	Pieces   int       `json:"pieces"`
	Service  string    `json:"service"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Status   string    `json:"status"`
	AgentID  string    `json:"assigned_agent,omitempty"`
	Created  time.Time `json:"created_at"`
}

// TrackingEvent is one scan on a shipment's journey.
type TrackingEvent struct {
	At   time.Time `json:"ts"`
	Text string    `json:"text"`
}

// Shipment is a parcel in flight, keyed by air waybill number.
type Shipment struct {
	AWB               string          `json:"awb"`
	Sender            string          `json:"sender"`
	Recipient         string          `json:"recipient"`
	Origin            string          `json:"origin"`
	Destination       string          `json:"destination"`
	WeightKG          float64         `json:"weight_kg"`
	Pieces            int             `json:"pieces"`
	Service           string          `json:"service"`
	Status            string          `json:"status"`
	LastLocation      string          `json:"last_location"`
	EstimatedDelivery string          `json:"estimated_delivery"`
	Events            []TrackingEvent `json:"events"`
}

// LogisticsStore backs the courier department.
type LogisticsStore struct {
	mu            sync.RWMutex
	domestic      map[string]DomesticArea
	international map[string]InternationalArea
	agents        []CourierAgent
	pickups       map[string]Pickup
	shipments     map[string]Shipment
	pickupSeq     int
	awbSeq        int
}

// NewLogisticsStore seeds coverage, drivers and one in-transit shipment.
func NewLogisticsStore() *LogisticsStore {
	s := &LogisticsStore{
		domestic: map[string]DomesticArea{
			"KHI":    {Zone: "A", SameDay: true},
			"LHE":    {Zone: "A", SameDay: true},
			"ISB":    {Zone: "A", SameDay: true},
			"RWP":    {Zone: "A", SameDay: true},
			"HYD":    {Zone: "B", SameDay: false},
			"GWADAR": {Zone: "C", SameDay: false},
		},
		international: map[string]InternationalArea{
			"UAE":   {TransitDays: 2, CustomsRequired: true},
			"SAUDI": {TransitDays: 3, CustomsRequired: true},
			"QATAR": {TransitDays: 3, CustomsRequired: true},
			"UK":    {TransitDays: 5, CustomsRequired: true},
			"USA":   {TransitDays: 7, CustomsRequired: true},
		},
		agents: []CourierAgent{
			{ID: "AGT001", Name: "Hamza", Area: "KHI", Available: true},
			{ID: "AGT002", Name: "Ayesha", Area: "LHE", Available: true},
			{ID: "AGT003", Name: "Bilal", Area: "ISB", Available: false},
		},
		pickups:   make(map[string]Pickup),
		shipments: make(map[string]Shipment),
		pickupSeq: 1001,
		awbSeq:    1000001,
	}

	s.shipments["CR1000001"] = Shipment{
		AWB:               "CR1000001",
		Sender:            "Ali Khan",
		Recipient:         "Sara Ahmed",
		Origin:            "KHI",
		Destination:       "LHE",
		WeightKG:          2.5,
		Pieces:            1,
		Service:           "domestic_standard",
		Status:            "In Transit",
		LastLocation:      "KHI - Sorting Hub",
		EstimatedDelivery: time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		Events: []TrackingEvent{
			{At: time.Now().Add(-6 * time.Hour), Text: "Shipment received at KHI facility"},
		},
	}
	return s
}

// Info returns the courier company's contact card.
func (s *LogisticsStore) Info() CourierInfo {
	return CourierInfo{
		Name:        "SwiftBridge Couriers",
		Address:     "Warehouse 7, Logistics Park, Karachi, Pakistan",
		Phone:       "+92 300 555 7788",
		Email:       "support@swiftbridge.co",
		PickupHours: "Mon-Sat: 09:00 - 19:00 local; international pickups Mon-Fri",
		Website:     "https://www.swiftbridge.co",
	}
}

// DomesticArea reports coverage for a city code.
func (s *LogisticsStore) DomesticArea(code string) (DomesticArea, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.domestic[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// InternationalArea reports coverage for a country.
func (s *LogisticsStore) InternationalArea(country string) (InternationalArea, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.international[strings.ToUpper(strings.TrimSpace(country))]
	return a, ok
}

// QuoteDomestic prices a domestic shipment. Express runs 1.5x, overnight
// 2.5x. COD adds a 2% fee on both the shipping cost and the collected
// amount.
func (s *LogisticsStore) QuoteDomestic(origin, destination string, weightKG float64, serviceLevel string, codAmount float64) (Quote, error) {
	if _, ok := s.DomesticArea(origin); !ok {
		return Quote{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("we don't cover %s domestically", strings.ToUpper(origin))).WithField("origin")
	}
	dest, ok := s.DomesticArea(destination)
	if !ok {
		return Quote{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("we don't cover %s domestically", strings.ToUpper(destination))).WithField("destination")
	}

	const base, perKG = 150, 200
	zoneMult := map[string]float64{"A": 1.0, "B": 1.25, "C": 1.6}[dest.Zone]

	svcMult := 1.0
	switch strings.ToLower(serviceLevel) {
	case "express":
		svcMult = 1.5
	case "overnight":
		svcMult = 2.5
	}

	cost := int((float64(base) + perKG*weightKG) * zoneMult * svcMult)
	codFee := 0
	if codAmount > 0 {
		codFee = int(0.02 * (float64(cost) + codAmount))
	}
	return Quote{
		Total:      cost + codFee,
		Base:       base,
		PerKG:      perKG,
		Zone:       dest.Zone,
		Multiplier: zoneMult * svcMult,
		CODFee:     codFee,
	}, nil
}

// QuoteInternational prices an international shipment. Express runs 1.6x.
func (s *LogisticsStore) QuoteInternational(country string, weightKG float64, serviceLevel string) (Quote, error) {
	if _, ok := s.InternationalArea(country); !ok {
		return Quote{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("we don't ship to %s", strings.ToUpper(country))).WithField("country")
	}

	const base, perKG = 1200, 1500
	surcharge := map[string]float64{"UAE": 1.0, "QATAR": 1.0, "SAUDI": 1.2, "UK": 1.5, "USA": 1.8}[strings.ToUpper(country)]

	svcMult := 1.0
	if strings.EqualFold(serviceLevel, "express") {
		svcMult = 1.6
	}

	cost := int((float64(base) + perKG*weightKG) * surcharge * svcMult)
	return Quote{Total: cost, Base: base, PerKG: perKG, Multiplier: surcharge * svcMult}, nil
}

// AgentForArea reports an available driver in the area, if any.
func (s *LogisticsStore) AgentForArea(areaCode string) (CourierAgent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agents {
		if a.Available && strings.EqualFold(a.Area, areaCode) {
			return a, true
		}
	}
	return CourierAgent{}, false
}

// AgentByID looks up a driver by id.
func (s *LogisticsStore) AgentByID(id string) (CourierAgent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agents {
		if strings.EqualFold(a.ID, id) {
			return a, true
		}
	}
	return CourierAgent{}, false
}

// SchedulePickup records a confirmed pickup and assigns a driver when one
// covers the area. The assigned driver is marked busy until the pickup is
// cancelled.
func (s *LogisticsStore) SchedulePickup(sender, email, address, areaCode string, weightKG float64, pieces int, service, date, at string) (Pickup, error) {
	if _, ok := s.DomesticArea(areaCode); !ok {
		return Pickup{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no pickup coverage in %s", strings.ToUpper(areaCode))).WithField("area_code")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agentID := ""
	for i, a := range s.agents {
		if a.Available && strings.EqualFold(a.Area, areaCode) {
			agentID = a.ID
			s.agents[i].Available = false
			break
		}
	}

	s.pickupSeq++
	p := Pickup{
		ID:       fmt.Sprintf("BKP%04d", s.pickupSeq),
		Sender:   sender,
		Email:    email,
		Address:  address,
		AreaCode: strings.ToUpper(areaCode),
		WeightKG: weightKG,
		Pieces:   pieces,
		Service:  service,
		Date:     date,
		Time:     at,
		Status:   "confirmed",
		AgentID:  agentID,
		Created:  time.Now(),
	}
	s.pickups[p.ID] = p
	return p, nil
}

// PickupByID looks up a scheduled pickup.
func (s *LogisticsStore) PickupByID(id string) (Pickup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pickups[strings.ToUpper(id)]
	if !ok {
		return Pickup{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no pickup booking %s", strings.ToUpper(id)))
	}
	return p, nil
}

// CancelPickup marks a pickup cancelled and frees its driver. Cancellation
// is refused within 2 hours of the scheduled slot.
func (s *LogisticsStore) CancelPickup(id string) (Pickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[strings.ToUpper(id)]
	if !ok {
		return Pickup{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no pickup booking %s", strings.ToUpper(id)))
	}
	if slot, err := time.ParseInLocation("2006-01-02 15:04", p.Date+" "+p.Time, time.Local); err == nil {
		if time.Until(slot) < 2*time.Hour {
			return Pickup{}, types.NewError(types.ErrValidation,
				fmt.Sprintf("pickup %s is within 2 hours of its scheduled time and can no longer be cancelled", p.ID))
		}
	}
	p.Status = "cancelled"
	s.pickups[p.ID] = p
	if p.AgentID != "" {
		for i, a := range s.agents {
			if a.ID == p.AgentID {
				s.agents[i].Available = true
				break
			}
		}
	}
	return p, nil
}

// TrackShipment returns a shipment by air waybill number.
func (s *LogisticsStore) TrackShipment(awb string) (Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shipments[strings.ToUpper(strings.TrimSpace(awb))]
	if !ok {
		return Shipment{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no shipment with tracking number %s", strings.ToUpper(awb)))
	}
	return sh, nil
}

// CreateShipment opens a new shipment and returns its air waybill number.
func (s *LogisticsStore) CreateShipment(sender, recipient, origin, destination string, weightKG float64, pieces int, service string) Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awbSeq++
	sh := Shipment{
		AWB:               fmt.Sprintf("CR%07d", s.awbSeq),
		Sender:            sender,
		Recipient:         recipient,
		Origin:            strings.ToUpper(origin),
		Destination:       strings.ToUpper(destination),
		WeightKG:          weightKG,
		Pieces:            pieces,
		Service:           service,
		Status:            "Booked",
		LastLocation:      strings.ToUpper(origin) + " - Origin Facility",
		EstimatedDelivery: time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
		Events: []TrackingEvent{
			{At: time.Now(), Text: "Shipment booked"},
		},
	}
	s.shipments[sh.AWB] = sh
	return sh
}

// RecordShipmentEvent appends a scan to a shipment's history and updates
// its status, and its last location when one is given.
func (s *LogisticsStore) RecordShipmentEvent(awb, status, location string) (Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToUpper(strings.TrimSpace(awb))
	sh, ok := s.shipments[key]
	if !ok {
		return Shipment{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no shipment with tracking number %s", key))
	}
	text := status
	if location != "" {
		text += " at " + location
		sh.LastLocation = location
	}
	sh.Status = status
	sh.Events = append(sh.Events, TrackingEvent{At: time.Now(), Text: text})
	s.shipments[key] = sh
	return sh, nil
}

// PickupCancellationPolicy returns the cancellation terms.
func (s *LogisticsStore) PickupCancellationPolicy() string {
	return "Pickup can be cancelled up to 2 hours before scheduled time without charge. " +
		"Later cancellations may incur a PKR 100 fee."
}
