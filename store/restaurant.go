package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/types"
)

// MenuItem is one orderable dish with its price in PKR.
type MenuItem struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Category string `json:"category"`
}

// TableReservation is a confirmed table slot.
type TableReservation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	People    int       `json:"people"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// FoodOrder is a confirmed order.
type FoodOrder struct {
	ID        string    `json:"id"`
	Items     []string  `json:"items"`
	Total     int       `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// RestaurantInfo is the restaurant's contact card and opening hours.
type RestaurantInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Open    string `json:"open"`
	Close   string `json:"close"`
}

// RestaurantStore backs the restaurant department.
type RestaurantStore struct {
	mu           sync.RWMutex
	menu         []MenuItem
	upsells      map[string][]string
	reservations map[string]TableReservation
	orders       map[string]FoodOrder
	resSeq       int
	ordSeq       int
}

// NewRestaurantStore seeds the demo menu and upsell pairings.
func NewRestaurantStore() *RestaurantStore {
	return &RestaurantStore{
		menu: []MenuItem{
			{Name: "Tomato Soup", Price: 350, Category: "Starters"},
			{Name: "Chicken Corn Soup", Price: 400, Category: "Starters"},
			{Name: "Caesar Salad", Price: 550, Category: "Starters"},
			{Name: "Greek Salad", Price: 600, Category: "Starters"},
			{Name: "Fettuccine Alfredo", Price: 950, Category: "Main Course"},
			{Name: "Spaghetti Bolognese", Price: 1000, Category: "Main Course"},
			{Name: "Margherita", Price: 1200, Category: "Main Course"},
			{Name: "Pepperoni", Price: 1400, Category: "Main Course"},
			{Name: "BBQ Chicken", Price: 1500, Category: "Main Course"},
			{Name: "Classic Burger", Price: 800, Category: "Main Course"},
			{Name: "Cheese Burger", Price: 900, Category: "Main Course"},
			{Name: "Garlic Bread", Price: 300, Category: "Sides"},
			{Name: "Fries", Price: 250, Category: "Sides"},
			{Name: "Chocolate Lava Cake", Price: 650, Category: "Desserts"},
			{Name: "Cheesecake", Price: 700, Category: "Desserts"},
			{Name: "Coke", Price: 150, Category: "Drinks"},
			{Name: "Lemonade", Price: 200, Category: "Drinks"},
			{Name: "Iced Tea", Price: 250, Category: "Drinks"},
		},
		upsells: map[string][]string{
			"Classic Burger": {"Fries", "Coke"},
			"Cheese Burger":  {"Fries", "Iced Tea"},
			"Margherita":     {"Garlic Bread", "Lemonade"},
			"Pepperoni":      {"Garlic Bread", "Coke"},
		},
		reservations: make(map[string]TableReservation),
		orders:       make(map[string]FoodOrder),
		resSeq:       1000,
		ordSeq:       1000,
	}
}

// Info returns the restaurant's contact card.
func (s *RestaurantStore) Info() RestaurantInfo {
	return RestaurantInfo{
		Name:    "La Piazza Bistro",
		Address: "12 Food Street, Karachi, Pakistan",
		Phone:   "+92 21 9876 5432",
		Email:   "contact@lapiazza.com",
		Open:    "10:00",
		Close:   "23:00",
	}
}

// WithinHours reports whether a zero-padded HH:MM time falls inside
// opening hours.
func (s *RestaurantStore) WithinHours(at string) bool {
	info := s.Info()
	return at >= info.Open && at <= info.Close
}

// Menu returns the menu grouped by category, categories in stable order.
func (s *RestaurantStore) Menu() map[string][]MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]MenuItem)
	for _, it := range s.menu {
		out[it.Category] = append(out[it.Category], it)
	}
	return out
}

// FindItem resolves a dish by name, case-insensitively.
func (s *RestaurantStore) FindItem(name string) (MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.menu {
		if strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			return it, true
		}
	}
	return MenuItem{}, false
}

// Upsells returns suggested add-ons for the given items, deduplicated and
// excluding anything already ordered.
func (s *RestaurantStore) Upsells(items []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := make(map[string]bool, len(items))
	for _, it := range items {
		ordered[strings.ToLower(strings.TrimSpace(it))] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		for _, u := range s.upsells[canonicalItemName(s.menu, it)] {
			key := strings.ToLower(u)
			if ordered[key] || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, u)
		}
	}
	sort.Strings(out)
	return out
}

func canonicalItemName(menu []MenuItem, name string) string {
	for _, it := range menu {
		if strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			return it.Name
		}
	}
	return strings.TrimSpace(name)
}

// PriceOrder totals the named items. Unknown items are returned separately
// so the bundle can read them back instead of failing the order.
func (s *RestaurantStore) PriceOrder(items []string) (total int, unknown []string) {
	for _, name := range items {
		it, ok := s.FindItem(name)
		if !ok {
			unknown = append(unknown, strings.TrimSpace(name))
			continue
		}
		total += it.Price
	}
	return total, unknown
}

// CreateReservation records a confirmed table slot. A slot already held by
// a confirmed reservation is rejected.
func (s *RestaurantStore) CreateReservation(name, email, date, at string, people int) (TableReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := date + " " + at
	for _, r := range s.reservations {
		if r.Status == "confirmed" && r.Date+" "+r.Time == slot {
			return TableReservation{}, types.NewError(types.ErrValidation,
				fmt.Sprintf("the %s slot is already booked", slot)).WithField("time")
		}
	}

	s.resSeq++
	r := TableReservation{
		ID:        fmt.Sprintf("RES%04d", s.resSeq),
		Name:      name,
		Email:     email,
		Date:      date,
		Time:      at,
		People:    people,
		Status:    "confirmed",
		CreatedAt: time.Now(),
	}
	s.reservations[r.ID] = r
	return r, nil
}

// ReservationByID looks up a reservation.
func (s *RestaurantStore) ReservationByID(id string) (TableReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[strings.ToUpper(id)]
	if !ok {
		return TableReservation{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no reservation %s", strings.ToUpper(id)))
	}
	return r, nil
}

// CancelReservation marks a reservation cancelled, freeing its slot.
func (s *RestaurantStore) CancelReservation(id string) (TableReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[strings.ToUpper(id)]
	if !ok {
		return TableReservation{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no reservation %s", strings.ToUpper(id)))
	}
	r.Status = "cancelled"
	s.reservations[r.ID] = r
	return r, nil
}

// CreateOrder records a confirmed order at the given total.
func (s *RestaurantStore) CreateOrder(items []string, total int) FoodOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordSeq++
	o := FoodOrder{
		ID:        fmt.Sprintf("ORD%04d", s.ordSeq),
		Items:     append([]string(nil), items...),
		Total:     total,
		Status:    "confirmed",
		CreatedAt: time.Now(),
	}
	s.orders[o.ID] = o
	return o
}

// OrderByID looks up an order.
func (s *RestaurantStore) OrderByID(id string) (FoodOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[strings.ToUpper(id)]
	if !ok {
		return FoodOrder{}, types.NewError(types.ErrNotFound,
			fmt.Sprintf("no order %s", strings.ToUpper(id)))
	}
	return o, nil
}
