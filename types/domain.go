package types

// Domain identifies one business vertical served by a capability bundle.
// The set is closed: the router only ever transfers to one of these tags.
type Domain string

const (
	DomainDispatcher Domain = "dispatcher"
	DomainHealthcare Domain = "healthcare"
	DomainAirline    Domain = "airline"
	DomainRestaurant Domain = "restaurant"
	DomainInsurance  Domain = "insurance"
	DomainLogistics  Domain = "logistics"
	DomainCompany    Domain = "company"
)

// RoutableDomains lists every domain a caller can be transferred to.
// The dispatcher itself is not a transfer target.
func RoutableDomains() []Domain {
	return []Domain{
		DomainHealthcare,
		DomainAirline,
		DomainRestaurant,
		DomainInsurance,
		DomainLogistics,
		DomainCompany,
	}
}

// ParseDomain maps a free-form tag onto the closed domain set.
// Unknown tags return ok=false; callers must treat that as a soft
// classification failure, never as an error.
func ParseDomain(tag string) (Domain, bool) {
	switch Domain(tag) {
	case DomainDispatcher, DomainHealthcare, DomainAirline, DomainRestaurant,
		DomainInsurance, DomainLogistics, DomainCompany:
		return Domain(tag), true
	}
	return "", false
}

// DisplayName returns the user-facing team name spoken in transition
// utterances.
func (d Domain) DisplayName() string {
	switch d {
	case DomainHealthcare:
		return "Healthcare"
	case DomainAirline:
		return "Airline"
	case DomainRestaurant:
		return "Restaurant"
	case DomainInsurance:
		return "Insurance"
	case DomainLogistics:
		return "Logistics"
	case DomainCompany:
		return "Company Information"
	case DomainDispatcher:
		return "Front Desk"
	}
	return string(d)
}
