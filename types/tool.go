package types

// ParamType is the wire type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInt     ParamType = "integer"
	ParamFloat   ParamType = "number"
	ParamBool    ParamType = "boolean"
	ParamStrings ParamType = "string_list"
	ParamObjects ParamType = "object_list"
)

// ParamFormat names a validated string format.
type ParamFormat string

const (
	FormatNone       ParamFormat = ""
	FormatEmail      ParamFormat = "email"
	FormatDate       ParamFormat = "date"        // YYYY-MM-DD
	FormatFutureDate ParamFormat = "future-date" // YYYY-MM-DD, today or later
	FormatClock      ParamFormat = "clock"       // HH:MM, 24h
	FormatPhone      ParamFormat = "phone"
)

// Param declares one tool input with its validation constraints.
type Param struct {
	Name        string      `json:"name"`
	Type        ParamType   `json:"type"`
	Required    bool        `json:"required"`
	Format      ParamFormat `json:"format,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	MinLen      int         `json:"min_len,omitempty"`
	Description string      `json:"description,omitempty"`
}

// ToolSchema defines a tool's interface for LLM function calling.
type ToolSchema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  []Param `json:"parameters,omitempty"`
}
