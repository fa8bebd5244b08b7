package domain

import (
	"encoding/json"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

type ListType string

const (
	ListWhitelist ListType = "whitelist"
	ListBlacklist ListType = "blacklist"
	ListGreylist  ListType = "greylist"
	ListWatchlist ListType = "watchlist"
	ListSanctions ListType = "sanctions"
	ListPEP       ListType = "pep"
	ListCustom    ListType = "custom"
)

func (t ListType) Valid() bool {
	switch t {
	case ListWhitelist, ListBlacklist, ListGreylist, ListWatchlist, ListSanctions, ListPEP, ListCustom:
		return true
	}
	return false
}

// List is a tenant-owned reference list such as an internal watchlist.
type List struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	Name         string    `json:"name"`
	Type         ListType  `json:"type"`
	Description  string    `json:"description,omitempty"`
	Scope        string    `json:"scope"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
	UpdatedAt    time.Time `json:"updatedAt"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
}

type ListValue struct {
	ID          string          `json:"id"`
	ListID      string          `json:"listId"`
	Name        string          `json:"name"`
	Code        string          `json:"code,omitempty"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	CreatedBy   string          `json:"createdBy"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	UpdatedBy   string          `json:"updatedBy,omitempty"`
}

type ListFilter struct {
	IncludeInactive bool
	SubscriberID    string
	Types           []ListType
	Scope           string
	Search          string
}

func (f ListFilter) Validate() error {
	for _, t := range f.Types {
		if !t.Valid() {
			return Invalid("types", "unknown value "+string(t))
		}
	}
	return nil
}

type ListValueFilter struct {
	IncludeInactive bool
	ListID          string
	Search          string
}

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldDateTime FieldType = "datetime"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldPhone    FieldType = "phone"
	FieldJSON     FieldType = "json"
	FieldArray    FieldType = "array"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldBoolean, FieldDate, FieldDateTime,
		FieldEmail, FieldURL, FieldPhone, FieldJSON, FieldArray:
		return true
	}
	return false
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,19}$`)

// Check reports whether value is a well-formed literal of the field type. The
// empty string clears a field and is always accepted.
func (t FieldType) Check(value string) error {
	if value == "" {
		return nil
	}
	bad := Invalid("value", "not a valid "+string(t))
	switch t {
	case FieldText:
	case FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return bad
		}
	case FieldBoolean:
		if value != "true" && value != "false" {
			return bad
		}
	case FieldDate:
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return bad
		}
	case FieldDateTime:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return bad
		}
	case FieldEmail:
		if a, err := mail.ParseAddress(value); err != nil || a.Address != value {
			return bad
		}
	case FieldURL:
		u, err := url.ParseRequestURI(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return bad
		}
	case FieldPhone:
		if !phonePattern.MatchString(value) {
			return bad
		}
	case FieldJSON:
		if !json.Valid([]byte(value)) {
			return bad
		}
	case FieldArray:
		var items []any
		if err := json.Unmarshal([]byte(value), &items); err != nil {
			return bad
		}
	default:
		return Invalid("fieldType", "unknown value "+string(t))
	}
	return nil
}

// CustomField is a tenant-defined attribute attached to one entity. Keys are
// unique per entity.
type CustomField struct {
	ID           string    `json:"id"`
	EntityID     string    `json:"entityId"`
	Key          string    `json:"key"`
	Label        string    `json:"label,omitempty"`
	Value        string    `json:"value"`
	Type         FieldType `json:"type"`
	Category     string    `json:"category,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	IsSensitive  bool      `json:"isSensitive"`
	CreatedAt    time.Time `json:"createdAt"`
	CreatedBy    string    `json:"createdBy"`
	UpdatedAt    time.Time `json:"updatedAt"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
}

const redacted = "********"

// Redacted hides the value of a sensitive field.
func (f CustomField) Redacted() CustomField {
	if f.IsSensitive && f.Value != "" {
		f.Value = redacted
	}
	return f
}

var fieldKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

// ValidFieldKey requires a lower snake_case key of at most 100 characters.
func ValidFieldKey(key string) error {
	if !fieldKeyPattern.MatchString(key) {
		return Invalid("key", "must be lower snake_case starting with a letter")
	}
	return nil
}
