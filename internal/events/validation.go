package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxShortText = 255

var errMalformedBody = errors.New("request body must be a JSON object")

// dateLayouts are the accepted date-time forms. Layouts without an offset are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// zeroFraction matches an all-zero decimal tail such as ".0" or ".000 ".
var zeroFraction = regexp.MustCompile(`\.0*\s*$`)

// fields is the decoded, validated subset of an event body. Nil means the key was absent.
type fields struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Capacity    *int
}

// decodeFields validates an event body field by field. With partial set only the
// supplied keys are checked; otherwise every writable field is required.
// Text values are trimmed. Unknown keys and the server-managed id/created_at/updated_at are ignored.
func decodeFields(body []byte, partial bool) (fields, map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return fields{}, nil, errMalformedBody
	}

	var f fields
	problems := map[string]string{}

	f.Title = shortText(raw, "title", partial, problems)
	f.Description = text(raw, "description", partial, problems)
	f.Location = shortText(raw, "location", partial, problems)

	if v, ok := present(raw, "date", partial, problems); ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			problems["date"] = "must be a string"
		} else if t, ok := parseDate(s); !ok {
			problems["date"] = "must be an ISO 8601 date-time"
		} else {
			f.Date = &t
		}
	}

	if v, ok := present(raw, "capacity", partial, problems); ok {
		n, ok := parseInteger(v)
		switch {
		case !ok:
			problems["capacity"] = "must be an integer"
		case n < 0:
			problems["capacity"] = "must be zero or greater"
		case n > math.MaxInt32:
			problems["capacity"] = "is too large"
		default:
			c := int(n)
			f.Capacity = &c
		}
	}

	if len(problems) > 0 {
		return fields{}, problems, nil
	}
	return f, nil, nil
}

// parseDate accepts RFC 3339 and the same form without an offset, with a space or T
// separator and optional seconds. The result is in UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseInteger accepts a JSON number or numeric string whose value is integral:
// 50, 50.0, "50" and " 50.00 " all give 50, while 50.5 and "fifty" do not.
func parseInteger(v json.RawMessage) (int64, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		var num json.Number
		if err := json.Unmarshal(v, &num); err != nil {
			return 0, false
		}
		s = num.String()
	}
	s = strings.TrimSpace(zeroFraction.ReplaceAllString(s, ""))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// present reports whether key was supplied with a non-null value, recording a
// problem when a required key is missing or null.
func present(raw map[string]json.RawMessage, key string, partial bool, problems map[string]string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok {
		if !partial {
			problems[key] = "this field is required"
		}
		return nil, false
	}
	if string(bytes.TrimSpace(v)) == "null" {
		problems[key] = "may not be null"
		return nil, false
	}
	return v, true
}

func text(raw map[string]json.RawMessage, key string, partial bool, problems map[string]string) *string {
	v, ok := present(raw, key, partial, problems)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		problems[key] = "must be a string"
		return nil
	}
	s = strings.TrimSpace(s)
	return &s
}

func shortText(raw map[string]json.RawMessage, key string, partial bool, problems map[string]string) *string {
	s := text(raw, key, partial, problems)
	if s == nil {
		return nil
	}
	switch {
	case *s == "":
		problems[key] = "may not be blank"
		return nil
	case utf8.RuneCountInString(*s) > maxShortText:
		problems[key] = "must be at most 255 characters"
		return nil
	}
	return s
}
