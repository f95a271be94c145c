// Package http provides the JSON API server and its handlers.
//
// This file decodes transaction payloads into patches, reporting every
// missing or malformed field in a single ValidationError.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"tracker/internal/core"
)

// maxBodyBytes caps write payloads.
const maxBodyBytes = 1 << 20

const (
	msgRequired  = "This field is required."
	msgNull      = "This field may not be null."
	msgNotString = "Not a valid string."
	msgNotNumber = "A valid number is required."
)

// requiredFields must be present on create and full update.
var requiredFields = []string{"title", "amount", "transaction_type", "category", "date"}

// badRequestError marks a request that could not be decoded at all.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

// parseTransactionPayload decodes a write body. With partial set, absent
// fields are left nil; otherwise every required field must be present.
// Unknown and read-only keys (id, created_at, updated_at) are ignored.
func parseTransactionPayload(r *http.Request, partial bool) (core.TransactionPatch, error) {
	raw, err := decodeObject(r)
	if err != nil {
		return core.TransactionPatch{}, err
	}

	var p core.TransactionPatch
	verr := core.NewValidationError()

	if !partial {
		for _, field := range requiredFields {
			if _, ok := raw[field]; !ok {
				verr.Add(field, msgRequired)
			}
		}
	}

	if v, ok := raw["title"]; ok {
		if s, msg := stringField(v); msg != "" {
			verr.Add("title", msg)
		} else {
			p.Title = &s
		}
	}

	if v, ok := raw["description"]; ok {
		if s, msg := stringField(v); msg != "" {
			verr.Add("description", msg)
		} else {
			p.Description = &s
		}
	}

	if v, ok := raw["amount"]; ok {
		if m, msg := amountField(v); msg != "" {
			verr.Add("amount", msg)
		} else {
			p.Amount = &m
		}
	}

	if v, ok := raw["transaction_type"]; ok {
		if s, msg := stringField(v); msg != "" {
			verr.Add("transaction_type", msg)
		} else {
			t := core.TransactionType(s)
			p.Type = &t
		}
	}

	if v, ok := raw["category"]; ok {
		if s, msg := stringField(v); msg != "" {
			verr.Add("category", msg)
		} else {
			c := core.Category(s)
			p.Category = &c
		}
	}

	if v, ok := raw["date"]; ok {
		if s, msg := stringField(v); msg != "" {
			verr.Add("date", msg)
		} else if d, err := core.ParseDate(s); err != nil {
			verr.Add("date", err.Error())
		} else {
			p.Date = &d
		}
	}

	verr.Merge(p.Validate())
	if err := verr.OrNil(); err != nil {
		return core.TransactionPatch{}, err
	}
	return p, nil
}

// decodeObject reads the body as a JSON object. An empty body decodes as an
// empty object.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &badRequestError{msg: fmt.Sprintf("Request body exceeds %d bytes.", maxErr.Limit)}
		}
		return nil, &badRequestError{msg: "Could not read request body."}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &badRequestError{msg: "JSON parse error - " + err.Error()}
	}
	if _, ok := v.(map[string]any); !ok {
		verr := core.NewValidationError()
		verr.Add("non_field_errors", "Invalid data. Expected a dictionary.")
		return nil, verr
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &badRequestError{msg: "JSON parse error - " + err.Error()}
	}
	return raw, nil
}

// stringField decodes a JSON string. msg is non-empty when the value is
// null or of another type.
func stringField(v json.RawMessage) (s string, msg string) {
	if isNull(v) {
		return "", msgNull
	}
	if err := json.Unmarshal(v, &s); err != nil {
		return "", msgNotString
	}
	return s, ""
}

// amountField accepts a JSON string or number and parses it exactly.
func amountField(v json.RawMessage) (core.Money, string) {
	if isNull(v) {
		return core.Money{}, msgNull
	}

	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return core.Money{}, msgNotNumber
	}

	var text string
	switch val := decoded.(type) {
	case string:
		text = val
	case json.Number:
		text = val.String()
	default:
		return core.Money{}, msgNotNumber
	}

	m, err := core.ParseAmount(text)
	switch {
	case errors.Is(err, core.ErrAmountNotNumeric), errors.Is(err, core.ErrAmountRequired):
		return core.Money{}, msgNotNumber
	case err != nil:
		return core.Money{}, err.Error()
	}
	return m, ""
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

// parseID extracts the {id} path value. ok is false for anything that is
// not a positive integer.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
