// This file parses request bodies. JSON objects and form-encoded bodies are
// both accepted; each field is read as text so that a client may send a
// number either as a JSON number or as a string.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fanatitra/internal/core"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser holds the top-level fields of a request body.
type RequestBodyParser struct {
	fields map[string]json.RawMessage
}

// ParseRequestBody reads the body once. An empty body yields no fields.
func ParseRequestBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, core.Validation("body", "request body is too large")
		}
		return nil, core.Validation("body", "request body could not be read")
	}
	p := &RequestBodyParser{fields: map[string]json.RawMessage{}}
	if len(bytes.TrimSpace(body)) == 0 {
		return p, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, core.Validation("body", "malformed form body")
		}
		for k, v := range values {
			if len(v) == 0 {
				continue
			}
			raw, _ := json.Marshal(v[0])
			p.fields[k] = raw
		}
		return p, nil
	}

	if err := json.Unmarshal(body, &p.fields); err != nil {
		return nil, core.Validation("body", "request body must be a JSON object")
	}
	return p, nil
}

// Field returns the first of keys present in the body, as text. Absent
// keys and JSON null yield nil. Numbers keep their literal spelling.
func (p *RequestBodyParser) Field(keys ...string) (*string, error) {
	for _, key := range keys {
		raw, ok := p.fields[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		switch {
		case len(raw) == 0 || string(raw) == "null":
			return nil, nil
		case raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, core.Validation(key, key+" must be a string")
			}
			return &s, nil
		case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
			s := string(raw)
			return &s, nil
		default:
			return nil, core.Validation(key, key+" must be a string or a number")
		}
	}
	return nil, nil
}

// Value is Field with absence read as "".
func (p *RequestBodyParser) Value(keys ...string) (string, error) {
	v, err := p.Field(keys...)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

// fieldReader collects the first error across a series of reads.
type fieldReader struct {
	p   *RequestBodyParser
	err error
}

func (fr *fieldReader) value(keys ...string) string {
	if fr.err != nil {
		return ""
	}
	v, err := fr.p.Value(keys...)
	fr.err = err
	return v
}

func (fr *fieldReader) field(keys ...string) *string {
	if fr.err != nil {
		return nil
	}
	v, err := fr.p.Field(keys...)
	fr.err = err
	return v
}

// newContributor reads a directory create body. "name" is accepted for
// fullName.
func newContributor(p *RequestBodyParser) (core.NewContributor, error) {
	fr := &fieldReader{p: p}
	in := core.NewContributor{
		FullName:    fr.value("fullName", "name"),
		CardNumber:  fr.value("cardNumber"),
		Address:     fr.value("address"),
		PhoneNumber: fr.value("phoneNumber"),
	}
	return in, fr.err
}

func contributorPatch(p *RequestBodyParser) (core.ContributorPatch, error) {
	fr := &fieldReader{p: p}
	patch := core.ContributorPatch{
		FullName:    fr.field("fullName", "name"),
		CardNumber:  fr.field("cardNumber"),
		Address:     fr.field("address"),
		PhoneNumber: fr.field("phoneNumber"),
	}
	return patch, fr.err
}

func contributionDraft(p *RequestBodyParser) (core.ContributionDraft, error) {
	fr := &fieldReader{p: p}
	d := core.ContributionDraft{
		Date:            fr.value("date"),
		ContributorName: fr.value("personName"),
		Amount:          fr.value("amount"),
		AccountNumber:   fr.value("numeroDeCompte"),
		Category:        fr.value("paymentType"),
	}
	return d, fr.err
}

func contributionPatch(p *RequestBodyParser) (core.ContributionPatch, error) {
	fr := &fieldReader{p: p}
	patch := core.ContributionPatch{
		Date:            fr.field("date"),
		ContributorName: fr.field("personName"),
		Amount:          fr.field("amount"),
		AccountNumber:   fr.field("numeroDeCompte"),
		Category:        fr.field("paymentType"),
	}
	return patch, fr.err
}

// queryInt reads a non-negative integer query parameter, returning def
// when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.Validation(name, name+" must be a non-negative integer")
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	return b
}
