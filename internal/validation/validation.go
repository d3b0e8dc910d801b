package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/forecast-averages-service/internal/models"
)

// DateTimeLayout is the layout of ForecastEntry.DtTxt.
const DateTimeLayout = "2006-01-02 15:04:05"

// Violation names one offending field by its JSON path (e.g. list[3].dt_txt).
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when input does not conform to the forecast schema.
// Handlers map it to 422 VALIDATION_FAILED.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the offending field paths in report order.
func (e *Error) Fields() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Field)
	}
	return out
}

// NewError returns an Error with a single violation.
func NewError(field, message string) *Error {
	return &Error{Violations: []Violation{{Field: field, Message: message}}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Envelope checks the request wrapper only: body present, list present, list length within maxEntries.
func Envelope(req *models.AveragesRequest, maxEntries int) error {
	if req == nil {
		return NewError("body", "field required")
	}
	if req.List == nil {
		return NewError("list", "field required")
	}
	if maxEntries > 0 && len(req.List) > maxEntries {
		return NewError("list", "must contain at most "+strconv.Itoa(maxEntries)+" entries")
	}
	return nil
}

// Entries validates forecast entries outside of a request body. A nil slice is treated as empty.
func Entries(entries []models.ForecastEntry) error {
	if entries == nil {
		return nil
	}
	if err := validate.Struct(&models.AveragesRequest{List: entries}); err != nil {
		return fromValidatorError(err)
	}
	return nil
}

func fromValidatorError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	out := &Error{Violations: make([]Violation, 0, len(verrs))}
	for _, fe := range verrs {
		out.Violations = append(out.Violations, Violation{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "datetime":
		return "must match YYYY-MM-DD HH:MM:SS"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// DecodeRequest decodes a single JSON request body from r. Decoding failures
// and any data following the JSON value are returned as *Error against "body"
// or the offending field.
func DecodeRequest(r io.Reader) (*models.AveragesRequest, error) {
	dec := json.NewDecoder(r)
	var req models.AveragesRequest
	if err := dec.Decode(&req); err != nil {
		return nil, FromDecodeError(err)
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return &req, nil
	case err == nil:
		return nil, NewError("body", "unexpected data after JSON value")
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, FromDecodeError(err)
		}
		return nil, NewError("body", "unexpected data after JSON value")
	}
}

// FromDecodeError converts a JSON decoding failure into an Error naming the offending field.
// An *Error is returned as is. Unknown error types are reported against "body".
func FromDecodeError(err error) *Error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return NewError(field, "expected "+typeErr.Type.String()+", got "+typeErr.Value)
	case errors.As(err, &syntaxErr):
		return NewError("body", "malformed JSON at offset "+strconv.FormatInt(syntaxErr.Offset, 10))
	case errors.As(err, &maxErr):
		return NewError("body", "request body exceeds "+strconv.FormatInt(maxErr.Limit, 10)+" bytes")
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return NewError("body", "request body is empty or truncated")
	default:
		return NewError("body", err.Error())
	}
}
