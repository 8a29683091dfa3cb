package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON field names instead of Go struct names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var response interface{}

	// If payload is already a map with a "success" key, use it directly (custom format)
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		response = payload
	} else if status >= 200 && status < 300 {
		response = JSONResponse{Success: true, Data: payload}
	} else {
		response = JSONError{Success: false, Message: "Unknown error"}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("ERROR: [Gateway] writing JSON response: %v", err)
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, JSONError{Success: false, Message: message}, status)
}

func writeError(w http.ResponseWriter, body JSONError, status int) {
	log.Printf("WARN: [Gateway] HTTP %d: %s", status, body.Message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("ERROR: [Gateway] writing JSON error response: %v", err)
	}
}

// HandleGRPCError translates gRPC status errors to HTTP responses
func HandleGRPCError(w http.ResponseWriter, err error) {
	st, ok := status.FromError(err)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Internal server error: Non-gRPC error occurred")
		return
	}

	switch st.Code() {
	case codes.InvalidArgument:
		WriteJSONError(w, http.StatusBadRequest, st.Message())
	case codes.NotFound:
		WriteJSONError(w, http.StatusNotFound, st.Message())
	case codes.FailedPrecondition:
		// Incomplete attendance or marks; the client may complete them and retry
		WriteJSONError(w, http.StatusConflict, st.Message())
	case codes.AlreadyExists:
		WriteJSONError(w, http.StatusConflict, st.Message())
	case codes.Unavailable:
		WriteJSONError(w, http.StatusServiceUnavailable, "Service Unavailable: The records service is unreachable.")
	case codes.DeadlineExceeded:
		WriteJSONError(w, http.StatusGatewayTimeout, "Service Timeout: The records service took too long to respond.")
	default:
		// Store failures land here with their message unchanged
		WriteJSONError(w, http.StatusInternalServerError, st.Message())
	}
}

// DecodeJSON reads a JSON body into dst and validates it against its
// `validate` tags. An empty body is accepted when optional is true.
func DecodeJSON(r *http.Request, dst interface{}, optional bool) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return fmt.Errorf("invalid request body: %w", err)
		}
	}
	return validate.Struct(dst)
}

// WriteDecodeError reports a DecodeJSON failure as 400, listing each
// failing field when the body did not validate.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describeTag(fe)
	}
	writeError(w, JSONError{Success: false, Message: "Request validation failed", Fields: fields}, http.StatusBadRequest)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed the " + fe.Tag() + " check"
	}
}
