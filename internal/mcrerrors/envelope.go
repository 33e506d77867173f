package mcrerrors

// Envelope is the shape every public MCR Service operation returns.
// Domain-specific result fields (addedFacts, answer, explanation, ...) ride
// alongside it in the concrete result structs each operation defines; the
// envelope itself only carries the success/failure contract.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   Code   `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Ok builds a successful envelope with an optional human-readable message.
func Ok(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// Fail builds a failed envelope from a typed *Error, falling back to
// InternalError for an untyped err.
func Fail(err error) Envelope {
	if err == nil {
		return Envelope{Success: false, Error: InternalError, Message: "unknown error"}
	}
	if me, ok := err.(*Error); ok {
		return Envelope{
			Success: false,
			Error:   me.Code,
			Message: me.Message,
			Details: me.Details,
		}
	}
	return Envelope{Success: false, Error: InternalError, Message: err.Error()}
}
