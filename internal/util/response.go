package util

type Envelope map[string]any

// Error builds the standard error payload: a stable machine code plus a
// human-readable message.
func Error(code, message string) Envelope {
	return Envelope{"code": code, "message": message}
}

// ValidationError reports request-level validation failures.
func ValidationError(messages ...string) Envelope {
	return Envelope{
		"code":    "validation_error",
		"message": firstOr(messages, "Validation Error"),
		"errors":  messages,
	}
}

// FieldError reports validation failures attached to a single field, e.g. a
// duplicate email address.
func FieldError(field string, messages ...string) Envelope {
	return Envelope{
		"code":    "validation_error",
		"message": firstOr(messages, "Validation Error"),
		"properties": Envelope{
			field: Envelope{"errors": messages},
		},
	}
}

func firstOr(messages []string, fallback string) string {
	if len(messages) > 0 {
		return messages[0]
	}
	return fallback
}
