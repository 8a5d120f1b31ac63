package client

// Outcome is the result of looking up one serial. It is a success when Err is
// nil; Attributes is only meaningful on success. Err is a *HTTPError or a
// *TransportError otherwise.
type Outcome struct {
	Serial     string
	Attributes AttributeMap
	Err        error

	// StatusCode is the HTTP status received, 0 when no response arrived.
	StatusCode int

	// Cached reports that the body came from the response cache.
	Cached bool
}

// OK reports whether the lookup succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Success builds a successful outcome.
func Success(serial string, attrs AttributeMap) Outcome {
	return Outcome{Serial: serial, Attributes: attrs, StatusCode: 200}
}

// Failure builds a failed outcome.
func Failure(serial string, err error) Outcome {
	out := Outcome{Serial: serial, Err: err}
	if httpErr, ok := err.(*HTTPError); ok {
		out.StatusCode = httpErr.StatusCode
	}
	return out
}
