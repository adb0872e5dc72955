package domain

import "strconv"

// StatusKind buckets the outcome of a single link probe.
type StatusKind string

const (
	StatusOK             StatusKind = "ok"
	StatusNotFound       StatusKind = "not_found"
	StatusOther          StatusKind = "other"
	StatusTransportError StatusKind = "transport_error"
)

// Classification is the outcome of probing one URL.
// Code is the HTTP status code, zero for transport errors.
type Classification struct {
	Kind StatusKind `json:"kind"`
	Code int        `json:"code,omitempty"`
}

// Classify maps an HTTP status code to its Classification.
func Classify(code int) Classification {
	switch code {
	case 200:
		return Classification{Kind: StatusOK, Code: code}
	case 404:
		return Classification{Kind: StatusNotFound, Code: code}
	default:
		return Classification{Kind: StatusOther, Code: code}
	}
}

// TransportError is the single classification for every failure to get a
// response (timeout, DNS, refused connection, TLS, bad URL).
func TransportError() Classification {
	return Classification{Kind: StatusTransportError}
}

// Label renders the classification as stored in ResultRecord.Status.
func (c Classification) Label() string {
	switch c.Kind {
	case StatusOK:
		return "🟢 " + strconv.Itoa(c.Code)
	case StatusNotFound:
		return "🔴 " + strconv.Itoa(c.Code)
	case StatusTransportError:
		return "🟠 Error"
	default:
		return "🟠 " + strconv.Itoa(c.Code)
	}
}

// String implements fmt.Stringer.
func (c Classification) String() string {
	switch c.Kind {
	case StatusOK:
		return "Ok(" + strconv.Itoa(c.Code) + ")"
	case StatusNotFound:
		return "NotFound(" + strconv.Itoa(c.Code) + ")"
	case StatusTransportError:
		return "TransportError"
	default:
		return "Other(" + strconv.Itoa(c.Code) + ")"
	}
}
