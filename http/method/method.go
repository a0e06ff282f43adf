// Package method enumerates request methods, including the WebDAV and
// versioning set seen in real traffic. Unknown tokens stay parseable: traffic
// with an unrecognized method is characterized, never rejected.
package method

type Method uint8

const (
	Unknown Method = iota
	HEAD
	GET
	PUT
	POST
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
	PROPFIND
	PROPPATCH
	MKCOL
	COPY
	MOVE
	LOCK
	UNLOCK
	VERSION_CONTROL
	CHECKOUT
	UNCHECKIN
	CHECKIN
	UPDATE
	LABEL
	REPORT
	MKWORKSPACE
	MKACTIVITY
	BASELINE_CONTROL
	MERGE

	// Invalid marks a method token that contains non-token bytes, as opposed
	// to a well-formed token we simply do not recognize.
	Invalid
)

var names = [...]string{
	Unknown:          "UNKNOWN",
	HEAD:             "HEAD",
	GET:              "GET",
	PUT:              "PUT",
	POST:             "POST",
	DELETE:           "DELETE",
	CONNECT:          "CONNECT",
	OPTIONS:          "OPTIONS",
	TRACE:            "TRACE",
	PATCH:            "PATCH",
	PROPFIND:         "PROPFIND",
	PROPPATCH:        "PROPPATCH",
	MKCOL:            "MKCOL",
	COPY:             "COPY",
	MOVE:             "MOVE",
	LOCK:             "LOCK",
	UNLOCK:           "UNLOCK",
	VERSION_CONTROL:  "VERSION-CONTROL",
	CHECKOUT:         "CHECKOUT",
	UNCHECKIN:        "UNCHECKIN",
	CHECKIN:          "CHECKIN",
	UPDATE:           "UPDATE",
	LABEL:            "LABEL",
	REPORT:           "REPORT",
	MKWORKSPACE:      "MKWORKSPACE",
	MKACTIVITY:       "MKACTIVITY",
	BASELINE_CONTROL: "BASELINE-CONTROL",
	MERGE:            "MERGE",
	Invalid:          "INVALID",
}

// List contains every recognized method, sorted by enum value. Unknown and
// Invalid are not included.
var List = []Method{
	HEAD, GET, PUT, POST, DELETE, CONNECT, OPTIONS, TRACE, PATCH,
	PROPFIND, PROPPATCH, MKCOL, COPY, MOVE, LOCK, UNLOCK,
	VERSION_CONTROL, CHECKOUT, UNCHECKIN, CHECKIN, UPDATE, LABEL,
	REPORT, MKWORKSPACE, MKACTIVITY, BASELINE_CONTROL, MERGE,
}

func (m Method) String() string {
	if int(m) >= len(names) {
		return names[Unknown]
	}

	return names[m]
}

// Parse maps a method token to its enum value. The token must already be
// upper-case exact; method names are case-sensitive on the wire.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		switch str {
		case "GET":
			return GET
		case "PUT":
			return PUT
		}
	case 4:
		switch str {
		case "POST":
			return POST
		case "HEAD":
			return HEAD
		case "COPY":
			return COPY
		case "MOVE":
			return MOVE
		case "LOCK":
			return LOCK
		}
	case 5:
		switch str {
		case "PATCH":
			return PATCH
		case "TRACE":
			return TRACE
		case "MKCOL":
			return MKCOL
		case "MERGE":
			return MERGE
		case "LABEL":
			return LABEL
		}
	case 6:
		switch str {
		case "DELETE":
			return DELETE
		case "UNLOCK":
			return UNLOCK
		case "REPORT":
			return REPORT
		case "UPDATE":
			return UPDATE
		}
	case 7:
		switch str {
		case "CONNECT":
			return CONNECT
		case "OPTIONS":
			return OPTIONS
		case "CHECKIN":
			return CHECKIN
		}
	case 8:
		switch str {
		case "PROPFIND":
			return PROPFIND
		case "CHECKOUT":
			return CHECKOUT
		}
	case 9:
		switch str {
		case "PROPPATCH":
			return PROPPATCH
		case "UNCHECKIN":
			return UNCHECKIN
		}
	case 10:
		if str == "MKACTIVITY" {
			return MKACTIVITY
		}
	case 11:
		if str == "MKWORKSPACE" {
			return MKWORKSPACE
		}
	case 15:
		if str == "VERSION-CONTROL" {
			return VERSION_CONTROL
		}
	case 16:
		if str == "BASELINE-CONTROL" {
			return BASELINE_CONTROL
		}
	}

	return Unknown
}
