package status

// Code is a response status code as parsed off the wire. Only classification
// matters to the dissector, so unknown and out-of-range codes stay
// representable; individual codes the framing logic cares about (100, 101,
// 407) are compared numerically where they are handled.
type Code uint16

// Interim reports a 1xx provisional response.
func (c Code) Interim() bool {
	return c >= 100 && c <= 199
}

// Success reports a 2xx response, the class that establishes CONNECT tunnels.
func (c Code) Success() bool {
	return c >= 200 && c <= 299
}

// Bodyless reports codes that never carry a message body regardless of
// framing headers.
func (c Code) Bodyless() bool {
	return c.Interim() || c == 204 || c == 304
}
