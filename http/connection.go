package http

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wireparse/wireparse/http/flags"
	"github.com/wireparse/wireparse/http/status"
	"github.com/wireparse/wireparse/journal"
)

// Endpoint identifies one side of a connection as reported by the capture
// layer. The IP stays a string: endpoints are correlation labels here, not
// routable addresses.
type Endpoint struct {
	IP   string
	Port int
}

func (e Endpoint) String() string {
	return e.IP + ":" + strconv.Itoa(e.Port)
}

// Connection is the bidirectional stream every transaction belongs to.
// Fields are maintained by the parser feeding it; embedding applications
// read them between feed calls.
type Connection struct {
	// ID correlates journal entries, reports and transactions of one
	// observed connection.
	ID     uuid.UUID
	Client Endpoint
	Server Endpoint

	OpenedAt time.Time
	ClosedAt time.Time

	// RequestState and ResponseState are the current per-direction stream
	// states, mirroring what the last feed of that direction returned.
	RequestState  status.Status
	ResponseState status.Status

	// RequestBytes and ResponseBytes count raw wire bytes fed per
	// direction, headers and framing included.
	RequestBytes  int64
	ResponseBytes int64

	// Flags holds connection-level observations (flags.Pipelined,
	// flags.HTTP09Extra), separate from per-transaction anomaly words.
	Flags flags.Flags

	// Transactions is append-only, in request arrival order. The slice
	// grows as request lines are recognized; entries complete out of step
	// with their creation when responses lag behind.
	Transactions []*Transaction

	Journal *journal.Journal
}

func NewConnection(j *journal.Journal) *Connection {
	return &Connection{
		ID:      uuid.New(),
		Journal: j,
	}
}
