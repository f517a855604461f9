package plan

import (
	"encoding/json"
	"net"
	"strconv"

	"github.com/pkg/errors"
)

// Endpoint is the network address of a worker slot
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

func (e Endpoint) WithPort(port uint16) Endpoint {
	return Endpoint{Host: e.Host, Port: port}
}

var (
	errInvalidEndpoint = errors.New("invalid endpoint")
	errInvalidPort     = errors.New("invalid port")
)

func ParseEndpoint(val string) (*Endpoint, error) {
	host, p, err := net.SplitHostPort(val)
	if err != nil {
		return nil, errors.Wrapf(errInvalidEndpoint, "%q", val)
	}
	if len(host) == 0 {
		return nil, errors.Wrapf(errInvalidEndpoint, "%q has no host", val)
	}
	port, err := strconv.Atoi(p)
	if err != nil || int(uint16(port)) != port {
		return nil, errors.Wrapf(errInvalidPort, "%q", val)
	}
	return &Endpoint{
		Host: host,
		Port: uint16(port),
	}, nil
}

func MustParseEndpoint(val string) Endpoint {
	e, err := ParseEndpoint(val)
	if err != nil {
		panic(err)
	}
	return *e
}

// MarshalJSON encodes the endpoint as "host:port"
func (e Endpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

func (e *Endpoint) UnmarshalJSON(bs []byte) error {
	var s string
	if err := json.Unmarshal(bs, &s); err != nil {
		return err
	}
	id, err := ParseEndpoint(s)
	if err != nil {
		return err
	}
	*e = *id
	return nil
}
