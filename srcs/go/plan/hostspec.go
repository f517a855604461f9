package plan

import (
	"fmt"

	"github.com/pkg/errors"
)

// DefaultBasePort is the first port assigned to local devices
const DefaultBasePort = 20001

// PortRange is the contiguous block of ports handed out to the devices of one host
type PortRange struct {
	Begin uint16
	End   uint16
}

var errNoEnoughPorts = errors.New("no enough ports")

// GenPortRange reserves n sequential ports starting from base
func GenPortRange(base int, n int) (*PortRange, error) {
	if n < 1 {
		return nil, errors.Wrapf(errNoEnoughPorts, "%d devices", n)
	}
	if base < 1 || base+n-1 > 65535 {
		return nil, errors.Wrapf(errNoEnoughPorts, "base port %d for %d devices", base, n)
	}
	return &PortRange{Begin: uint16(base), End: uint16(base + n - 1)}, nil
}

func (pr PortRange) Cap() int {
	return int(pr.End) - int(pr.Begin) + 1
}

func (pr PortRange) Get(i int) uint16 {
	return pr.Begin + uint16(i)
}

func (pr PortRange) String() string {
	return fmt.Sprintf("%d-%d", pr.Begin, pr.End)
}

// GenEndpoints places one endpoint per port on each host, grouped by host in host order
func GenEndpoints(hosts []string, pr PortRange) EndpointList {
	var l EndpointList
	for _, h := range hosts {
		for j := 0; j < pr.Cap(); j++ {
			l = append(l, Endpoint{Host: h, Port: pr.Get(j)})
		}
	}
	return l
}
