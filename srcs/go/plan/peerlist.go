package plan

import (
	"strings"
)

type EndpointList []Endpoint

func (l EndpointList) String() string {
	var parts []string
	for _, e := range l {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ",")
}

func (l EndpointList) Rank(e Endpoint) (int, bool) {
	for i, f := range l {
		if f == e {
			return i, true
		}
	}
	return -1, false
}

func (l EndpointList) Hosts() []string {
	var hosts []string
	for _, e := range l {
		hosts = append(hosts, e.Host)
	}
	return hosts
}

func (l EndpointList) Eq(m EndpointList) bool {
	if len(l) != len(m) {
		return false
	}
	for i, e := range l {
		if e != m[i] {
			return false
		}
	}
	return true
}

func (l EndpointList) Clone() EndpointList {
	if l == nil {
		return nil
	}
	m := make(EndpointList, len(l))
	copy(m, l)
	return m
}
