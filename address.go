// Copyright (C) 2016-2018  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

package catalyst

import (
	"fmt"
	"net"
	"strconv"
)

// Address is endpoint identity for a node participating in the cluster:
// a host name (or literal IP) plus a TCP port.
//
// Address is immutable once constructed.
type Address struct {
	Host string
	Port int
}

// NewAddress builds an Address from a host and a port.
func NewAddress(host string, port int) Address {
	return Address{Host: host, Port: port}
}

// ParseAddress parses a "host:port" string into an Address.
func ParseAddress(hostport string) (Address, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return Address{}, &ArgumentError{Arg: "hostport", Err: err}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, &ArgumentError{Arg: "hostport", Err: err}
	}
	return Address{Host: host, Port: port}, nil
}

// String formats the address as "host:port".
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// resolve returns the TCP socket address this Address names.
//
// Equality between two Address values is defined by their resolved socket
// address, not by their textual host (so "localhost:1234" and
// "127.0.0.1:1234" may compare equal on a machine where localhost resolves
// to 127.0.0.1).
func (a Address) resolve() (*net.TCPAddr, error) {
	return net.ResolveTCPAddr("tcp", a.String())
}

// Equal reports whether a and b denote the same resolved socket address.
func (a Address) Equal(b Address) bool {
	ra, erra := a.resolve()
	rb, errb := b.resolve()
	if erra != nil || errb != nil {
		return a.Host == b.Host && a.Port == b.Port
	}
	return ra.IP.Equal(rb.IP) && ra.Port == rb.Port && ra.Zone == rb.Zone
}

// GoString implements fmt.GoStringer for debugging output.
func (a Address) GoString() string {
	return fmt.Sprintf("catalyst.Address{Host: %q, Port: %d}", a.Host, a.Port)
}
