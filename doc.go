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

// Package catalyst provides the transport and wire-RPC core of a
// cluster-communication library: a duplex message-passing layer that lets
// peers exchange typed request/response messages over a framed byte stream,
// with id-based correlation, per-request timeouts, and typed handler
// dispatch.
//
// Two interchangeable backends are provided behind the same Connection
// contract: package tcp (length-framed TCP) and package local (in-process,
// registry-mediated handoff). Both are built on top of the Connection engine
// in this package, which owns framing-independent concerns: request/response
// correlation, timeout reaping, handler registry, and the contextual
// scheduling contract under which every callback runs on the Context that
// registered it.
//
// Serialization (Serializer), buffer pooling (BufferAllocator) and
// single-threaded scheduling (Context) are consumed as interfaces; see
// package codec for default implementations.
package catalyst
