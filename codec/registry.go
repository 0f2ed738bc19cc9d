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

// Package codec provides the default Serializer, BufferAllocator and type
// registry for catalyst.Connection: a msgpack encoding (github.com/shamaton/
// msgpack, already a dependency of the teacher this package is adapted
// from) plus a small reflect-based TypeRegistry substituting for the
// runtime Class the Java original used as its handler-registry key
// directly off the wire.
package codec

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/HackShare/catalyst"
)

// remoteErrorKey is reserved for *catalyst.RemoteError, the wire shape of
// every FAILURE response payload, so it never needs an explicit
// RegisterType call.
const remoteErrorKey catalyst.TypeKey = 0

// TypeRegistry maps Go types to small numeric TypeKeys and back, assigned in
// registration order. It must be populated identically (same types, same
// order) on both ends of a Connection using it, the same way handler
// registration itself has to agree on both sides.
type TypeRegistry struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]catalyst.TypeKey
	byKey    map[catalyst.TypeKey]reflect.Type
	nextFree catalyst.TypeKey
}

// NewTypeRegistry returns a registry with only *catalyst.RemoteError
// pre-registered.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{
		byType:   make(map[reflect.Type]catalyst.TypeKey),
		byKey:    make(map[catalyst.TypeKey]reflect.Type),
		nextFree: remoteErrorKey + 1,
	}
	t := reflect.TypeOf(catalyst.RemoteError{})
	r.byType[t] = remoteErrorKey
	r.byKey[remoteErrorKey] = t
	return r
}

// Register assigns the next free TypeKey to sample's type, or returns the
// key already assigned to it. It is safe for concurrent use, but keys
// depend on registration order, so both ends should register their types
// during setup, before the Connection is handed to a transport.
func (r *TypeRegistry) Register(sample interface{}) catalyst.TypeKey {
	t := underlyingType(sample)
	r.mu.Lock()
	defer r.mu.Unlock()
	if key, ok := r.byType[t]; ok {
		return key
	}
	key := r.nextFree
	r.nextFree++
	r.byType[t] = key
	r.byKey[key] = t
	return key
}

func (r *TypeRegistry) keyOf(v interface{}) (catalyst.TypeKey, error) {
	t := underlyingType(v)
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.byType[t]
	if !ok {
		return 0, fmt.Errorf("codec: type %s was never registered", t)
	}
	return key, nil
}

func (r *TypeRegistry) typeOf(key catalyst.TypeKey) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byKey[key]
	return t, ok
}

// underlyingType dereferences a pointer sample (conn.Handler registration
// typically passes &Foo{}) down to the value type the wire actually
// carries.
func underlyingType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
