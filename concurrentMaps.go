/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package cloudforensics

import (
	"sync"

	"github.com/qri-io/jsonschema"
)

// typeMap tracks the flattened fields of every element type.
type typeMap struct {
	sync.RWMutex
	changed bool
	types   map[string]map[string]bool
}

func newTypeMap() *typeMap {
	return &typeMap{
		changed: false,
		types:   map[string]map[string]bool{},
	}
}

func (rm *typeMap) all() map[string]map[string]bool {
	rm.RLock()
	defer rm.RUnlock()

	types := make(map[string]map[string]bool, len(rm.types))
	for name, fields := range rm.types {
		types[name] = make(map[string]bool, len(fields))
		for field := range fields {
			types[name][field] = true
		}
	}
	return types
}

func (rm *typeMap) add(name, field string) {
	rm.Lock()
	if _, ok := rm.types[name]; !ok {
		rm.types[name] = map[string]bool{}
	}
	if _, ok := rm.types[name][field]; !ok {
		rm.types[name][field] = true
		rm.changed = true
	}

	rm.Unlock()
}

func (rm *typeMap) addAll(name string, fields []string) {
	rm.Lock()
	if _, ok := rm.types[name]; !ok {
		rm.types[name] = map[string]bool{}
	}
	for _, field := range fields {
		if _, ok := rm.types[name][field]; !ok {
			rm.types[name][field] = true
			rm.changed = true
		}
	}
	rm.Unlock()
}

// schemaMap holds the json schema of each known element type.
type schemaMap struct {
	sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

func newSchemaMap() *schemaMap {
	return &schemaMap{schemas: map[string]*jsonschema.Schema{}}
}

func (sm *schemaMap) get(elementType string) (*jsonschema.Schema, bool) {
	sm.RLock()
	defer sm.RUnlock()
	schema, ok := sm.schemas[elementType]
	return schema, ok
}

func (sm *schemaMap) set(elementType string, schema *jsonschema.Schema) {
	sm.Lock()
	sm.schemas[elementType] = schema
	sm.Unlock()
}

func (sm *schemaMap) types() []string {
	sm.RLock()
	defer sm.RUnlock()
	var types []string
	for elementType := range sm.schemas {
		types = append(types, elementType)
	}
	return types
}
