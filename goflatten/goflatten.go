// Copyright (c) 2019 Nguyễn Quốc Đính
// Copyright (c) 2019 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Nguyễn Quốc Đính, Jonas Plum
//
// This code was adapted from
// https://github.com/nqd/flat/blob/master/flat.go

// Package goflatten flattens nested json documents into a map one level
// deep, e.g. {"resource": {"type": "gce_instance"}} becomes
// {"resource.type": "gce_instance"}.
package goflatten

import (
	"fmt"
	"reflect"
	"sort"
)

// Flatten the map, it returns a map one level deep regardless of how nested
// the original map was. Keys are joined with ".". Lists are leaves and keep
// their value, so a list is a single field no matter how long it is.
func Flatten(nested map[string]interface{}) (flatmap map[string]interface{}, err error) {
	return flatten("", nested)
}

// Fields returns the sorted keys of the flattened map.
func Fields(nested map[string]interface{}) ([]string, error) {
	flatmap, err := Flatten(nested)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(flatmap))
	for field := range flatmap {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields, nil
}

func flatten(prefix string, nested interface{}) (flatmap map[string]interface{}, err error) {
	flatmap = make(map[string]interface{})

	if nested == nil {
		return flatmap, nil
	}

	value := reflect.ValueOf(nested)
	switch value.Type().Kind() {
	case reflect.Map:
		for _, k := range value.MapKeys() {
			newKey := fmt.Sprint(k.Interface())
			if newKey == "" {
				return nil, fmt.Errorf("empty key below %q", prefix)
			}
			if prefix != "" {
				newKey = prefix + "." + newKey
			}
			fm1, fe := flatten(newKey, value.MapIndex(k).Interface())
			if fe != nil {
				return nil, fe
			}
			update(flatmap, fm1)
		}
	case reflect.Slice, reflect.Array:
		if value.Len() > 0 {
			flatmap[prefix] = nested
		}
	default:
		flatmap[prefix] = nested
	}
	return flatmap, nil
}

// update copies all entries of from into to.
func update(to map[string]interface{}, from map[string]interface{}) {
	for kt, vt := range from {
		to[kt] = vt
	}
}
