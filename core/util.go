/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
)

// alphabet is used by Gensym.
var alphabet = []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Gensym makes a random string of the given length.
func Gensym(n int) string {
	bs := make([]byte, n)
	for i := 0; i < len(bs); i++ {
		bs[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(bs)
}

// Canonicalize returns a deep copy of x made of plain JSON values:
// maps, slices, strings, float64s, bools, and nil.  Values that
// can't be marshaled to JSON produce an error.
func Canonicalize(x interface{}) (interface{}, error) {
	var err error

	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}

	return y, nil
}

// Equal is the value equality that forEach uses to match elements
// across builds.
//
// Values that have been through JSON (and so lost their Go types)
// are compared by their JSON representations.
func Equal(x, y interface{}) bool {
	if reflect.DeepEqual(x, y) {
		return true
	}
	// encoding/json sorts map keys, so this comparison is stable.
	xjs, err := json.Marshal(x)
	if err != nil {
		return false
	}
	yjs, err := json.Marshal(y)
	if err != nil {
		return false
	}
	return bytes.Equal(xjs, yjs)
}

// Serializable reports whether x can be persisted.
func Serializable(x interface{}) bool {
	_, err := json.Marshal(x)
	return err == nil
}

// Stringify renders x as a string for a component attribute.
func Stringify(x interface{}) string {
	switch vv := x.(type) {
	case nil:
		return ""
	case string:
		return vv
	case fmt.Stringer:
		return vv.String()
	case error:
		return vv.Error()
	}
	js, err := json.Marshal(x)
	if err != nil {
		return fmt.Sprintf("%v", x)
	}
	return string(js)
}
