// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfg

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var byteSizeType = reflect.TypeOf(ByteSize(0))

// numberToByteSizeHookFunc lets config files give sizes as plain byte
// counts (chunk-size: 1048576) next to the "5MiB" form.
func numberToByteSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != byteSizeType {
			return data, nil
		}
		v := reflect.ValueOf(data)
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return ByteSize(v.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if v.Uint() > math.MaxInt64 {
				return nil, fmt.Errorf("byte size %d out of range", v.Uint())
			}
			return ByteSize(v.Uint()), nil
		case reflect.Float32, reflect.Float64:
			if v.Float() != math.Trunc(v.Float()) {
				return nil, fmt.Errorf("byte size %v is not a whole number", v.Float())
			}
			return ByteSize(v.Float()), nil
		}
		return data, nil
	}
}

// DecodeHook returns the hooks used to decode viper values into Config.
// Strings reach the typed fields through their UnmarshalText methods.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		numberToByteSizeHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}
