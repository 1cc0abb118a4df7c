// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

// Dynamically typed values use these Go shapes:
//
//	BOOLEAN bool, TINYINT int8, SMALLINT int16, INTEGER int32, BIGINT int64,
//	REAL float32, DOUBLE float64, TIMESTAMP Timestamp, VARCHAR string,
//	VARBINARY []byte, ARRAY []any, MAP []MapEntry, ROW []any.
//
// A nil any is a null value.

// MapEntry is one key/value pair of a map value. Keys are never null.
type MapEntry struct {
	Key   any
	Value any
}
