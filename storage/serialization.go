// Copyright 2025 Poiesic Systems
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


package storage

import (
	"github.com/poiesic/recall/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalIndexRecord serializes an IndexRecord to bytes.
func MarshalIndexRecord(record *core.IndexRecord) []byte {
	buf := make([]byte, core.IndexRecordMUS.Size(*record))
	core.IndexRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalIndexRecord deserializes an IndexRecord from bytes.
func UnmarshalIndexRecord(data []byte) (*core.IndexRecord, error) {
	record, _, err := core.IndexRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalTurns serializes a thread's turn sequence to bytes.
func MarshalTurns(turns []core.Turn) []byte {
	buf := make([]byte, core.TurnsMUS.Size(turns))
	core.TurnsMUS.Marshal(turns, buf)
	return buf
}

// UnmarshalTurns deserializes a thread's turn sequence from bytes.
func UnmarshalTurns(data []byte) ([]core.Turn, error) {
	turns, _, err := core.TurnsMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return turns, nil
}
