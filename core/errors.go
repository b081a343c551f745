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


package core

import "errors"

// Domain validation errors
var (
	// ErrEmptyContent indicates a document or chunk has no content.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidFileType indicates a FileType value outside the known variants.
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrInvalidRole indicates a Role value outside the known variants.
	ErrInvalidRole = errors.New("invalid role")

	// ErrMissingContentHash indicates a chunk reached the index without a
	// content hash. Every stored chunk must carry one.
	ErrMissingContentHash = errors.New("chunk is missing a content hash")

	// ErrEmptySource indicates document metadata has no source.
	ErrEmptySource = errors.New("source cannot be empty")
)
