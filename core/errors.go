// Copyright 2025 Seampoint Labs
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
	// ErrInvalidKnowledgeItem indicates a KnowledgeItem failed validation.
	ErrInvalidKnowledgeItem = errors.New("invalid knowledge item")

	// ErrInvalidSession indicates a Session failed validation.
	ErrInvalidSession = errors.New("invalid session")

	// ErrEmptyBody indicates the Body field is empty.
	ErrEmptyBody = errors.New("body cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidSourceType indicates an invalid SourceType value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidRole indicates an invalid Role value on a conversation turn.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptySessionId indicates the session Id field is empty.
	ErrEmptySessionId = errors.New("session id cannot be empty")

	// ErrDimensionMismatch indicates a vector's dimension disagrees with
	// the dimension already established for its collection.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptLength indicates a serialized collection carries a length
	// prefix that cannot fit in the remaining bytes.
	ErrCorruptLength = errors.New("corrupt length prefix")
)
