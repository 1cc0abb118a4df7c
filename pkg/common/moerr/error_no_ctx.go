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

package moerr

import (
	"context"
	"fmt"
)

var ctxForNoCtx = context.Background()

// Context returns the context used by the NoCtx constructors.
func Context() context.Context {
	return ctxForNoCtx
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(Context(), msg, args...)
}

func NewNotSupportedNoCtx(msg string, args ...any) *Error {
	return NewNotSupported(Context(), msg, args...)
}

func NewOOMNoCtx() *Error {
	return NewOOM(Context())
}

func NewOutOfRangeNoCtx(typ string, msg string, args ...any) *Error {
	return NewOutOfRange(Context(), typ, msg, args...)
}

func NewInvalidArgNoCtx(arg string, val any) *Error {
	return NewInvalidArg(Context(), arg, val)
}

func NewTypeMismatchNoCtx(msg string, args ...any) *Error {
	return NewTypeMismatch(Context(), msg, args...)
}

func NewBadConfigNoCtx(msg string, args ...any) *Error {
	return NewBadConfig(Context(), msg, args...)
}

func NewInvalidInputNoCtx(msg string, args ...any) *Error {
	return NewInvalidInput(Context(), msg, args...)
}

func NewParseErrorNoCtx(msg string, args ...any) *Error {
	return NewParseError(Context(), msg, args...)
}

func NewInvalidStateNoCtx(msg string, args ...any) *Error {
	return NewInvalidState(Context(), msg, args...)
}

func NewEmptyVectorNoCtx() *Error {
	return NewEmptyVector(Context())
}

func NewSizeNotMatchNoCtx(f string) *Error {
	return NewSizeNotMatch(Context(), f)
}

func NewShortBufferNoCtx(f string, args ...any) *Error {
	return NewShortBuffer(Context(), fmt.Sprintf(f, args...))
}

func NewErrUnsupportedDataTypeNoCtx(typ any) *Error {
	return NewErrUnsupportedDataType(Context(), typ)
}
