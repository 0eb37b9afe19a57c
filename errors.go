/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package bitfix

import (
	"errors"
	"fmt"
)

var (
	ErrAttachment          = errors.New("cannot read process image")
	ErrMalformedDefinition = errors.New("malformed patch definition")
	ErrInvalidPattern      = errors.New("invalid pattern")
	ErrOutOfBounds         = errors.New("out of bounds")
	ErrCallback            = errors.New("patch callback failed")
	ErrLeaseRevoked        = errors.New("match context used after its callback returned")
	ErrByteRange           = errors.New("value does not fit in a byte")
)

type AttachError struct {
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAttachment, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

func (e *AttachError) Is(target error) bool { return target == ErrAttachment }

// DefinitionError carries the source file and label a catalog failure belongs to.
// Label is empty when the whole source failed to evaluate.
type DefinitionError struct {
	Source string
	Label  string
	Err    error
}

func (e *DefinitionError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("in %q: %s", e.Source, e.Err)
	}
	return fmt.Sprintf("in %q/%q: %s", e.Source, e.Label, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }

type PatternError struct {
	Pattern string
	Token   string
}

func (e *PatternError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s %q: no tokens", ErrInvalidPattern, e.Pattern)
	}
	return fmt.Sprintf("%s %q: bad token %q", ErrInvalidPattern, e.Pattern, e.Token)
}

func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }

type OutOfBoundsError struct {
	Address uintptr
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: %X is not mapped", ErrOutOfBounds, e.Address)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

type CallbackError struct {
	Source  string
	Label   string
	Address uintptr
	Err     error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("patcher %s/%s on %X: %s", e.Source, e.Label, e.Address, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

func (e *CallbackError) Is(target error) bool { return target == ErrCallback }

type ProtectError struct {
	Address uintptr
	Err     error
}

func (e *ProtectError) Error() string {
	return fmt.Sprintf("cannot change protection at %X: %s", e.Address, e.Err)
}

func (e *ProtectError) Unwrap() error { return e.Err }

// vim: ai:ts=8:sw=8:noet:syntax=go
