// Copyright 2024-2026 The Disco Authors
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

// Package assert is a minimal generic assertion helper, so that tests
// depend on nothing beyond go-cmp and protocmp.
package assert

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
)

// Equal asserts that got and want are equal, comparing protobuf messages
// by their contents. Failures include a field-level diff.
func Equal[T any](t testing.TB, got, want T, options ...Option) bool {
	t.Helper()
	if equal(got, want) {
		return true
	}
	fail(t, "assert.Equal", options,
		"diff (-got +want):\n"+cmp.Diff(got, want, protocmp.Transform()))
	return false
}

// Nil asserts that got is nil, including a typed nil inside a non-nil
// interface.
func Nil(t testing.TB, got any, options ...Option) bool {
	t.Helper()
	if isNil(got) {
		return true
	}
	fail(t, "assert.Nil", options, fmt.Sprintf("got: %+v", got))
	return false
}

// NotNil asserts that got isn't nil.
func NotNil(t testing.TB, got any, options ...Option) bool {
	t.Helper()
	if !isNil(got) {
		return true
	}
	fail(t, "assert.NotNil", options, fmt.Sprintf("got: %+v", got))
	return false
}

// Zero asserts that got is its type's zero value.
func Zero[T any](t testing.TB, got T, options ...Option) bool {
	t.Helper()
	var want T
	if equal(got, want) {
		return true
	}
	fail(t, fmt.Sprintf("assert.Zero (type %T)", got), options,
		fmt.Sprintf("got: %+v", got))
	return false
}

// True asserts that got is true.
func True(t testing.TB, got bool, options ...Option) bool {
	t.Helper()
	if got {
		return true
	}
	fail(t, "assert.True", options)
	return false
}

// False asserts that got is false.
func False(t testing.TB, got bool, options ...Option) bool {
	t.Helper()
	if !got {
		return true
	}
	fail(t, "assert.False", options)
	return false
}

// Match asserts that got matches the regular expression want.
func Match(t testing.TB, got, want string, options ...Option) bool {
	t.Helper()
	matcher, err := regexp.Compile(want)
	if err != nil {
		t.Fatalf("invalid regexp %q: %v", want, err)
	}
	if matcher.MatchString(got) {
		return true
	}
	fail(t, "assert.Match", options,
		fmt.Sprintf("got:  %q", got),
		fmt.Sprintf("want: match for %q", want))
	return false
}

// ErrorIs asserts that want is in got's chain, as errors.Is does.
func ErrorIs(t testing.TB, got, want error, options ...Option) bool {
	t.Helper()
	if errors.Is(got, want) {
		return true
	}
	fail(t, "assert.ErrorIs", options,
		fmt.Sprintf("got:  %+v", got),
		fmt.Sprintf("want: %+v in chain", want))
	return false
}

// ErrorAs asserts that got's chain contains an error of type T and
// returns it, as errors.As does. On failure the returned value is T's
// zero value and the test stops.
func ErrorAs[T error](t testing.TB, got error, options ...Option) T {
	t.Helper()
	var target T
	if errors.As(got, &target) {
		return target
	}
	fail(t, fmt.Sprintf("assert.ErrorAs (target %T)", target), options,
		fmt.Sprintf("got: %+v", got))
	return target
}

// An Option configures an assertion.
type Option interface {
	message() string
}

// Sprintf attaches a formatted message to an assertion's failure output.
func Sprintf(template string, args ...any) Option {
	return sprintfOption(fmt.Sprintf(template, args...))
}

type sprintfOption string

func (o sprintfOption) message() string { return string(o) }

func fail(t testing.TB, description string, options []Option, lines ...string) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString(description)
	for _, line := range lines {
		sb.WriteByte('\n')
		sb.WriteString(line)
	}
	for _, option := range options {
		sb.WriteByte('\n')
		sb.WriteString(option.message())
	}
	t.Fatal(sb.String())
}

func equal(got, want any) bool {
	return cmp.Equal(got, want, protocmp.Transform())
}

// isNil answers for typed nils too: an interface holding a nil pointer
// compares non-nil with ==, but callers mean it to be nil here.
func isNil(got any) bool {
	if got == nil {
		return true
	}
	value := reflect.ValueOf(got)
	switch value.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return value.IsNil()
	default:
		return false
	}
}
