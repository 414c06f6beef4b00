/*
Copyright 2026 The k3sgen Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// StatusCode classifies an error for reporting.
type StatusCode string

const (
	ConfigFileNotFound  = StatusCode("CONFIG_FILE_NOT_FOUND")
	ConfigFileParsing   = StatusCode("CONFIG_FILE_PARSING")
	ConfigVersion       = StatusCode("CONFIG_UNSUPPORTED_VERSION")
	ConfigValidation    = StatusCode("CONFIG_SCHEMA_VALIDATION")
	ConfigEntryNotFound = StatusCode("CONFIG_ENTRY_NOT_FOUND")
	ComposeParsing      = StatusCode("COMPOSE_PARSING")
	Generation          = StatusCode("GENERATION")
	ManifestWrite       = StatusCode("MANIFEST_WRITE")
	Unknown             = StatusCode("UNKNOWN")
)

// Suggestion is an action the user can take to fix the error.
type Suggestion struct {
	Action string
}

// ActionableErr describes an error together with ways out of it.
type ActionableErr struct {
	Message     string
	ErrCode     StatusCode
	Suggestions []Suggestion
}

// Error is an error carrying an ActionableErr.
type Error struct {
	ae  ActionableErr
	err error
}

func (e *Error) Error() string {
	msg := e.ae.Message
	if msg == "" && e.err != nil {
		msg = e.err.Error()
	}
	if len(e.ae.Suggestions) == 0 {
		return msg
	}
	actions := make([]string, len(e.ae.Suggestions))
	for i, s := range e.ae.Suggestions {
		actions[i] = s.Action
	}
	return fmt.Sprintf("%s. %s", msg, strings.Join(actions, ". "))
}

func (e *Error) Unwrap() error { return e.err }

// StatusCode returns the classification of the error.
func (e *Error) StatusCode() StatusCode { return e.ae.ErrCode }

// ActionableErr returns the structured description of the error.
func (e *Error) ActionableErr() ActionableErr { return e.ae }

// NewError wraps err with an actionable description.
func NewError(err error, ae ActionableErr) error {
	return &Error{ae: ae, err: err}
}

// ErrorCode returns the StatusCode of err, or Unknown when err is not actionable.
func ErrorCode(err error) StatusCode {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return Unknown
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
