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

package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var ContextKey = contextKey{}

// EventContext names the tool and configuration entry a log line belongs to.
type EventContext struct {
	Tool  string
	Entry string
}

// WithEventContext returns a copy of ctx carrying the given tool and entry names.
func WithEventContext(ctx context.Context, tool, entry string) context.Context {
	return context.WithValue(ctx, ContextKey, EventContext{Tool: tool, Entry: entry})
}

// Entry takes an context.Context and constructs a logrus.Entry from it, adding
// fields for tool and entry information
func Entry(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if eventContext, ok := ctx.Value(ContextKey).(EventContext); ok {
			return logrus.WithFields(logrus.Fields{
				"tool":  eventContext.Tool,
				"entry": eventContext.Entry,
			})
		}
	}

	return logrus.WithFields(logrus.Fields{
		"tool":  "k3sgen",
		"entry": "none",
	})
}
