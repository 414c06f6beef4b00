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

package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

// T wraps testing.T with the assertions used across the k3sgen tests.
type T struct {
	*testing.T
}

type BadWriter struct{}

func (BadWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("bad write") }

// Run runs f as a subtest of t called name, with a *T as argument.
func Run(t *testing.T, name string, f func(t *T)) {
	t.Helper()
	if name == "" {
		name = t.Name()
	}
	t.Run(name, func(tt *testing.T) {
		tt.Helper()
		f(&T{T: tt})
	})
}

// Override sets dest to tmp for the duration of the test.
// dest must be a pointer to a variable and tmp must be assignable to it.
func (t *T) Override(dest, tmp interface{}) {
	t.Helper()
	dValue := reflect.ValueOf(dest)
	if dValue.Kind() != reflect.Ptr {
		t.Fatal("Override: dest must be a pointer")
	}
	tValue := reflect.ValueOf(tmp)
	if tmp == nil {
		tValue = reflect.Zero(dValue.Elem().Type())
	}
	if !tValue.Type().AssignableTo(dValue.Elem().Type()) {
		t.Fatalf("Override: cannot assign %s to %s", tValue.Type(), dValue.Elem().Type())
	}

	saved := reflect.New(dValue.Elem().Type()).Elem()
	saved.Set(dValue.Elem())
	dValue.Elem().Set(tValue)
	t.Cleanup(func() {
		dValue.Elem().Set(saved)
	})
}

// NewMemFs returns an in-memory filesystem populated with files, keyed by path.
func (t *T) NewMemFs(files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

// NewTempDir creates a temporary directory removed at the end of the test.
func (t *T) NewTempDir() string {
	t.Helper()
	return t.TempDir()
}

// SetEnvs sets environment variables, restoring the previous values after the test.
func (t *T) SetEnvs(envs map[string]string) {
	for key, value := range envs {
		t.Setenv(key, value)
	}
}

func (t *T) UnsetEnv(key string) {
	prevValue, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("cannot unset environment variable: %v", err)
	}
	t.Cleanup(func() {
		os.Setenv(key, prevValue)
	})
}

func (t *T) CheckDeepEqual(expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	CheckDeepEqual(t.T, expected, actual, opts...)
}

func (t *T) CheckErrorAndDeepEqual(shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	CheckErrorAndDeepEqual(t.T, shouldErr, err, expected, actual, opts...)
}

func (t *T) CheckError(shouldErr bool, err error) {
	t.Helper()
	CheckError(t.T, shouldErr, err)
}

func (t *T) CheckNoError(err error) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %s", err)
	}
}

func (t *T) RequireNoError(err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func (t *T) CheckErrorContains(message string, err error) {
	t.Helper()
	CheckErrorContains(t.T, message, err)
}

func (t *T) CheckErrorIs(target, err error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("expected error %v, got %v", target, err)
	}
}

func (t *T) CheckContains(expected, actual string) {
	t.Helper()
	if !strings.Contains(actual, expected) {
		t.Errorf("expected %q to contain %q", actual, expected)
	}
}

func (t *T) CheckNotContains(unexpected, actual string) {
	t.Helper()
	if strings.Contains(actual, unexpected) {
		t.Errorf("expected %q not to contain %q", actual, unexpected)
	}
}

func (t *T) CheckTrue(actual bool) {
	t.Helper()
	if !actual {
		t.Error("expected true, got false")
	}
}

func (t *T) CheckFalse(actual bool) {
	t.Helper()
	if actual {
		t.Error("expected false, got true")
	}
}

func (t *T) CheckEmpty(actual interface{}) {
	t.Helper()
	v := reflect.ValueOf(actual)
	if actual == nil {
		return
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		if v.Len() != 0 {
			t.Errorf("expected empty, got %v", actual)
		}
	default:
		if !v.IsZero() {
			t.Errorf("expected zero value, got %v", actual)
		}
	}
}

func (t *T) CheckElementsMatch(expected, actual interface{}) {
	t.Helper()
	assert.ElementsMatch(t.T, expected, actual)
}

func CheckDeepEqual(t *testing.T, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(actual, expected, opts...); diff != "" {
		t.Errorf("%T differ (-got, +want): %s", expected, diff)
	}
}

func CheckErrorAndDeepEqual(t *testing.T, shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
		return
	}
	if !shouldErr {
		CheckDeepEqual(t, expected, actual, opts...)
	}
}

func CheckError(t *testing.T, shouldErr bool, err error) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
	}
}

func CheckErrorContains(t *testing.T, message string, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected error containing %q, but returned none", message)
		return
	}
	if !strings.Contains(err.Error(), message) {
		t.Errorf("expected error containing %q, got %q", message, err.Error())
	}
}

func checkErr(shouldErr bool, err error) error {
	if err == nil && shouldErr {
		return errors.New("expected error, but returned none")
	}
	if err != nil && !shouldErr {
		return fmt.Errorf("unexpected error: %s", err)
	}
	return nil
}
