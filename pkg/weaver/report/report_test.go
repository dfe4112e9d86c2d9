/*
Copyright 2025 The Analytics Weaver Authors.

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

package report

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := TransformError{
		ClassName: "com.x.Main",
		Type:      Transformation,
		Message:   "bad descriptor",
		Cause:     errors.New("boom"),
	}
	assert.Equal(t, "[Transformation] com.x.Main: bad descriptor: boom", e.Error())

	e.Cause = nil
	assert.Equal(t, "[Transformation] com.x.Main: bad descriptor", e.Error())
}

func TestReporterCollects(t *testing.T) {
	r := NewReporter()
	assert.Zero(t, r.Len())
	assert.NoError(t, r.Aggregate())

	r.Report(TransformError{ClassName: "a", Type: BytecodeRead, Message: "m"})
	r.Report(TransformError{ClassName: "b", Type: BytecodeRead, Message: "m"})
	r.Report(TransformError{ClassName: "c", Type: Validation, Message: "m"})

	assert.Equal(t, 3, r.Len())
	snapshot := r.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].ClassName)

	counts := r.CountByType()
	assert.Equal(t, 2, counts[BytecodeRead])
	assert.Equal(t, 1, counts[Validation])
	assert.Error(t, r.Aggregate())
}

func TestReporterConcurrentAppends(t *testing.T) {
	r := NewReporter()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Report(TransformError{
					ClassName: fmt.Sprintf("com.x.C%d_%d", n, j),
					Type:      Transformation,
					Message:   "m",
				})
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16*50, r.Len())
}
