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

package weaver

// Decision is the outcome of the lifecycle instrumentation strategy for one
// method.
type Decision struct {
	Instrument bool
	Reason     string
}

// DecideLifecycle returns whether the given method is a lifecycle
// instrumentation target for a class of the given type.
func DecideLifecycle(t ClassType, name, desc string) Decision {
	switch t {
	case ClassActivity:
		if name == ActivityOnCreateName && desc == ActivityOnCreateDesc {
			return Decision{Instrument: true, Reason: "Activity.onCreate"}
		}
	case ClassFragment:
		if name == FragmentOnViewCreatedName && desc == FragmentOnViewCreatedDesc {
			return Decision{Instrument: true, Reason: "Fragment.onViewCreated"}
		}
	}
	return Decision{}
}
