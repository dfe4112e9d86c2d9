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

import "k8s.io/apimachinery/pkg/util/sets"

// Annotation descriptors as they appear in class files. These must match the
// annotation library shipped with the runtime.
const (
	TrackScreenDesc = "Lcom/shalan/analytics/annotation/TrackScreen;"
	TrackableDesc   = "Lcom/shalan/analytics/annotation/Trackable;"
	TrackDesc       = "Lcom/shalan/analytics/annotation/Track;"
	ParamDesc       = "Lcom/shalan/analytics/annotation/Param;"
)

// Runtime facade targets. The emitted call sites must stay bit-compatible
// with the runtime library.
const (
	ScreenHelperOwner  = "com/shalan/analytics/core/TrackScreenHelper"
	ScreenHelperMethod = "trackScreen"
	ScreenHelperDesc   = "(Ljava/lang/Object;Ljava/lang/String;Ljava/lang/String;)V"

	TrackManagerOwner  = "com/shalan/analytics/core/MethodTrackingManager"
	TrackManagerMethod = "track"
	TrackManagerDesc   = "(Ljava/lang/String;Ljava/util/Map;Z)V"
)

// The synthesized screen-tracking helper.
const (
	HelperMethodName = "__injectAnalyticsTracking"
	HelperMethodDesc = "()V"
)

// Lifecycle instrumentation targets.
const (
	ActivityOnCreateName      = "onCreate"
	ActivityOnCreateDesc      = "(Landroid/os/Bundle;)V"
	FragmentOnViewCreatedName = "onViewCreated"
	FragmentOnViewCreatedDesc = "(Landroid/view/View;Landroid/os/Bundle;)V"
)

// JDK classes referenced by the @Track prelude.
const (
	hashMapClass       = "java/util/HashMap"
	hashMapInitDesc    = "(I)V"
	mapClass           = "java/util/Map"
	mapPutDesc         = "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;"
	collectionsClass   = "java/util/Collections"
	emptyMapDesc       = "()Ljava/util/Map;"
	constructorName    = "<init>"
	codeAttributeName  = "Code"
)

var activitySupers = sets.New(
	"android/app/Activity",
	"androidx/appcompat/app/AppCompatActivity",
	"androidx/fragment/app/FragmentActivity",
)

var fragmentSupers = sets.New(
	"android/app/Fragment",
	"androidx/fragment/app/Fragment",
)

// systemPrefixes name packages that are never woven, regardless of the
// include/exclude configuration.
var systemPrefixes = []string{"android.", "androidx.", "java.", "kotlin."}
