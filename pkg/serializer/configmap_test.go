// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package serializer

import (
	"context"
	"errors"
	"testing"

	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/k8s/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

type headedDoc struct {
	header.Header `json:",inline" yaml:",inline"`
	Pipeline      string `json:"pipeline" yaml:"pipeline"`
}

func useFakeClient(t *testing.T, objects ...corev1.ConfigMap) *fake.Clientset {
	t.Helper()
	cs := fake.NewClientset()
	for i := range objects {
		_, err := cs.CoreV1().ConfigMaps(objects[i].Namespace).Create(context.Background(), &objects[i], metav1.CreateOptions{})
		require.NoError(t, err)
	}

	orig := kubeClient
	kubeClient = func(string) (client.Interface, error) { return cs, nil }
	t.Cleanup(func() { kubeClient = orig })
	return cs
}

func TestConfigMapWriter(t *testing.T) {
	cs := useFakeClient(t)

	doc := &headedDoc{Pipeline: "web"}
	doc.Init(header.KindBuildSuggestion, "v20260102_030405")

	w := NewConfigMapWriter("ci", "advice", FormatYAML)
	require.NoError(t, w.Serialize(context.Background(), doc))
	require.NoError(t, w.Close())

	cm, err := cs.CoreV1().ConfigMaps("ci").Get(context.Background(), "advice", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, cm.Data["document.yaml"], "pipeline: web")
	assert.Equal(t, "yaml", cm.Data["format"])
	assert.NotEmpty(t, cm.Data["timestamp"])
	assert.Equal(t, appName, cm.Labels["app.kubernetes.io/name"])
	assert.Equal(t, header.KindBuildSuggestion.String(), cm.Labels["app.kubernetes.io/component"])
	assert.Equal(t, "v20260102_030405", cm.Labels["app.kubernetes.io/version"])

	got, err := FromFile[headedDoc]("cm://ci/advice")
	require.NoError(t, err)
	assert.Equal(t, "web", got.Pipeline)
	assert.Equal(t, header.KindBuildSuggestion, got.Kind)
}

func TestConfigMapWriterClientError(t *testing.T) {
	orig := kubeClient
	kubeClient = func(string) (client.Interface, error) { return nil, errors.New("no cluster") }
	t.Cleanup(func() { kubeClient = orig })

	err := NewConfigMapWriter("ci", "advice", FormatJSON).Serialize(context.Background(), map[string]int{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cluster")
}

func TestFromConfigMap(t *testing.T) {
	useFakeClient(t,
		corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Namespace: "ci", Name: "json-doc"},
			Data: map[string]string{
				"format":        "json",
				"document.json": `{"pipeline":"api","concurrency":4}`,
			},
		},
		corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Namespace: "ci", Name: "no-format"},
			Data: map[string]string{
				"document.json": `{"pipeline":"legacy"}`,
			},
		},
		corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Namespace: "ci", Name: "empty"},
			Data:       map[string]string{"other": "x"},
		},
	)

	got, err := FromFile[testDoc]("cm://ci/json-doc")
	require.NoError(t, err)
	assert.Equal(t, "api", got.Pipeline)
	assert.Equal(t, 4, got.Concurrency)

	got, err = FromFile[testDoc]("cm://ci/no-format")
	require.NoError(t, err)
	assert.Equal(t, "legacy", got.Pipeline)

	_, err = FromFile[testDoc]("cm://ci/empty")
	assert.ErrorContains(t, err, "no document data")

	_, err = FromFile[testDoc]("cm://ci/missing")
	assert.Error(t, err)
}
