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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inframind/build-advisor/pkg/defaults"
	"github.com/inframind/build-advisor/pkg/header"
	"github.com/inframind/build-advisor/pkg/k8s/client"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	accorev1 "k8s.io/client-go/applyconfigurations/core/v1"
)

const (
	// ConfigMapURIScheme prefixes destinations of the form cm://namespace/name.
	ConfigMapURIScheme = "cm://"

	configMapFormatKey    = "format"
	configMapTimestampKey = "timestamp"
	fieldManager          = "imctl"
	appName               = "build-advisor"
)

// kubeClient resolves the clientset used for ConfigMap reads and writes.
// An empty kubeconfig uses the shared client.
var kubeClient = func(kubeconfig string) (client.Interface, error) {
	if kubeconfig != "" {
		c, _, err := client.GetKubeClientWithConfig(kubeconfig)
		return c, err
	}
	c, _, err := client.GetKubeClient()
	return c, err
}

func documentKey(format Format) string {
	return "document." + format.extension()
}

// ConfigMapWriter publishes a document to a ConfigMap with server-side apply,
// creating it or taking over its fields.
type ConfigMapWriter struct {
	namespace  string
	name       string
	format     Format
	kubeconfig string
}

// NewConfigMapWriter creates a writer for namespace/name. Unknown formats fall back to JSON.
func NewConfigMapWriter(namespace, name string, format Format) *ConfigMapWriter {
	return &ConfigMapWriter{
		namespace: namespace,
		name:      name,
		format:    normalizeFormat(format),
	}
}

// WithKubeconfig uses an explicit kubeconfig instead of the shared client.
func (w *ConfigMapWriter) WithKubeconfig(path string) *ConfigMapWriter {
	w.kubeconfig = path
	return w
}

// Serialize stores doc under data["document.<ext>"] along with its format and timestamp.
// Documents carrying a header contribute the component and version labels.
func (w *ConfigMapWriter) Serialize(ctx context.Context, doc any) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaults.ConfigMapWriteTimeout)
	defer cancel()

	content, err := encode(w.format, doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}

	kind := header.KindBuildSuggestion.String()
	version := "unknown"
	timestamp := time.Now().UTC().Format(time.RFC3339)
	if h, ok := doc.(interface {
		GetKind() header.Kind
		GetMetadata() map[string]string
	}); ok {
		if k := h.GetKind(); k.IsValid() {
			kind = k.String()
		}
		md := h.GetMetadata()
		if v := md[header.MetadataVersion]; v != "" {
			version = v
		}
		if ts := md[header.MetadataTimestamp]; ts != "" {
			timestamp = ts
		}
	}

	k8sClient, err := kubeClient(w.kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to get kubernetes client: %w", err)
	}

	configMap := accorev1.ConfigMap(w.name, w.namespace).
		WithLabels(map[string]string{
			"app.kubernetes.io/name":      appName,
			"app.kubernetes.io/component": kind,
			"app.kubernetes.io/version":   version,
		}).
		WithData(map[string]string{
			documentKey(w.format): string(content),
			configMapFormatKey:    string(w.format),
			configMapTimestampKey: timestamp,
		})

	slog.Info("applying ConfigMap",
		"namespace", w.namespace,
		"name", w.name,
		"kind", kind,
		"format", w.format)

	_, err = k8sClient.CoreV1().ConfigMaps(w.namespace).Apply(writeCtx, configMap, metav1.ApplyOptions{
		FieldManager: fieldManager,
		Force:        true,
	})
	if err != nil {
		return fmt.Errorf("failed to apply ConfigMap %s/%s: %w", w.namespace, w.name, err)
	}
	return nil
}

// Close is a no-op.
func (w *ConfigMapWriter) Close() error {
	return nil
}

// parseConfigMapURI splits cm://namespace/name.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	if !strings.HasPrefix(uri, ConfigMapURIScheme) {
		return "", "", fmt.Errorf("invalid ConfigMap URI: must start with %s", ConfigMapURIScheme)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, ConfigMapURIScheme), "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapURIScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])
	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	if strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot contain '/'")
	}
	return namespace, name, nil
}
