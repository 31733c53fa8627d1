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

package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: test
contexts:
- context:
    cluster: test
    user: test
  name: test
current-context: test
users:
- name: test
  user:
    token: abc
`

func resetClient() {
	clientOnce = sync.Once{}
	cachedClient = nil
	cachedConfig = nil
	clientErr = nil
}

func TestResolveKubeconfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/from/env")
		if got := resolveKubeconfig("/explicit"); got != "/explicit" {
			t.Errorf("resolveKubeconfig() = %q, want /explicit", got)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/from/env")
		if got := resolveKubeconfig(""); got != "/from/env" {
			t.Errorf("resolveKubeconfig() = %q, want /from/env", got)
		}
	})

	t.Run("in-cluster when nothing found", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "")
		if got := resolveKubeconfig(""); got != "" {
			t.Errorf("resolveKubeconfig() = %q, want empty", got)
		}
	})

	t.Run("home config", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "")
		dir := filepath.Join(home, ".kube")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "config")
		if err := os.WriteFile(path, []byte(testKubeconfig), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := resolveKubeconfig(""); got != path {
			t.Errorf("resolveKubeconfig() = %q, want %q", got, path)
		}
	})
}

func TestBuildKubeClient(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid kubeconfig", func(t *testing.T) {
		path := filepath.Join(dir, "valid")
		if err := os.WriteFile(path, []byte(testKubeconfig), 0o600); err != nil {
			t.Fatal(err)
		}
		c, cfg, err := BuildKubeClient(path)
		if err != nil {
			t.Fatalf("BuildKubeClient() error = %v", err)
		}
		if c == nil || cfg == nil {
			t.Fatal("BuildKubeClient() returned nil client or config")
		}
		if cfg.Host != "https://127.0.0.1:6443" {
			t.Errorf("Host = %q", cfg.Host)
		}
	})

	t.Run("invalid kubeconfig", func(t *testing.T) {
		path := filepath.Join(dir, "invalid")
		if err := os.WriteFile(path, []byte("invalid yaml content"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, _, err := BuildKubeClient(path)
		if err == nil {
			t.Fatal("expected error for invalid kubeconfig")
		}
		if !strings.Contains(err.Error(), "failed to build kube config") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := GetKubeClientWithConfig(filepath.Join(dir, "missing")); err == nil {
			t.Fatal("expected error for missing kubeconfig")
		}
	})
}

func TestGetKubeClient_Singleton(t *testing.T) {
	resetClient()
	defer resetClient()

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(testKubeconfig), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KUBECONFIG", path)

	const workers = 8
	results := make(chan Interface, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _, err := GetKubeClient()
			if err != nil {
				t.Errorf("GetKubeClient() error = %v", err)
			}
			results <- c
		}()
	}
	wg.Wait()
	close(results)

	first, _, _ := GetKubeClient()
	for c := range results {
		if c != first {
			t.Error("GetKubeClient() returned different instances")
		}
	}
}

func TestGetKubeClient_ErrorIsNilInterface(t *testing.T) {
	resetClient()
	defer resetClient()

	t.Setenv("KUBECONFIG", filepath.Join(t.TempDir(), "missing"))

	c, cfg, err := GetKubeClient()
	if err == nil {
		t.Fatal("expected error")
	}
	if c != nil || cfg != nil {
		t.Error("failed GetKubeClient() should return a nil interface and config")
	}
}
