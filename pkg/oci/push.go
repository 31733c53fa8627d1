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

package oci

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/inframind/build-advisor/pkg/errors"
)

// Media types of model artifacts.
const (
	ArtifactType          = "application/vnd.inframind.im.model.v1"
	MediaTypeModel        = "application/vnd.inframind.im.model.v1+json"
	MediaTypeModelMetrics = "application/vnd.inframind.im.model.metrics.v1+json"
)

// AnnotationModelVersion records the model version on the manifest.
const AnnotationModelVersion = "io.inframind.im.model.version"

// PushOptions configures a model push.
type PushOptions struct {
	// Files are the artifact files to push, one layer each.
	Files []string
	// Reference is the destination. A missing tag defaults to Version.
	Reference *Reference
	// Version is the model version being pushed.
	Version string
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Created pins the manifest creation annotation for reproducible pushes.
	Created string
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult describes a pushed artifact.
type PushResult struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
	Layers    int    `json:"layers" yaml:"layers"`
}

// Push uploads model files to a registry with ORAS. Registry credentials are
// taken from the Docker credential store.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	ref := opts.resolved()

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", ref.Registry, ref.Repository))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	return pushTo(ctx, opts, repo)
}

func (o PushOptions) validate() error {
	if o.Reference == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "OCI reference is required")
	}
	if len(o.Files) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "no model files to push")
	}
	if o.Reference.Tag == "" && o.Version == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "tag or model version is required")
	}
	return nil
}

func (o PushOptions) resolved() *Reference {
	if o.Reference.Tag == "" {
		return o.Reference.WithTag(o.Version)
	}
	return o.Reference
}

// pushTo packs the files into a local file store and copies the tagged manifest to dst.
func pushTo(ctx context.Context, opts PushOptions, dst oras.Target) (*PushResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	ref := opts.resolved()

	absFirst, err := filepath.Abs(opts.Files[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve model file", err)
	}

	fs, err := file.New(filepath.Dir(absFirst))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	layers := make([]ociv1.Descriptor, 0, len(opts.Files))
	for _, f := range opts.Files {
		abs, absErr := filepath.Abs(f)
		if absErr != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve model file", absErr)
		}
		desc, addErr := fs.Add(ctx, filepath.Base(abs), mediaTypeFor(abs), abs)
		if addErr != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeNotFound, "failed to add model file", addErr,
				map[string]any{"file": f})
		}
		layers = append(layers, desc)
	}

	annotations := map[string]string{
		ociv1.AnnotationTitle:   "build-advisor model",
		ociv1.AnnotationVersion: opts.Version,
		AnnotationModelVersion:  opts.Version,
	}
	for k, v := range opts.Annotations {
		annotations[k] = v
	}
	if opts.Created != "" {
		annotations[ociv1.AnnotationCreated] = opts.Created
	}

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              layers,
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	if err := fs.Tag(ctx, manifest, ref.Tag); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	desc, err := oras.Copy(ctx, fs, ref.Tag, dst, ref.Tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnavailable, "failed to push model to registry", err)
	}

	slog.Info("model pushed",
		"reference", ref.ImageReference(),
		"digest", desc.Digest.String(),
		"layers", len(layers))

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: ref.ImageReference(),
		Layers:    len(layers),
	}, nil
}

func mediaTypeFor(path string) string {
	if strings.HasSuffix(path, ".metrics.json") {
		return MediaTypeModelMetrics
	}
	return MediaTypeModel
}

// createAuthClient returns a client that reads Docker credentials and
// optionally skips TLS verification.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credential store unavailable, pushing anonymously", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	c := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		c.Credential = credentials.Credential(credStore)
	}
	return c
}
