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

package version

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the time part of versions produced by training.
const TimestampLayout = "20060102_150405"

var (
	// ErrInvalid is returned for versions that cannot name an artifact file.
	ErrInvalid = errors.New("invalid model version")

	pattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Scheme is how a version is named.
type Scheme int

const (
	// Named versions are free-form, e.g. "baseline".
	Named Scheme = iota
	// Sequence versions are v<N>, e.g. the default "v1".
	Sequence
	// Timestamp versions are v<YYYYmmdd_HHMMSS>, produced by training.
	Timestamp
)

// Version is a parsed model version.
type Version struct {
	Raw     string
	Scheme  Scheme
	Number  int
	Trained time.Time
}

// Parse classifies s. Versions must start with a letter or digit and contain
// only letters, digits, '.', '_' and '-'.
func Parse(s string) (Version, error) {
	if !pattern.MatchString(s) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	v := Version{Raw: s, Scheme: Named}
	rest, ok := strings.CutPrefix(s, "v")
	if !ok || rest == "" {
		return v, nil
	}

	if len(rest) == len(TimestampLayout) {
		if t, err := time.Parse(TimestampLayout, rest); err == nil {
			v.Scheme = Timestamp
			v.Trained = t
			return v, nil
		}
	}

	if n, err := strconv.Atoi(rest); err == nil && n >= 0 && rest[0] != '+' {
		v.Scheme = Sequence
		v.Number = n
	}
	return v, nil
}

// MustParse is Parse that panics on error. For constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// At returns the version for a model trained at t.
func At(t time.Time) Version {
	t = t.UTC().Truncate(time.Second)
	return Version{
		Raw:     "v" + t.Format(TimestampLayout),
		Scheme:  Timestamp,
		Trained: t,
	}
}

// String returns the version as written.
func (v Version) String() string {
	return v.Raw
}

// Compare orders versions: named (alphabetically) before sequence (by number)
// before timestamp (by time). Ties fall back to the raw string.
func (v Version) Compare(other Version) int {
	if v.Scheme != other.Scheme {
		if v.Scheme < other.Scheme {
			return -1
		}
		return 1
	}

	switch v.Scheme {
	case Sequence:
		if v.Number != other.Number {
			if v.Number < other.Number {
				return -1
			}
			return 1
		}
	case Timestamp:
		if c := v.Trained.Compare(other.Trained); c != 0 {
			return c
		}
	}
	return strings.Compare(v.Raw, other.Raw)
}

// IsNewer reports whether v sorts after other.
func (v Version) IsNewer(other Version) bool {
	return v.Compare(other) > 0
}

// Sort orders raw versions oldest first. Invalid entries are dropped.
func Sort(raw []string) []string {
	parsed := make([]Version, 0, len(raw))
	for _, s := range raw {
		if v, err := Parse(s); err == nil {
			parsed = append(parsed, v)
		}
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Compare(parsed[j]) < 0
	})

	out := make([]string, len(parsed))
	for i, v := range parsed {
		out[i] = v.Raw
	}
	return out
}

// Latest returns the newest valid version in raw.
func Latest(raw []string) (string, bool) {
	sorted := Sort(raw)
	if len(sorted) == 0 {
		return "", false
	}
	return sorted[len(sorted)-1], true
}
