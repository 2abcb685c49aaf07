package emit

import (
	"fmt"
	"path"
	"strings"
)

// ArtifactPath maps a slash-separated source path relative to the input
// root to the artifact path relative to the output root. Every segment
// becomes a valid lowercase module name: "My Validators/l2-datum.py"
// becomes "my_validators/l2_datum.ak".
func ArtifactPath(rel string) string {
	rel = strings.TrimSuffix(path.Clean(rel), ".py")
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = moduleSegment(s)
	}
	return strings.Join(segments, "/") + ".ak"
}

func moduleSegment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" || out[0] < 'a' || out[0] > 'z' {
		out = "m" + out
	}
	return escape(out)
}

// Paths hands out artifact paths without collisions. Callers assign in a
// stable order (sorted source paths) so suffixes are reproducible.
type Paths struct {
	used map[string]bool
}

// NewPaths returns an empty path set.
func NewPaths() *Paths {
	return &Paths{used: map[string]bool{}}
}

// Assign returns the artifact path for rel. When two sources map to the
// same artifact, the later one gets a numeric suffix before .ak.
func (p *Paths) Assign(rel string) string {
	out := ArtifactPath(rel)
	if !p.used[out] {
		p.used[out] = true
		return out
	}
	stem := strings.TrimSuffix(out, ".ak")
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d.ak", stem, i)
		if !p.used[candidate] {
			p.used[candidate] = true
			return candidate
		}
	}
}
