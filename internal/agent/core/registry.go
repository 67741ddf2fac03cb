package core

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Operation names known to the planner and the registry.
const (
	OpSearchCompanyInfo        = "search_company_info"
	OpAnalyzeMarketTrends      = "analyze_market_trends"
	OpSearchCompetitorAnalysis = "search_competitor_analysis"
	OpSearchLatestNews         = "search_latest_news"
	OpGenerateMarketReport     = "generate_market_report"
	OpSendEmailReport          = "send_email_report"
)

// ErrNotFound is returned when a name is absent from the registry.
var ErrNotFound = errors.New("operation not found")

// Parameter binding sources. The executor uses these to decide which
// entity feeds each declared parameter.
const (
	BindSubject = "subject"
	BindScope   = "scope"
	BindDefault = "default"
)

// ParamSpec declares one operation parameter and how it is bound.
type ParamSpec struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Source      string      `json:"source"`
	Default     interface{} `json:"default,omitempty"`
}

// Descriptor describes one registered operation. Checksum covers the
// identity fields; Signature is an HMAC over the checksum.
type Descriptor struct {
	Name        string               `json:"name"`
	Version     string               `json:"version"`
	Description string               `json:"description"`
	Parameters  map[string]ParamSpec `json:"parameters"`
	Checksum    string               `json:"checksum,omitempty"`
	Signature   string               `json:"signature,omitempty"`
}

// Entry pairs a descriptor with its invocable implementation.
type Entry struct {
	Descriptor Descriptor
	Invoke     Operation
}

// Registry is an immutable name to operation mapping, assembled once
// at process start.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// NewRegistry builds a registry from entries, preserving their order.
// When secret is non-empty every descriptor must carry a valid
// signature. Required names must all be present.
func NewRegistry(entries []Entry, secret string, required []string) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		name := e.Descriptor.Name
		if name == "" {
			return nil, errors.New("registry entry with empty name")
		}
		if _, dup := r.entries[name]; dup {
			return nil, fmt.Errorf("duplicate registry entry %q", name)
		}
		if e.Invoke == nil {
			return nil, fmt.Errorf("registry entry %q has no implementation", name)
		}
		if secret != "" {
			if err := VerifyDescriptor(e.Descriptor, secret); err != nil {
				return nil, fmt.Errorf("descriptor %q: %w", name, err)
			}
		}
		r.entries[name] = e
		r.order = append(r.order, name)
	}
	for _, name := range required {
		if _, ok := r.entries[name]; !ok {
			return nil, fmt.Errorf("required operation %q missing from registry", name)
		}
	}
	return r, nil
}

// Resolve returns the invocable for name, or ErrNotFound.
func (r *Registry) Resolve(name string) (Operation, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.Invoke, nil
}

// Describe returns the descriptor for name, or ErrNotFound.
func (r *Registry) Describe(name string) (Descriptor, error) {
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.Descriptor, nil
}

// List returns registered names in registration order.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ComputeChecksum hashes the descriptor identity fields with
// deterministic key order.
func ComputeChecksum(d Descriptor) (string, error) {
	paramNames := make([]string, 0, len(d.Parameters))
	for name := range d.Parameters {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)

	canonical := struct {
		Name        string      `json:"name"`
		Version     string      `json:"version"`
		Description string      `json:"description"`
		ParamNames  []string    `json:"param_names"`
		Params      []ParamSpec `json:"params"`
	}{Name: d.Name, Version: d.Version, Description: d.Description, ParamNames: paramNames}
	for _, name := range paramNames {
		canonical.Params = append(canonical.Params, d.Parameters[name])
	}

	raw, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// SignDescriptor fills in Checksum and Signature using secret.
func SignDescriptor(d *Descriptor, secret string) error {
	checksum, err := ComputeChecksum(*d)
	if err != nil {
		return err
	}
	d.Checksum = checksum
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(checksum))
	d.Signature = hex.EncodeToString(mac.Sum(nil))
	return nil
}

// VerifyDescriptor checks that the descriptor's checksum matches its
// content and the signature matches the checksum.
func VerifyDescriptor(d Descriptor, secret string) error {
	checksum, err := ComputeChecksum(d)
	if err != nil {
		return err
	}
	if d.Checksum != checksum {
		return errors.New("checksum mismatch")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(checksum))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(d.Signature)) {
		return errors.New("invalid signature")
	}
	return nil
}
