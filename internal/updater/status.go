package updater

import (
	"github.com/Zechiax/LazyAndrew/internal/registry"
)

// CheckStatus is the outcome of checking one artifact.
type CheckStatus int

const (
	// StatusPendingCheck means the artifact was identified but not yet classified
	StatusPendingCheck CheckStatus = iota
	// StatusNotOnRegistry means the registry has no file with the artifact's hash
	StatusNotOnRegistry
	// StatusLookupFailed means a registry call failed for the artifact
	StatusLookupFailed
	// StatusUpToDate means the artifact is the latest applicable version
	StatusUpToDate
	// StatusUpdateAvailable means a newer applicable version exists
	StatusUpdateAvailable
	// StatusClientOnly means the project has no server-targeted release
	StatusClientOnly
)

var statusNames = map[CheckStatus]string{
	StatusPendingCheck:    "pending",
	StatusNotOnRegistry:   "not-on-registry",
	StatusLookupFailed:    "lookup-failed",
	StatusUpToDate:        "up-to-date",
	StatusUpdateAvailable: "update-available",
	StatusClientOnly:      "client-only",
}

func (s CheckStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Artifact is a plugin file found in the plugin directory.
type Artifact struct {
	// Path is the absolute path of the file
	Path string
	// Name is the file's base name
	Name string
}

// Payload bundles what the registry told us about an identified artifact.
type Payload struct {
	Artifact Artifact
	// Current is the version matching the artifact's hash
	Current registry.Version
	// Latest is the resolved latest applicable version, nil until resolved
	// and for client-only projects without a server release
	Latest *registry.Version
	// Project is the owning project, nil until fetched
	Project *registry.Project
}

// CheckResult is the resolved outcome for one artifact.
//
// A result carries a payload exactly when the registry identified the
// artifact, and an error exactly when Status is StatusLookupFailed. Results
// are only built through the constructors below.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	payload *Payload
	err     error
}

func notOnRegistry(a Artifact) CheckResult {
	return CheckResult{Name: a.Name, Status: StatusNotOnRegistry}
}

func lookupFailed(name string, err error) CheckResult {
	return CheckResult{Name: name, Status: StatusLookupFailed, err: err}
}

func identified(a Artifact, current registry.Version) CheckResult {
	return CheckResult{
		Name:    a.Name,
		Status:  StatusPendingCheck,
		payload: &Payload{Artifact: a, Current: current},
	}
}

// Successful reports whether the lookup itself succeeded.
func (r CheckResult) Successful() bool {
	return r.err == nil
}

// Payload returns registry data for an identified artifact, or nil.
func (r CheckResult) Payload() *Payload {
	return r.payload
}

// Err returns the lookup failure, or nil.
func (r CheckResult) Err() error {
	return r.err
}

// Message returns the human-readable failure message, or "".
func (r CheckResult) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// ProjectTitle returns the owning project's title, falling back to the file name.
func (r CheckResult) ProjectTitle() string {
	if r.payload != nil && r.payload.Project != nil && r.payload.Project.Title != "" {
		return r.payload.Project.Title
	}
	return r.Name
}
