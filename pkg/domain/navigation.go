package domain

// NavigationKind tells how a decoded payload has to be followed.
type NavigationKind string

const (
	// NavigationInternal targets are in-app paths handed to the router.
	NavigationInternal NavigationKind = "internal"
	// NavigationExternal targets are opened as a new browsing context.
	NavigationExternal NavigationKind = "external"
)

// NavigationTarget is derived from a decoded payload and never persisted.
type NavigationTarget struct {
	Kind NavigationKind `json:"kind"`
	// Value is the in-app path for internal targets, or the raw decoded text
	// for external ones.
	Value string `json:"value"`
}

// IsInternal reports whether the target is an in-app path.
func (t NavigationTarget) IsInternal() bool { return t.Kind == NavigationInternal }
