package scanresolver

import "context"

//go:generate mockgen -package mockscanresolver -source=interface.go -destination=mock/mockscanresolver.go *

// Router navigates the in-app router to a path.
type Router interface {
	Navigate(ctx context.Context, path string)
}

// Opener opens a target in a new browsing context. It is handed raw decoded
// text and is responsible for validating it.
type Opener interface {
	Open(ctx context.Context, target string)
}
