package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// ErrNilDepsFatalLogMsg is used if app or one of the handler dependencies is nil.
	ErrNilDepsFatalLogMsg = "app or handler dependencies are nil"

	// StatusSuccess is the status reported by operations without a payload.
	StatusSuccess = "success"
)
