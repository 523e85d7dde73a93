// Package util provides shared error types for the route matcher.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrEmptyPaths.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., RouteError, ExpressionError). Each type
//     implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// Matching never returns errors: every error in this package is raised
// while a matcher is being constructed.
package util
