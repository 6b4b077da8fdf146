// Package integrations provides the shared HTTP client for backend APIs.
//
// [Client] speaks the JSON envelope used by the departments backend:
// successful responses carry their payload under "data" and failures
// carry a message under "error.message":
//
//	{"data": [...]}
//	{"error": {"message": "department not found"}}
//
// Status codes map to coded errors from pkg/errors:
//
//   - 401, 403: UNAUTHORIZED
//   - 404: NOT_FOUND
//   - other 4xx: INVALID_INPUT
//   - 5xx and transport failures: NETWORK_ERROR, retried for idempotent
//     methods with [httputil.Retry]
//
// [Client.Fallback] keeps the last good response in a [cache.Cache] and
// serves it when the backend is unreachable.
//
// Backend-specific clients live in subpackages:
//
//   - [departments]: department hierarchy, CRUD, and login
package integrations
