// Package domain defines the core request/response contract models.
//
// Domain models are pure values without IO dependencies. This package contains:
//
//   - Value: the BOOLEAN/INT/DOUBLE/DATE/STRING parameter sum type
//   - Schema and Param: per-endpoint parameter declarations
//   - EndpointSpec and ContentKind: the contract of a registered route
//   - ParsedRequest and Params: the validated view of one request
//   - Errors: the contract error taxonomy and its HTTP status mapping
//
// EndpointSpec and Schema are built at registration time and are read-only
// afterwards.
package domain
