// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters): indexing, retrieval, prompt
// assembly and the answer fallback chain.
//
// Services are pure Go with no CGO.
package services
