// Package fetch provides ready-made producers for common resource
// backends. Each function returns a closure matching the resource
// constructors' fetcher signature.
package fetch
