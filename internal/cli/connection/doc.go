// Package connection reaches a gridwire node's admin API.
//
// Manager resolves which endpoint to use from the saved profiles and any
// flag overrides; Client speaks the JSON envelope the admin API returns.
package connection
