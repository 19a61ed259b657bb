// Package core contains the connection resource client and the types the
// lower layers share with it. The rpc, envelope and transport packages
// depend on core, which only sees them through contracts.go.
package core
