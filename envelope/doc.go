// Package envelope maps procedure calls onto the three wire envelopes a
// tRPC-style backend may expect, and decodes any response body into a
// success value or an error message.
//
// Formats are tried in the order returned by Formats:
//
//	direct  POST {route}/{procedure}          {"json":{"input":payload}}
//	batch   POST {route}/{procedure}?batch=1  [{"id":1,"json":{"method":m,"params":{"input":payload}}}]
//	legacy  POST {route}/{procedure}          {"json":{"method":m,"params":{"path":procedure,"input":payload}}}
package envelope
