// Package api represents all types associated with the Aptos REST API.  It handles JSON packing and un-packing, through
// multiple inner types.
//
// u64 values travel as decimal strings on the wire and are decoded into [U64].
//
// Quick links:
//
//   - [Aptos API Reference] for an interactive OpenAPI documentation experience.
//
// [Aptos API Reference]: https://aptos.dev/en/build/apis/fullnode-rest-api-reference
package api
