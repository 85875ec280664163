// Package testutil provides test helpers shared by the go-apicall packages.
//
// # Utilities
//
//   - NewLocalHTTPServer: start an httptest server bound to 127.0.0.1
//   - RoundTripFunc, Respond, StaticJSONResponse: in-memory HTTP collaborators without sockets
//   - RecordingTransport: capture outgoing requests for later assertions
//   - MintAccessToken: fake bearer tokens shaped like the identity provider's JWTs
//   - WriteTestCACert: self-signed CA bundle for TLS configuration tests
package testutil
