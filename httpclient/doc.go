// Package httpclient calls the protected API with a bearer token and builds the shared http.Client
// it runs on.
//
// Caller.CallAPI sends one GET with the token in the Authorization header of that request only,
// checks the status and pretty-prints JSON bodies (anything else is returned verbatim). Failures are
// apperr API errors; a blank token is an invalid-argument error; cancellation is returned as the
// context error.
//
// Builder constructs the http.Client: TLS 1.2 minimum, optional private CA, timeout, optional
// OpenTelemetry instrumentation and debug request logging through LoggingTransport.
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithTimeout(30 * time.Second).
//	    WithLogger(logger).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	caller, err := httpclient.NewCaller(settings, client, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	body, err := caller.CallAPI(ctx, token)
package httpclient
