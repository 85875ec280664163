// Package apperr defines the failure taxonomy shared by the authenticator, the API caller and the workflow.
//
// Every domain failure is an *Error tagged with a Kind. Callers branch on the kind with KindOf or
// errors.Is against the sentinels, instead of inspecting concrete types:
//
//	switch apperr.KindOf(err) {
//	case apperr.KindAuthentication:
//	    // ask the user to sign in again
//	case apperr.KindAPI:
//	    // the remote API is down or rejected the call
//	case apperr.KindCancelled:
//	    // the run was abandoned
//	}
//
// Cancellation is never represented by an *Error. It travels as the context error itself and KindOf
// recognizes it anywhere in the chain.
package apperr
