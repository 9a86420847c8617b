// Package application contains the credential issuance and verification use cases.
package application

import "errors"

// ErrStorage marks a failure of the credential store. It is the only fault a
// service returns besides input validation; callers must not retry on it.
var ErrStorage = errors.New("credential storage failure")
