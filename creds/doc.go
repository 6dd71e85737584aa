// Package creds attaches credentials to outbound requests.
//
// Each third-party AI upstream authenticates differently: some take a
// static API key header, some a bearer token, some a short-lived signed
// service token. A Credential knows how to stamp one of those onto an
// *http.Request; the upstream client applies it once per physical attempt.
package creds
