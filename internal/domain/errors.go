package domain

import "errors"

var (
	// ErrNetwork marks transport failures and non-success responses from the remote source.
	ErrNetwork = errors.New("network error")
	// ErrDecode marks malformed or incomplete records, remote or cached.
	ErrDecode = errors.New("decode error")
)
