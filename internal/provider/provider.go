// Package provider implements market-data providers for the scanner:
// Yahoo Finance (default), Angel One SmartAPI, and a controllable mock
// for development and tests.
//
// All providers bound their calls by context; the scanner treats every
// failure mode — network error, timeout, unknown symbol — identically
// and skips the symbol.
package provider

import "errors"

// ErrNoData is returned when a provider answered but had no bars for
// the requested symbol and window.
var ErrNoData = errors.New("provider: no data for symbol")

func fptr(v float64) *float64 { return &v }
