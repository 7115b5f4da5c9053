// Package mock provides a deterministic ai.Transport for tests.
//
// The mock never touches the network. By default it returns a unit-length
// vector derived from an FNV hash of the input, so identical texts always
// embed identically. Failures can be scripted per call.
//
// # Usage in Tests
//
//	// Default deterministic vectors
//	tr := mock.NewTransport(768)
//	vec, err := tr.Embed(ctx, "退货政策是什么")
//
//	// First two calls fail with a server error, then succeed
//	tr := mock.NewTransport(768).WithEmbedFunc(mock.FailFirst(2, 768, &ai.StatusError{Code: 500}))
//
//	// Inspect what was sent
//	texts := tr.Texts()
//	count := tr.CallCount()
package mock
