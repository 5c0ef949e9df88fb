// Package mocks provides centralized mock implementations for testing.
//
// Each mock implements one application interface with a function field per
// method and records its calls, so tests in different packages share the
// same behaviour:
//
//	src := &mocks.MockSource{
//	    QuoteFn: func(ctx context.Context) (domain.Quote, error) {
//	        return domain.Quote{}, generation.ErrTransientFailure
//	    },
//	}
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Document any helper methods or special functionality
package mocks
